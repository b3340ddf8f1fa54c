package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                      = 0
	CodeBadRequest              = 40000
	CodeUnauthorized            = 40100
	CodeForbidden               = 40300
	CodeDebugDisabled           = 40301
	CodeNotFound                = 40400
	CodeNotConfigured           = 40901
	CodeUserExists              = 40902
	CodeInternalServer          = 50000
	CodeDecodeFailed            = 50001
	CodeBootstrapFailed         = 50002
	CodeMalformedMessages       = 50003
	CodeUpstreamError           = 50201
	CodeInvalidUpstreamResponse = 50202
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
