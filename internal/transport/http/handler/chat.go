package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/app"
	"orgchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
	log         *zap.Logger
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) NewChat(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	id, err := h.chatService.NewChat(c.Request.Context(), p, req.Message)
	if err != nil {
		respondError(c, h.log, "new chat", err)
		return
	}
	response.OK(c, gin.H{"id": id})
}

func (h *ChatHandler) Chat(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	id := c.Param("id")
	if err := h.chatService.Chat(c.Request.Context(), p, id, req.Message); err != nil {
		respondError(c, h.log, "chat", err)
		return
	}
	conversation, err := h.chatService.GetConversation(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, "chat", err)
		return
	}
	response.OK(c, conversation)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.chatService.ListConversations(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "list conversations", err)
		return
	}
	response.OK(c, list)
}

func (h *ChatHandler) GetConversation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	conversation, err := h.chatService.GetConversation(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, h.log, "get conversation", err)
		return
	}
	response.OK(c, conversation)
}
