package app

import (
	"errors"

	"orgchat/internal/codec"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotConfigured     = errors.New("azure ai credentials not configured")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDecode            = codec.ErrDecode
	ErrBootstrap         = errors.New("tenant bootstrap failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserExists        = errors.New("user already exists")
	ErrMalformedMessages = errors.New("conversation messages are malformed")
	ErrDebugDisabled     = errors.New("debug actions are disabled")
)
