package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"orgchat/internal/session"
)

// Completer sends a single user message upstream and returns the reply.
type Completer interface {
	Complete(ctx context.Context, message, apiKey, endpoint string) (string, error)
}

type ChatService struct {
	credentials   *CredentialService
	completer     Completer
	conversations *ConversationStore
	log           *zap.Logger
}

func NewChatService(credentials *CredentialService, completer Completer, conversations *ConversationStore, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		credentials:   credentials,
		completer:     completer,
		conversations: conversations,
		log:           log,
	}
}

// NewChat asks the first question and stores it with its answer as a new
// conversation owned by the principal.
func (s *ChatService) NewChat(ctx context.Context, p session.Principal, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrInvalidInput
	}

	answer, err := s.complete(ctx, p, message)
	if err != nil {
		return "", err
	}

	id, err := s.conversations.Create(ctx, p.ID, message, answer)
	if err != nil {
		s.log.Error("create conversation", zap.String("user_id", p.ID), zap.Error(err))
		return "", err
	}
	return id, nil
}

// Chat appends one turn to a conversation the principal owns.
func (s *ChatService) Chat(ctx context.Context, p session.Principal, conversationID, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrInvalidInput
	}
	if _, err := s.GetConversation(ctx, p, conversationID); err != nil {
		return err
	}

	answer, err := s.complete(ctx, p, message)
	if err != nil {
		return err
	}

	if err := s.conversations.AppendTurn(ctx, conversationID, message, answer); err != nil {
		s.log.Error("append conversation turn",
			zap.String("user_id", p.ID),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetConversation returns a conversation only to its owner; anyone else
// gets ErrNotFound.
func (s *ChatService) GetConversation(ctx context.Context, p session.Principal, conversationID string) (*ConversationView, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrNotFound
	}

	view, err := s.conversations.GetOwned(ctx, conversationID, p.ID)
	if errors.Is(err, ErrNotFound) {
		s.log.Warn("conversation not found for user",
			zap.String("user_id", p.ID),
			zap.String("conversation_id", conversationID),
		)
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *ChatService) ListConversations(ctx context.Context, p session.Principal) ([]ConversationSummary, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	return s.conversations.ListByUser(ctx, p.ID)
}

func (s *ChatService) complete(ctx context.Context, p session.Principal, message string) (string, error) {
	creds, err := s.credentials.GetCredentials(ctx, p)
	if err != nil {
		return "", err
	}
	answer, err := s.completer.Complete(ctx, message, creds.APIKey, creds.Endpoint)
	if err != nil {
		s.log.Error("completion request", zap.String("user_id", p.ID), zap.Error(err))
		return "", err
	}
	return answer, nil
}
