package app

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"orgchat/internal/codec"
	"orgchat/internal/model"
)

const turnIDLength = 8

type ConversationView struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Name      string       `json:"name"`
	Messages  []model.Turn `json:"messages"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type ConversationSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationStore keeps question/answer turns encoded at rest. Appends
// rewrite the whole message list; concurrent appends are last writer wins.
type ConversationStore struct {
	repo  ConversationRepository
	codec codec.Codec
}

func NewConversationStore(repo ConversationRepository, c codec.Codec) *ConversationStore {
	if c == nil {
		c = codec.NewMessageCodec()
	}
	return &ConversationStore{repo: repo, codec: c}
}

func (s *ConversationStore) Create(ctx context.Context, userID, question, answer string) (string, error) {
	turns := []model.Turn{s.encodeTurn(question, answer)}
	raw, err := json.Marshal(turns)
	if err != nil {
		return "", err
	}

	now := time.Now()
	conversation := &model.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      s.codec.Encode(question),
		Messages:  datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conversation); err != nil {
		return "", err
	}
	return conversation.ID, nil
}

func (s *ConversationStore) AppendTurn(ctx context.Context, conversationID, question, answer string) error {
	conversation, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrNotFound
	}

	turns, err := parseTurns(conversation.Messages)
	if err != nil {
		return err
	}
	turns = append(turns, s.encodeTurn(question, answer))

	raw, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	updated, err := s.repo.ReplaceMessages(ctx, conversationID, datatypes.JSON(raw), time.Now())
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// GetOwned returns the conversation with its name and turns decoded. A
// conversation owned by anyone other than userID is reported as ErrNotFound
// before its stored content is looked at.
func (s *ConversationStore) GetOwned(ctx context.Context, conversationID, userID string) (*ConversationView, error) {
	conversation, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, ErrNotFound
	}

	turns, err := parseTurns(conversation.Messages)
	if err != nil {
		return nil, err
	}
	for i := range turns {
		turns[i].Question = s.decode(turns[i].Question)
		turns[i].Answer = s.decode(turns[i].Answer)
	}

	return &ConversationView{
		ID:        conversation.ID,
		UserID:    conversation.UserID,
		Name:      s.decode(conversation.Name),
		Messages:  turns,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}, nil
}

func (s *ConversationStore) ListByUser(ctx context.Context, userID string) ([]ConversationSummary, error) {
	list, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(list))
	for _, item := range list {
		out = append(out, ConversationSummary{
			ID:        item.ID,
			Name:      s.decode(item.Name),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return out, nil
}

func (s *ConversationStore) encodeTurn(question, answer string) model.Turn {
	return model.Turn{
		ID:       newTurnID(),
		Question: s.codec.Encode(question),
		Answer:   s.codec.Encode(answer),
	}
}

// decode falls back to the stored text for values written before encoding.
func (s *ConversationStore) decode(token string) string {
	plain, err := s.codec.Decode(token)
	if err != nil {
		return token
	}
	return plain
}

func newTurnID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:turnIDLength]
}

type storedTurn struct {
	ID       *string `json:"id"`
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

// parseTurns accepts only a JSON array of objects carrying string id,
// question and answer fields.
func parseTurns(raw datatypes.JSON) ([]model.Turn, error) {
	if len(raw) == 0 {
		return nil, ErrMalformedMessages
	}
	var stored []storedTurn
	if err := json.Unmarshal(raw, &stored); err != nil || stored == nil {
		return nil, ErrMalformedMessages
	}

	turns := make([]model.Turn, 0, len(stored))
	for _, t := range stored {
		if t.ID == nil || t.Question == nil || t.Answer == nil {
			return nil, ErrMalformedMessages
		}
		turns = append(turns, model.Turn{ID: *t.ID, Question: *t.Question, Answer: *t.Answer})
	}
	return turns, nil
}
