package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"orgchat/internal/model"
	"orgchat/internal/session"
)

func configuredEnv(t *testing.T) (*testEnv, session.Principal) {
	t.Helper()
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	p := session.Principal{ID: "u1", Email: "alice@example.com"}
	require.NoError(t, env.credentials.SaveCredentials(context.Background(), p, "key", "https://foo.openai.azure.com"))
	return env, p
}

func TestNewChat(t *testing.T) {
	env, p := configuredEnv(t)
	ctx := context.Background()

	id, err := env.chat.NewChat(ctx, p, "What is the answer?")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, env.completer.calls, 1)
	assert.Equal(t, completionCall{Message: "What is the answer?", APIKey: "key", Endpoint: "https://foo.openai.azure.com"}, env.completer.calls[0])

	stored, err := env.conversations.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "msg_V2hhdCBpcyB0aGUgYW5zd2VyPw==", stored.Name)

	view, err := env.chat.GetConversation(ctx, p, id)
	require.NoError(t, err)
	assert.Equal(t, "What is the answer?", view.Name)
	require.Len(t, view.Messages, 1)
	assert.Len(t, view.Messages[0].ID, 8)
	assert.Equal(t, "What is the answer?", view.Messages[0].Question)
	assert.Equal(t, "42", view.Messages[0].Answer)
}

func TestNewChat_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
		_, err := env.chat.NewChat(ctx, session.Principal{ID: "u1"}, "hi")
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Empty(t, env.completer.calls)
	})

	t.Run("upstream failure stores nothing", func(t *testing.T) {
		env, p := configuredEnv(t)
		env.completer.err = errors.New("boom")
		_, err := env.chat.NewChat(ctx, p, "hi")
		assert.Error(t, err)

		list, err := env.chat.ListConversations(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("empty message", func(t *testing.T) {
		env, p := configuredEnv(t)
		_, err := env.chat.NewChat(ctx, p, "  ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestChat_AppendsInOrder(t *testing.T) {
	env, p := configuredEnv(t)
	ctx := context.Background()

	id, err := env.chat.NewChat(ctx, p, "one")
	require.NoError(t, err)
	env.completer.answer = "second answer"
	require.NoError(t, env.chat.Chat(ctx, p, id, "two"))
	env.completer.answer = "third answer"
	require.NoError(t, env.chat.Chat(ctx, p, id, "three"))

	view, err := env.chat.GetConversation(ctx, p, id)
	require.NoError(t, err)
	require.Len(t, view.Messages, 3)
	assert.Equal(t, "one", view.Messages[0].Question)
	assert.Equal(t, "42", view.Messages[0].Answer)
	assert.Equal(t, "two", view.Messages[1].Question)
	assert.Equal(t, "second answer", view.Messages[1].Answer)
	assert.Equal(t, "three", view.Messages[2].Question)
	assert.Equal(t, "third answer", view.Messages[2].Answer)
	assert.Equal(t, "one", view.Name)
}

func TestConversationOwnership(t *testing.T) {
	env, owner := configuredEnv(t)
	ctx := context.Background()

	id, err := env.chat.NewChat(ctx, owner, "private")
	require.NoError(t, err)

	require.NoError(t, env.users.Create(ctx, &model.User{ID: "u2", Email: "bob@example.com", Role: model.RoleCoworker, OrganizationID: "u1"}))
	other := session.Principal{ID: "u2", Email: "bob@example.com"}

	_, err = env.chat.GetConversation(ctx, other, id)
	assert.ErrorIs(t, err, ErrNotFound)

	calls := len(env.completer.calls)
	err = env.chat.Chat(ctx, other, id, "let me in")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, env.completer.calls, calls)

	_, err = env.chat.GetConversation(ctx, owner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("malformed conversation of another user", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, env.conversations.Create(ctx, &model.Conversation{
			ID:        "broken",
			UserID:    "u2",
			Name:      "msg_YnJva2Vu",
			Messages:  datatypes.JSON(`{"bad":1}`),
			CreatedAt: now,
			UpdatedAt: now,
		}))

		_, err := env.chat.GetConversation(ctx, owner, "broken")
		assert.ErrorIs(t, err, ErrNotFound)

		calls := len(env.completer.calls)
		err = env.chat.Chat(ctx, owner, "broken", "hello?")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, env.completer.calls, calls)

		_, err = env.chat.GetConversation(ctx, other, "broken")
		assert.ErrorIs(t, err, ErrMalformedMessages)
	})
}

func TestListConversations(t *testing.T) {
	env, p := configuredEnv(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"msg_Zmlyc3Q=", "legacy plain name"} {
		require.NoError(t, env.conversations.Create(ctx, &model.Conversation{
			ID:        name,
			UserID:    p.ID,
			Name:      name,
			Messages:  datatypes.JSON(`[]`),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := env.chat.ListConversations(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "legacy plain name", list[0].Name)
	assert.Equal(t, "first", list[1].Name)
}

func TestAppendTurn(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	ctx := context.Background()

	t.Run("unknown conversation", func(t *testing.T) {
		err := env.store.AppendTurn(ctx, "missing", "q", "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	malformed := map[string]string{
		"not a list":      `{"id":"a"}`,
		"missing answer":  `[{"id":"a","question":"q"}]`,
		"wrong type":      `[{"id":1,"question":"q","answer":"a"}]`,
		"null":            `null`,
		"null element":    `[null]`,
		"string elements": `["a"]`,
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			id := "bad-" + name
			require.NoError(t, env.conversations.Create(ctx, &model.Conversation{
				ID: id, UserID: "u1", Messages: datatypes.JSON(raw),
			}))
			err := env.store.AppendTurn(ctx, id, "q", "a")
			assert.ErrorIs(t, err, ErrMalformedMessages)
		})
	}
}
