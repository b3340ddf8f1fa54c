package app

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"orgchat/internal/model"
)

// UserStore is satisfied by repository.UserRepository. Lookups return nil, nil
// when the user does not exist.
type UserStore interface {
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetOrganizationID(ctx context.Context, id, organizationID string) error
	Promote(ctx context.Context, id string) error
	ListByOrganizationAndRole(ctx context.Context, organizationID, role string) ([]model.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	ListOrganizationIDs(ctx context.Context) ([]string, error)
}

type OrganizationStore interface {
	CreateIfAbsent(ctx context.Context, org *model.Organization) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	UpdateCredentials(ctx context.Context, id, encryptedAPIKey, encryptedEndpoint string, at time.Time) (bool, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Conversation, error)
	ReplaceMessages(ctx context.Context, id string, messages datatypes.JSON, at time.Time) (bool, error)
}
