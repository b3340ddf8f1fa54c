package model

import "time"

const (
	RoleAdmin    = "admin"
	RoleCoworker = "coworker"
)

// User is keyed by the auth provider's identity. An empty OrganizationID
// marks a record that predates tenant bootstrap.
type User struct {
	ID             string    `gorm:"primaryKey;size:128" json:"id"`
	Email          string    `gorm:"size:255" json:"email"`
	Name           string    `gorm:"size:255" json:"name"`
	IsAdmin        bool      `gorm:"not null;default:false" json:"is_admin"`
	Role           string    `gorm:"size:16;not null;index" json:"role"`
	OrganizationID string    `gorm:"size:128;index" json:"organization_id"`
	InvitedBy      string    `gorm:"size:128" json:"invited_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
