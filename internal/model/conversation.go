package model

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation stores its turns as one JSON array that is rewritten on every
// append. Name, Question and Answer hold message-codec tokens.
type Conversation struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	UserID    string         `gorm:"size:128;not null;index" json:"user_id"`
	Name      string         `gorm:"type:text" json:"name"`
	Messages  datatypes.JSON `json:"messages"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Turn struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
