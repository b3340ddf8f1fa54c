package model

import "time"

// Organization groups one admin and any number of coworkers and holds the
// upstream credentials they share. Empty encrypted fields mean the admin has
// not saved credentials yet.
type Organization struct {
	ID                     string    `gorm:"primaryKey;size:128" json:"id"`
	Name                   string    `gorm:"size:255;not null" json:"name"`
	AdminID                string    `gorm:"size:128;index" json:"admin_id"`
	EncryptedAzureAPIKey   string    `gorm:"column:encrypted_azure_api_key;type:text" json:"-"`
	EncryptedAzureEndpoint string    `gorm:"column:encrypted_azure_endpoint;type:text" json:"-"`
	CreatedAt              time.Time `json:"created_at"`
	LastUpdated            time.Time `json:"last_updated"`
}

func (o *Organization) HasCredentials() bool {
	return o.EncryptedAzureAPIKey != "" && o.EncryptedAzureEndpoint != ""
}
