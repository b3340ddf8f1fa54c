package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orgchat/internal/model"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) CreateIfAbsent(ctx context.Context, org *model.Organization) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(org).Error
	if err != nil {
		return fmt.Errorf("create organization if absent failed: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query organization by id failed: %w", err)
	}
	return &org, nil
}

// UpdateCredentials overwrites both encoded credential fields. It reports
// false when no organization has the id.
func (r *OrganizationRepository) UpdateCredentials(ctx context.Context, id, encryptedAPIKey, encryptedEndpoint string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"encrypted_azure_api_key":  encryptedAPIKey,
			"encrypted_azure_endpoint": encryptedEndpoint,
			"last_updated":             at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("update organization credentials failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *OrganizationRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Organization{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list organization ids failed: %w", err)
	}
	return ids, nil
}
