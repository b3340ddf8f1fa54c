package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orgchat/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the user unless a row with the same id exists and
// reports whether it inserted. Of two concurrent inserts the first row wins.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, fmt.Errorf("create user if absent failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) SetOrganizationID(ctx context.Context, id, organizationID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("organization_id", organizationID).Error
	if err != nil {
		return fmt.Errorf("update user organization failed: %w", err)
	}
	return nil
}

func (r *UserRepository) Promote(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"role": model.RoleAdmin, "is_admin": true}).Error
	if err != nil {
		return fmt.Errorf("promote user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) ListByOrganizationAndRole(ctx context.Context, organizationID, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND role = ?", organizationID, role).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users by organization failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users failed: %w", err)
	}
	return n, nil
}

// ListOrganizationIDs returns the distinct non-empty organization ids users
// point at.
func (r *UserRepository) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("organization_id <> ''").
		Distinct().
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list user organization ids failed: %w", err)
	}
	return ids, nil
}
