package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	recoveryusecases "github.com/veridian-id/veridian/internal/application/recoveryflow/usecases"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// UserDirectory resolves account emails from the users table. The recovery
// flow only reads accounts, so this is the whole surface.
type UserDirectory struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserDirectory creates a new user directory
func NewUserDirectory(db *gorm.DB, logger logger.Interface) recoveryusecases.UserDirectory {
	return &UserDirectory{db: db, logger: logger}
}

// FindByEmail resolves an account by email, returning (nil, nil) for unknown
// addresses
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*recoveryusecases.UserAccount, error) {
	var model models.UserModel

	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		d.logger.Errorw("failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &recoveryusecases.UserAccount{ID: model.ID, Email: model.Email}, nil
}
