package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/mappers"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// AuthMethodRepository implements the authentication method repository interface
type AuthMethodRepository struct {
	db     *gorm.DB
	mapper mappers.AuthMethodMapper
	logger logger.Interface
}

// NewAuthMethodRepository creates a new authentication method repository
func NewAuthMethodRepository(db *gorm.DB, logger logger.Interface) authmethod.Repository {
	return &AuthMethodRepository{
		db:     db,
		mapper: mappers.NewAuthMethodMapper(),
		logger: logger,
	}
}

// Create creates a new authentication method
func (r *AuthMethodRepository) Create(ctx context.Context, method *authmethod.Method) error {
	model, err := r.mapper.ToModel(method)
	if err != nil {
		r.logger.Errorw("failed to map method entity to model", "error", err)
		return fmt.Errorf("failed to map method entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create method in database", "error", err)
		return fmt.Errorf("failed to create method: %w", err)
	}

	if err := method.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set method ID", "error", err)
		return fmt.Errorf("failed to set method ID: %w", err)
	}

	r.logger.Infow("method created successfully", "id", model.ID, "user_id", model.UserID, "variant", model.Variant)
	return nil
}

// Update updates an existing authentication method
func (r *AuthMethodRepository) Update(ctx context.Context, method *authmethod.Method) error {
	model, err := r.mapper.ToModel(method)
	if err != nil {
		r.logger.Errorw("failed to map method entity to model", "error", err)
		return fmt.Errorf("failed to map method entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update method in database", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update method: %w", err)
	}

	return nil
}

// FindBySID retrieves a method by external SID (am_xxx)
func (r *AuthMethodRepository) FindBySID(ctx context.Context, sid string) (*authmethod.Method, error) {
	var model models.AuthMethodModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get method by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get method: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// FindByUserID retrieves all methods for a user
func (r *AuthMethodRepository) FindByUserID(ctx context.Context, userID uint) ([]*authmethod.Method, error) {
	var methodModels []*models.AuthMethodModel

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&methodModels).Error; err != nil {
		r.logger.Errorw("failed to get methods by user ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get methods: %w", err)
	}

	return r.mapper.ToEntities(methodModels)
}

// FindByUserIDAndVariant retrieves a user's methods of one variant
func (r *AuthMethodRepository) FindByUserIDAndVariant(ctx context.Context, userID uint, variant authmethod.Variant) ([]*authmethod.Method, error) {
	var methodModels []*models.AuthMethodModel

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND variant = ?", userID, string(variant)).
		Order("created_at ASC").
		Find(&methodModels).Error; err != nil {
		r.logger.Errorw("failed to get methods by user ID and variant", "user_id", userID, "variant", variant, "error", err)
		return nil, fmt.Errorf("failed to get methods: %w", err)
	}

	return r.mapper.ToEntities(methodModels)
}

// FindByCredentialID resolves a passkey method by WebAuthn credential ID
func (r *AuthMethodRepository) FindByCredentialID(ctx context.Context, credentialID []byte) (*authmethod.Method, error) {
	var model models.AuthMethodModel

	if err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get method by credential ID", "error", err)
		return nil, fmt.Errorf("failed to get method: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// ExistsByUserVariantTarget checks whether the user already enrolled the
// same target under the same variant
func (r *AuthMethodRepository) ExistsByUserVariantTarget(ctx context.Context, userID uint, variant authmethod.Variant, targetKey string) (bool, error) {
	var count int64

	if err := r.db.WithContext(ctx).
		Model(&models.AuthMethodModel{}).
		Where("user_id = ? AND variant = ? AND target_key = ?", userID, string(variant), targetKey).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check method existence", "user_id", userID, "variant", variant, "error", err)
		return false, fmt.Errorf("failed to check method existence: %w", err)
	}

	return count > 0, nil
}

// Delete deletes a method by internal ID
func (r *AuthMethodRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.AuthMethodModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete method", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete method: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warnw("method not found for deletion", "id", id)
		return nil
	}

	r.logger.Infow("method deleted successfully", "id", id)
	return nil
}
