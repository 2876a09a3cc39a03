package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/mappers"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// PasskeyChallengeRepository implements the passkey challenge repository interface
type PasskeyChallengeRepository struct {
	db     *gorm.DB
	mapper mappers.PasskeyChallengeMapper
	logger logger.Interface
}

// NewPasskeyChallengeRepository creates a new passkey challenge repository
func NewPasskeyChallengeRepository(db *gorm.DB, logger logger.Interface) passkey.Repository {
	return &PasskeyChallengeRepository{
		db:     db,
		mapper: mappers.NewPasskeyChallengeMapper(),
		logger: logger,
	}
}

// Create creates a new challenge
func (r *PasskeyChallengeRepository) Create(ctx context.Context, challenge *passkey.Challenge) error {
	model := r.mapper.ToModel(challenge)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create challenge in database", "error", err)
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := challenge.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set challenge ID", "error", err)
		return fmt.Errorf("failed to set challenge ID: %w", err)
	}

	return nil
}

// FindByValue retrieves a challenge by its base64url value
func (r *PasskeyChallengeRepository) FindByValue(ctx context.Context, value string) (*passkey.Challenge, error) {
	var model models.PasskeyChallengeModel

	if err := r.db.WithContext(ctx).Where("value = ?", value).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get challenge by value", "error", err)
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// ConsumeByValue marks the challenge used with a write conditional on it
// still being unused. False means a concurrent caller consumed it first.
func (r *PasskeyChallengeRepository) ConsumeByValue(ctx context.Context, value string, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PasskeyChallengeModel{}).
		Where("value = ? AND used = ?", value, false).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": usedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to consume challenge", "error", result.Error)
		return false, fmt.Errorf("failed to consume challenge: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// DeleteExpired removes challenges whose deadline passed before cutoff
func (r *PasskeyChallengeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", cutoff).
		Delete(&models.PasskeyChallengeModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired challenges", "error", result.Error)
		return 0, fmt.Errorf("failed to delete expired challenges: %w", result.Error)
	}

	return result.RowsAffected, nil
}
