package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/mappers"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// OTPCodeRepository implements the one-time code repository interface
type OTPCodeRepository struct {
	db     *gorm.DB
	mapper mappers.OTPCodeMapper
	logger logger.Interface
}

// NewOTPCodeRepository creates a new one-time code repository
func NewOTPCodeRepository(db *gorm.DB, logger logger.Interface) otp.Repository {
	return &OTPCodeRepository{
		db:     db,
		mapper: mappers.NewOTPCodeMapper(),
		logger: logger,
	}
}

// Create creates a new code record
func (r *OTPCodeRepository) Create(ctx context.Context, code *otp.Code) error {
	model := r.mapper.ToModel(code)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create code in database", "error", err)
		return fmt.Errorf("failed to create code: %w", err)
	}

	if err := code.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set code ID", "error", err)
		return fmt.Errorf("failed to set code ID: %w", err)
	}

	return nil
}

// FindActive retrieves the newest unconsumed, unexpired code for the target
// and purpose
func (r *OTPCodeRepository) FindActive(ctx context.Context, target string, purpose otp.Purpose, now time.Time) (*otp.Code, error) {
	var model models.OTPCodeModel

	if err := r.db.WithContext(ctx).
		Where("target = ? AND purpose = ? AND verified = ? AND expires_at > ? AND attempts < max_attempts",
			target, string(purpose), false, now).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get active code", "error", err)
		return nil, fmt.Errorf("failed to get active code: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// FindLatest retrieves the newest code for the target and purpose regardless
// of state
func (r *OTPCodeRepository) FindLatest(ctx context.Context, target string, purpose otp.Purpose) (*otp.Code, error) {
	var model models.OTPCodeModel

	if err := r.db.WithContext(ctx).
		Where("target = ? AND purpose = ?", target, string(purpose)).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get latest code", "error", err)
		return nil, fmt.Errorf("failed to get latest code: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// CountIssuedSince counts codes issued to the target across all purposes
// after the given instant
func (r *OTPCodeRepository) CountIssuedSince(ctx context.Context, target string, since time.Time) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).
		Model(&models.OTPCodeModel{}).
		Where("target = ? AND created_at > ?", target, since).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count issued codes", "error", err)
		return 0, fmt.Errorf("failed to count issued codes: %w", err)
	}

	return count, nil
}

// IncrementAttempts records one failed candidate with a write conditional on
// the stored attempt count
func (r *OTPCodeRepository) IncrementAttempts(ctx context.Context, id uint, fromAttempts int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OTPCodeModel{}).
		Where("id = ? AND attempts = ?", id, fromAttempts).
		Update("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		r.logger.Errorw("failed to increment code attempts", "id", id, "error", result.Error)
		return false, fmt.Errorf("failed to increment code attempts: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkVerified consumes the code with a write conditional on it being
// unconsumed
func (r *OTPCodeRepository) MarkVerified(ctx context.Context, id uint, consumedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OTPCodeModel{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"consumed_at": consumedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to mark code verified", "id", id, "error", result.Error)
		return false, fmt.Errorf("failed to mark code verified: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// InvalidateActive supersedes all active codes for the target and purpose,
// except the replacement, by moving their deadline to now
func (r *OTPCodeRepository) InvalidateActive(ctx context.Context, target string, purpose otp.Purpose, exceptID uint, now time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.OTPCodeModel{}).
		Where("target = ? AND purpose = ? AND verified = ? AND expires_at > ? AND id <> ?",
			target, string(purpose), false, now, exceptID).
		Update("expires_at", now).Error; err != nil {
		r.logger.Errorw("failed to invalidate active codes", "error", err)
		return fmt.Errorf("failed to invalidate active codes: %w", err)
	}

	return nil
}

// DeleteExpired removes codes whose deadline passed before cutoff
func (r *OTPCodeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.OTPCodeModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired codes", "error", result.Error)
		return 0, fmt.Errorf("failed to delete expired codes: %w", result.Error)
	}

	return result.RowsAffected, nil
}
