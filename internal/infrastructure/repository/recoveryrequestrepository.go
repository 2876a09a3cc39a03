package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/mappers"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

var activeRecoveryStatuses = []string{
	string(recovery.StatusPendingEmail),
	string(recovery.StatusPendingSMS),
}

// RecoveryRequestRepository implements the recovery request repository interface
type RecoveryRequestRepository struct {
	db     *gorm.DB
	mapper mappers.RecoveryRequestMapper
	logger logger.Interface
}

// NewRecoveryRequestRepository creates a new recovery request repository
func NewRecoveryRequestRepository(db *gorm.DB, logger logger.Interface) recovery.Repository {
	return &RecoveryRequestRepository{
		db:     db,
		mapper: mappers.NewRecoveryRequestMapper(),
		logger: logger,
	}
}

// Create creates a new recovery request
func (r *RecoveryRequestRepository) Create(ctx context.Context, request *recovery.Request) error {
	model := r.mapper.ToModel(request)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create recovery request in database", "error", err)
		return fmt.Errorf("failed to create recovery request: %w", err)
	}

	if err := request.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set recovery request ID", "error", err)
		return fmt.Errorf("failed to set recovery request ID: %w", err)
	}

	return nil
}

// FindBySID retrieves a recovery request by external SID (rr_xxx)
func (r *RecoveryRequestRepository) FindBySID(ctx context.Context, sid string) (*recovery.Request, error) {
	var model models.RecoveryRequestModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get recovery request by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get recovery request: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// FindActiveByUserID retrieves a user's recovery requests that can still
// progress
func (r *RecoveryRequestRepository) FindActiveByUserID(ctx context.Context, userID uint) ([]*recovery.Request, error) {
	var requestModels []*models.RecoveryRequestModel

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, activeRecoveryStatuses).
		Order("created_at DESC").
		Find(&requestModels).Error; err != nil {
		r.logger.Errorw("failed to get active recovery requests", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get active recovery requests: %w", err)
	}

	return r.mapper.ToEntities(requestModels)
}

// Update persists entity changes that do not race with other writers
func (r *RecoveryRequestRepository) Update(ctx context.Context, request *recovery.Request) error {
	model := r.mapper.ToModel(request)

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update recovery request", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update recovery request: %w", err)
	}

	return nil
}

// CompleteOnce applies the COMPLETED transition with a write conditional on
// the row not yet being used for authentication. False means a concurrent
// caller already took the token.
func (r *RecoveryRequestRepository) CompleteOnce(ctx context.Context, request *recovery.Request) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RecoveryRequestModel{}).
		Where("id = ? AND used_for_authentication = ? AND status IN ?",
			request.ID(), false, activeRecoveryStatuses).
		Updates(map[string]interface{}{
			"status":                  string(recovery.StatusCompleted),
			"used_for_authentication": true,
			"completed_at":            request.CompletedAt(),
			"updated_at":              request.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to complete recovery request", "id", request.ID(), "error", result.Error)
		return false, fmt.Errorf("failed to complete recovery request: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// CancelActiveByUserID withdraws all active requests for the user
func (r *RecoveryRequestRepository) CancelActiveByUserID(ctx context.Context, userID uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RecoveryRequestModel{}).
		Where("user_id = ? AND status IN ?", userID, activeRecoveryStatuses).
		Updates(map[string]interface{}{
			"status":     string(recovery.StatusCancelled),
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to cancel active recovery requests", "user_id", userID, "error", result.Error)
		return 0, fmt.Errorf("failed to cancel active recovery requests: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// MarkExpiredBefore transitions overdue active requests to EXPIRED
func (r *RecoveryRequestRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RecoveryRequestModel{}).
		Where("status IN ? AND expires_at <= ?", activeRecoveryStatuses, cutoff).
		Updates(map[string]interface{}{
			"status":     string(recovery.StatusExpired),
			"updated_at": cutoff,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to expire recovery requests", "error", result.Error)
		return 0, fmt.Errorf("failed to expire recovery requests: %w", result.Error)
	}

	return result.RowsAffected, nil
}
