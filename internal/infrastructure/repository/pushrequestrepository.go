package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/mappers"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// PushRequestRepository implements the push authentication request
// repository interface
type PushRequestRepository struct {
	db     *gorm.DB
	mapper mappers.PushRequestMapper
	logger logger.Interface
}

// NewPushRequestRepository creates a new push request repository
func NewPushRequestRepository(db *gorm.DB, logger logger.Interface) pushauth.Repository {
	return &PushRequestRepository{
		db:     db,
		mapper: mappers.NewPushRequestMapper(),
		logger: logger,
	}
}

// Create creates a new push request
func (r *PushRequestRepository) Create(ctx context.Context, request *pushauth.Request) error {
	model := r.mapper.ToModel(request)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create push request in database", "error", err)
		return fmt.Errorf("failed to create push request: %w", err)
	}

	if err := request.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set push request ID", "error", err)
		return fmt.Errorf("failed to set push request ID: %w", err)
	}

	return nil
}

// FindBySID retrieves a push request by external SID (pa_xxx)
func (r *PushRequestRepository) FindBySID(ctx context.Context, sid string) (*pushauth.Request, error) {
	var model models.PushRequestModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get push request by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get push request: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// FindPendingByUserID retrieves all PENDING requests for a user
func (r *PushRequestRepository) FindPendingByUserID(ctx context.Context, userID uint) ([]*pushauth.Request, error) {
	var requestModels []*models.PushRequestModel

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(pushauth.StatusPending)).
		Order("created_at ASC").
		Find(&requestModels).Error; err != nil {
		r.logger.Errorw("failed to get pending push requests", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get pending push requests: %w", err)
	}

	return r.mapper.ToEntities(requestModels)
}

// UpdateStatus applies the transition on the entity with a write conditional
// on the row still being PENDING. False means a concurrent responder won.
func (r *PushRequestRepository) UpdateStatus(ctx context.Context, request *pushauth.Request) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PushRequestModel{}).
		Where("id = ? AND status = ?", request.ID(), string(pushauth.StatusPending)).
		Updates(map[string]interface{}{
			"status":          string(request.Status()),
			"approved_by_sid": request.ApprovedBySID(),
			"responded_at":    request.RespondedAt(),
			"updated_at":      request.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update push request status", "id", request.ID(), "error", result.Error)
		return false, fmt.Errorf("failed to update push request status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// IncrementNotificationsSent bumps the dispatch counter
func (r *PushRequestRepository) IncrementNotificationsSent(ctx context.Context, id uint, now time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.PushRequestModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notifications_sent": gorm.Expr("notifications_sent + 1"),
			"updated_at":         now,
		}).Error; err != nil {
		r.logger.Errorw("failed to increment notifications sent", "id", id, "error", err)
		return fmt.Errorf("failed to increment notifications sent: %w", err)
	}

	return nil
}

// MarkExpiredBefore transitions overdue PENDING requests to EXPIRED
func (r *PushRequestRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PushRequestModel{}).
		Where("status = ? AND expires_at <= ?", string(pushauth.StatusPending), cutoff).
		Updates(map[string]interface{}{
			"status":     string(pushauth.StatusExpired),
			"updated_at": cutoff,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to expire push requests", "error", result.Error)
		return 0, fmt.Errorf("failed to expire push requests: %w", result.Error)
	}

	return result.RowsAffected, nil
}
