package mappers

import (
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/mapper"
)

// RecoveryRequestMapper handles the conversion between domain entities and
// persistence models
type RecoveryRequestMapper interface {
	ToEntity(model *models.RecoveryRequestModel) (*recovery.Request, error)
	ToModel(entity *recovery.Request) *models.RecoveryRequestModel
	ToEntities(models []*models.RecoveryRequestModel) ([]*recovery.Request, error)
}

// RecoveryRequestMapperImpl is the concrete implementation of RecoveryRequestMapper
type RecoveryRequestMapperImpl struct{}

// NewRecoveryRequestMapper creates a new recovery request mapper
func NewRecoveryRequestMapper() RecoveryRequestMapper {
	return &RecoveryRequestMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *RecoveryRequestMapperImpl) ToEntity(model *models.RecoveryRequestModel) (*recovery.Request, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := recovery.ReconstructRequest(
		model.ID,
		model.SID,
		model.UserID,
		model.Email,
		recovery.Status(model.Status),
		model.EmailVerified,
		model.SMSVerified,
		model.MFARequired,
		model.PhoneNumber,
		model.PhoneHint,
		model.EmailAttempts,
		model.SMSAttempts,
		model.MaxStepAttempts,
		model.UsedForAuthentication,
		recovery.ClientContext{
			IP:        model.IP,
			UserAgent: model.UserAgent,
		},
		model.CompletedAt,
		model.CreatedAt,
		model.ExpiresAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct recovery request entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *RecoveryRequestMapperImpl) ToModel(entity *recovery.Request) *models.RecoveryRequestModel {
	if entity == nil {
		return nil
	}

	return &models.RecoveryRequestModel{
		ID:                    entity.ID(),
		SID:                   entity.SID(),
		UserID:                entity.UserID(),
		Email:                 entity.Email(),
		Status:                string(entity.Status()),
		EmailVerified:         entity.EmailVerified(),
		SMSVerified:           entity.SMSVerified(),
		MFARequired:           entity.MFARequired(),
		PhoneNumber:           entity.PhoneNumber(),
		PhoneHint:             entity.PhoneHint(),
		EmailAttempts:         entity.EmailAttempts(),
		SMSAttempts:           entity.SMSAttempts(),
		MaxStepAttempts:       entity.MaxStepAttempts(),
		UsedForAuthentication: entity.UsedForAuthentication(),
		IP:                    entity.ClientContext().IP,
		UserAgent:             entity.ClientContext().UserAgent,
		CompletedAt:           entity.CompletedAt(),
		CreatedAt:             entity.CreatedAt(),
		ExpiresAt:             entity.ExpiresAt(),
		UpdatedAt:             entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities
func (m *RecoveryRequestMapperImpl) ToEntities(modelList []*models.RecoveryRequestModel) ([]*recovery.Request, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.RecoveryRequestModel) uint { return model.ID })
}
