package mappers

import (
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/mapper"
)

// PushRequestMapper handles the conversion between domain entities and
// persistence models
type PushRequestMapper interface {
	ToEntity(model *models.PushRequestModel) (*pushauth.Request, error)
	ToModel(entity *pushauth.Request) *models.PushRequestModel
	ToEntities(models []*models.PushRequestModel) ([]*pushauth.Request, error)
}

// PushRequestMapperImpl is the concrete implementation of PushRequestMapper
type PushRequestMapperImpl struct{}

// NewPushRequestMapper creates a new push request mapper
func NewPushRequestMapper() PushRequestMapper {
	return &PushRequestMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *PushRequestMapperImpl) ToEntity(model *models.PushRequestModel) (*pushauth.Request, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := pushauth.ReconstructRequest(
		model.ID,
		model.SID,
		model.UserID,
		pushauth.Status(model.Status),
		pushauth.Purpose(model.Purpose),
		model.Challenge,
		pushauth.ClientContext{
			IP:        model.IP,
			UserAgent: model.UserAgent,
			Location:  model.Location,
		},
		model.NotificationsSent,
		model.ApprovedBySID,
		model.RecoverySID,
		model.RespondedAt,
		model.CreatedAt,
		model.ExpiresAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct push request entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *PushRequestMapperImpl) ToModel(entity *pushauth.Request) *models.PushRequestModel {
	if entity == nil {
		return nil
	}

	return &models.PushRequestModel{
		ID:                entity.ID(),
		SID:               entity.SID(),
		UserID:            entity.UserID(),
		Status:            string(entity.Status()),
		Purpose:           string(entity.Purpose()),
		Challenge:         entity.Challenge(),
		IP:                entity.ClientContext().IP,
		UserAgent:         entity.ClientContext().UserAgent,
		Location:          entity.ClientContext().Location,
		NotificationsSent: entity.NotificationsSent(),
		ApprovedBySID:     entity.ApprovedBySID(),
		RecoverySID:       entity.RecoverySID(),
		RespondedAt:       entity.RespondedAt(),
		CreatedAt:         entity.CreatedAt(),
		ExpiresAt:         entity.ExpiresAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities
func (m *PushRequestMapperImpl) ToEntities(modelList []*models.PushRequestModel) ([]*pushauth.Request, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.PushRequestModel) uint { return model.ID })
}
