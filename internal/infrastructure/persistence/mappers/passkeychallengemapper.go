package mappers

import (
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
)

// PasskeyChallengeMapper handles the conversion between domain entities and
// persistence models
type PasskeyChallengeMapper interface {
	ToEntity(model *models.PasskeyChallengeModel) (*passkey.Challenge, error)
	ToModel(entity *passkey.Challenge) *models.PasskeyChallengeModel
}

// PasskeyChallengeMapperImpl is the concrete implementation of PasskeyChallengeMapper
type PasskeyChallengeMapperImpl struct{}

// NewPasskeyChallengeMapper creates a new passkey challenge mapper
func NewPasskeyChallengeMapper() PasskeyChallengeMapper {
	return &PasskeyChallengeMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *PasskeyChallengeMapperImpl) ToEntity(model *models.PasskeyChallengeModel) (*passkey.Challenge, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := passkey.ReconstructChallenge(
		model.ID,
		model.SID,
		model.Value,
		model.UserID,
		passkey.Purpose(model.Purpose),
		model.SessionID,
		model.Used,
		model.UsedAt,
		model.CreatedAt,
		model.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct challenge entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *PasskeyChallengeMapperImpl) ToModel(entity *passkey.Challenge) *models.PasskeyChallengeModel {
	if entity == nil {
		return nil
	}

	return &models.PasskeyChallengeModel{
		ID:        entity.ID(),
		SID:       entity.SID(),
		Value:     entity.Value(),
		UserID:    entity.UserID(),
		Purpose:   string(entity.Purpose()),
		SessionID: entity.SessionID(),
		Used:      entity.Used(),
		UsedAt:    entity.UsedAt(),
		CreatedAt: entity.CreatedAt(),
		ExpiresAt: entity.ExpiresAt(),
	}
}
