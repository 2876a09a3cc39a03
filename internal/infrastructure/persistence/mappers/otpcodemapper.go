package mappers

import (
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
)

// OTPCodeMapper handles the conversion between domain entities and
// persistence models
type OTPCodeMapper interface {
	ToEntity(model *models.OTPCodeModel) (*otp.Code, error)
	ToModel(entity *otp.Code) *models.OTPCodeModel
}

// OTPCodeMapperImpl is the concrete implementation of OTPCodeMapper
type OTPCodeMapperImpl struct{}

// NewOTPCodeMapper creates a new one-time code mapper
func NewOTPCodeMapper() OTPCodeMapper {
	return &OTPCodeMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *OTPCodeMapperImpl) ToEntity(model *models.OTPCodeModel) (*otp.Code, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := otp.ReconstructCode(
		model.ID,
		model.SID,
		model.UserID,
		model.Target,
		otp.Channel(model.Channel),
		otp.Purpose(model.Purpose),
		model.Salt,
		model.CodeHash,
		model.Attempts,
		model.MaxAttempts,
		model.Verified,
		model.ConsumedAt,
		model.CreatedAt,
		model.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct code entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *OTPCodeMapperImpl) ToModel(entity *otp.Code) *models.OTPCodeModel {
	if entity == nil {
		return nil
	}

	return &models.OTPCodeModel{
		ID:          entity.ID(),
		SID:         entity.SID(),
		UserID:      entity.UserID(),
		Target:      entity.Target(),
		Channel:     string(entity.Channel()),
		Purpose:     string(entity.Purpose()),
		Salt:        entity.Salt(),
		CodeHash:    entity.CodeHash(),
		Attempts:    entity.Attempts(),
		MaxAttempts: entity.MaxAttempts(),
		Verified:    entity.Verified(),
		ConsumedAt:  entity.ConsumedAt(),
		CreatedAt:   entity.CreatedAt(),
		ExpiresAt:   entity.ExpiresAt(),
	}
}
