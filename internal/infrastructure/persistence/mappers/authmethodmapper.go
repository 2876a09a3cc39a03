package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/mapper"
)

// AuthMethodMapper handles the conversion between domain entities and
// persistence models
type AuthMethodMapper interface {
	ToEntity(model *models.AuthMethodModel) (*authmethod.Method, error)
	ToModel(entity *authmethod.Method) (*models.AuthMethodModel, error)
	ToEntities(models []*models.AuthMethodModel) ([]*authmethod.Method, error)
}

// AuthMethodMapperImpl is the concrete implementation of AuthMethodMapper
type AuthMethodMapperImpl struct{}

// NewAuthMethodMapper creates a new authentication method mapper
func NewAuthMethodMapper() AuthMethodMapper {
	return &AuthMethodMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *AuthMethodMapperImpl) ToEntity(model *models.AuthMethodModel) (*authmethod.Method, error) {
	if model == nil {
		return nil, nil
	}

	payload, err := authmethod.UnmarshalPayload(model.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal method payload: %w", err)
	}

	entity, err := authmethod.ReconstructMethod(
		model.ID,
		model.SID,
		model.UserID,
		authmethod.Variant(model.Variant),
		model.DisplayName,
		model.Enabled,
		model.Verified,
		payload,
		model.LastUsedAt,
		model.LastVerifiedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct method entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *AuthMethodMapperImpl) ToModel(entity *authmethod.Method) (*models.AuthMethodModel, error) {
	if entity == nil {
		return nil, nil
	}

	payloadJSON, err := authmethod.MarshalPayload(entity.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal method payload: %w", err)
	}

	// The passkey credential ID is lifted into its own column so sign-ins
	// can resolve a credential without scanning payloads
	var credentialID []byte
	if entity.Variant() == authmethod.VariantPasskey && entity.Payload().Passkey != nil {
		credentialID = entity.Payload().Passkey.CredentialID
	}

	model := &models.AuthMethodModel{
		ID:             entity.ID(),
		SID:            entity.SID(),
		UserID:         entity.UserID(),
		Variant:        string(entity.Variant()),
		TargetKey:      entity.TargetKey(),
		DisplayName:    entity.DisplayName(),
		Enabled:        entity.Enabled(),
		Verified:       entity.Verified(),
		Payload:        datatypes.JSON(payloadJSON),
		CredentialID:   credentialID,
		LastUsedAt:     entity.LastUsedAt(),
		LastVerifiedAt: entity.LastVerifiedAt(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}

	return model, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *AuthMethodMapperImpl) ToEntities(modelList []*models.AuthMethodModel) ([]*authmethod.Method, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.AuthMethodModel) uint { return model.ID })
}
