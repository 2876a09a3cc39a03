package usecases

import (
	"time"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// MethodDTO is the API representation of an authentication method. Variant
// payloads are reduced to a masked target; secrets never leave the domain.
type MethodDTO struct {
	ID           string     `json:"id"`
	Variant      string     `json:"variant"`
	DisplayName  string     `json:"display_name"`
	Target       string     `json:"target,omitempty"`
	Enabled      bool       `json:"enabled"`
	Verified     bool       `json:"verified"`
	Configured   bool       `json:"configured"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toMethodDTO(m *authmethod.Method) MethodDTO {
	dto := MethodDTO{
		ID:          m.SID(),
		Variant:     string(m.Variant()),
		DisplayName: m.DisplayName(),
		Enabled:     m.Enabled(),
		Verified:    m.Verified(),
		Configured:  m.IsConfigured(),
		LastUsedAt:  m.LastUsedAt(),
		CreatedAt:   m.CreatedAt(),
	}

	payload := m.Payload()
	switch m.Variant() {
	case authmethod.VariantSMSOTP:
		if payload.SMSOTP != nil {
			dto.Target = utils.MaskPhone(payload.SMSOTP.PhoneNumber)
		}
	case authmethod.VariantEmailOTP:
		if payload.EmailOTP != nil {
			dto.Target = utils.MaskEmail(payload.EmailOTP.EmailAddress)
		}
	case authmethod.VariantPush:
		if payload.Push != nil {
			dto.Target = payload.Push.DeviceName
		}
	}

	return dto
}

func toMethodDTOs(methods []*authmethod.Method) []MethodDTO {
	dtos := make([]MethodDTO, 0, len(methods))
	for _, m := range methods {
		dtos = append(dtos, toMethodDTO(m))
	}
	return dtos
}
