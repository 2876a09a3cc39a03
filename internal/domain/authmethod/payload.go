package authmethod

import (
	"encoding/json"
	"fmt"
)

// TOTPPayload holds the configuration for a TOTP method.
type TOTPPayload struct {
	EncryptedSecret string `json:"encrypted_secret"`
	Algorithm       string `json:"algorithm,omitempty"`
	Digits          int    `json:"digits,omitempty"`
	PeriodSeconds   int    `json:"period_seconds,omitempty"`
}

// PasskeyPayload holds the credential material for a passkey method.
type PasskeyPayload struct {
	CredentialID []byte   `json:"credential_id"`
	PublicKey    []byte   `json:"public_key"`
	SignCount    uint32   `json:"sign_count"`
	AAGUID       []byte   `json:"aaguid,omitempty"`
	Transports   []string `json:"transports,omitempty"`
}

// SMSOTPPayload holds the delivery target for an SMS OTP method.
type SMSOTPPayload struct {
	PhoneNumber string `json:"phone_number"`
	CountryCode string `json:"country_code,omitempty"`
}

// EmailOTPPayload holds the delivery target for an email OTP method.
type EmailOTPPayload struct {
	EmailAddress string `json:"email_address"`
}

// PushPayload holds the push subscription for a push method.
type PushPayload struct {
	Endpoint       string `json:"endpoint"`
	P256DH         string `json:"p256dh"`
	AuthSecret     string `json:"auth_secret"`
	DeviceName     string `json:"device_name,omitempty"`
	FailedAttempts int    `json:"failed_attempts,omitempty"`
}

// Payload is the variant-specific configuration of a method. Exactly one
// field matching the method's variant is set.
type Payload struct {
	TOTP     *TOTPPayload     `json:"totp,omitempty"`
	Passkey  *PasskeyPayload  `json:"passkey,omitempty"`
	SMSOTP   *SMSOTPPayload   `json:"sms_otp,omitempty"`
	EmailOTP *EmailOTPPayload `json:"email_otp,omitempty"`
	Push     *PushPayload     `json:"push,omitempty"`
}

// Validate checks that the payload carries exactly the section for the given
// variant and that the section's required fields are present.
func (p Payload) Validate(variant Variant) error {
	switch variant {
	case VariantTOTP:
		if p.TOTP == nil {
			return fmt.Errorf("totp payload is required")
		}
		if p.TOTP.EncryptedSecret == "" {
			return fmt.Errorf("totp encrypted secret is required")
		}
	case VariantPasskey:
		if p.Passkey == nil {
			return fmt.Errorf("passkey payload is required")
		}
		if len(p.Passkey.CredentialID) == 0 {
			return fmt.Errorf("passkey credential ID is required")
		}
		if len(p.Passkey.PublicKey) == 0 {
			return fmt.Errorf("passkey public key is required")
		}
	case VariantSMSOTP:
		if p.SMSOTP == nil {
			return fmt.Errorf("sms payload is required")
		}
		if p.SMSOTP.PhoneNumber == "" {
			return fmt.Errorf("sms phone number is required")
		}
	case VariantEmailOTP:
		if p.EmailOTP == nil {
			return fmt.Errorf("email payload is required")
		}
		if p.EmailOTP.EmailAddress == "" {
			return fmt.Errorf("email address is required")
		}
	case VariantPush:
		if p.Push == nil {
			return fmt.Errorf("push payload is required")
		}
		if p.Push.Endpoint == "" {
			return fmt.Errorf("push endpoint is required")
		}
		if p.Push.P256DH == "" || p.Push.AuthSecret == "" {
			return fmt.Errorf("push subscription keys are required")
		}
	default:
		return fmt.Errorf("unknown variant: %s", variant)
	}
	return nil
}

// TargetKey returns the value that makes a method unique within
// (user, variant): the delivery target or credential identity. Variants
// without a natural target return the empty string, which limits the user
// to a single method of that variant per target row.
func (p Payload) TargetKey(variant Variant) string {
	switch variant {
	case VariantSMSOTP:
		if p.SMSOTP != nil {
			return p.SMSOTP.PhoneNumber
		}
	case VariantEmailOTP:
		if p.EmailOTP != nil {
			return p.EmailOTP.EmailAddress
		}
	case VariantPasskey:
		if p.Passkey != nil {
			return string(p.Passkey.CredentialID)
		}
	case VariantPush:
		if p.Push != nil {
			return p.Push.Endpoint
		}
	}
	return ""
}

// MarshalPayload serializes a payload for storage.
func MarshalPayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal method payload: %w", err)
	}
	return data, nil
}

// UnmarshalPayload deserializes a stored payload.
func UnmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal method payload: %w", err)
	}
	return p, nil
}
