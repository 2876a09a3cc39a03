package authmethod

// Variant identifies the kind of authentication method.
type Variant string

const (
	VariantTOTP     Variant = "TOTP"
	VariantPasskey  Variant = "PASSKEY"
	VariantSMSOTP   Variant = "SMS_OTP"
	VariantEmailOTP Variant = "EMAIL_OTP"
	VariantPush     Variant = "PUSH"
)

// IsValid reports whether the variant is one of the known kinds.
func (v Variant) IsValid() bool {
	switch v {
	case VariantTOTP, VariantPasskey, VariantSMSOTP, VariantEmailOTP, VariantPush:
		return true
	}
	return false
}

// CountsTowardMFA reports whether an enabled and verified method of this
// variant satisfies the multi-factor requirement during account recovery.
func (v Variant) CountsTowardMFA() bool {
	switch v {
	case VariantTOTP, VariantPasskey, VariantSMSOTP:
		return true
	}
	return false
}
