package utils

import "strings"

// MaskEmail masks an email address for safe logging.
// Example: "user@example.com" -> "u***@example.com"
func MaskEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	if len(local) <= 1 {
		return local + "***@" + parts[1]
	}
	return string(local[0]) + "***@" + parts[1]
}

// MaskPhone masks a phone number keeping only the last two digits.
// Example: "+15551234567" -> "*********67"
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return "***"
	}
	return strings.Repeat("*", len(phone)-2) + phone[len(phone)-2:]
}

// MaskTarget masks an OTP target, which is either an email address or an
// E.164 phone number.
func MaskTarget(target string) string {
	if strings.Contains(target, "@") {
		return MaskEmail(target)
	}
	return MaskPhone(target)
}

// MaskToken masks an opaque token or challenge value, keeping a short prefix
// so related log lines can be correlated.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:6] + "..."
}
