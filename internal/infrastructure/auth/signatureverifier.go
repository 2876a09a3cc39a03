package auth

import (
	"crypto/sha256"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// WebAuthnSignatureVerifier checks assertion signatures against stored COSE
// public keys. The signed payload is authenticatorData concatenated with
// SHA-256(clientDataJSON), per the WebAuthn assertion procedure.
type WebAuthnSignatureVerifier struct{}

func NewWebAuthnSignatureVerifier() *WebAuthnSignatureVerifier {
	return &WebAuthnSignatureVerifier{}
}

func (v *WebAuthnSignatureVerifier) Verify(publicKey, authenticatorData, clientDataJSON, signature []byte) error {
	key, err := webauthncose.ParsePublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	clientDataHash := sha256.Sum256(clientDataJSON)
	signed := make([]byte, 0, len(authenticatorData)+len(clientDataHash))
	signed = append(signed, authenticatorData...)
	signed = append(signed, clientDataHash[:]...)

	valid, err := webauthncose.VerifySignature(key, signed, signature)
	if err != nil {
		return fmt.Errorf("failed to verify signature: %w", err)
	}
	if !valid {
		return fmt.Errorf("signature mismatch")
	}

	return nil
}
