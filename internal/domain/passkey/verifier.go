package passkey

// SignatureVerifier checks a WebAuthn assertion signature against a stored
// COSE public key. The signed payload is authenticatorData concatenated with
// SHA-256(clientDataJSON).
type SignatureVerifier interface {
	Verify(publicKey, authenticatorData, clientDataJSON, signature []byte) error
}
