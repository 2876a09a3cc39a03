package authmethod

import "context"

// Repository defines persistence operations for authentication methods.
// Find methods return (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, method *Method) error
	Update(ctx context.Context, method *Method) error
	FindBySID(ctx context.Context, sid string) (*Method, error)
	FindByUserID(ctx context.Context, userID uint) ([]*Method, error)
	FindByUserIDAndVariant(ctx context.Context, userID uint, variant Variant) ([]*Method, error)
	// FindByCredentialID resolves a passkey method from its WebAuthn
	// credential ID across all users, via an indexed point query.
	FindByCredentialID(ctx context.Context, credentialID []byte) (*Method, error)
	ExistsByUserVariantTarget(ctx context.Context, userID uint, variant Variant, targetKey string) (bool, error)
	Delete(ctx context.Context, id uint) error
}
