package driven

import "context"

// CredentialStore persists the single bcrypt-hashed API key credential that
// guards the HTTP surface. There is exactly one credential row; Set replaces
// it.
type CredentialStore interface {
	// GetAPIKeyHash returns the current bcrypt hash, or ErrNotFound if no
	// credential has been provisioned yet.
	GetAPIKeyHash(ctx context.Context) (string, error)

	// SetAPIKeyHash replaces the stored hash.
	SetAPIKeyHash(ctx context.Context, hash string) error
}
