package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chonkitauth "github.com/custodia-labs/chonkit/internal/adapters/driven/auth"
	"github.com/custodia-labs/chonkit/internal/core/domain"
)

// fakeCredentialStore is an in-memory driven.CredentialStore for testing the
// bootstrap decision logic without a database.
type fakeCredentialStore struct {
	hash    string
	hasHash bool
	setErr  error
}

func (f *fakeCredentialStore) GetAPIKeyHash(ctx context.Context) (string, error) {
	if !f.hasHash {
		return "", domain.ErrNotFound
	}
	return f.hash, nil
}

func (f *fakeCredentialStore) SetAPIKeyHash(ctx context.Context, hash string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.hash = hash
	f.hasHash = true
	return nil
}

func TestServices_BootstrapAPIKey_NoopWhenKeyEmpty(t *testing.T) {
	creds := &fakeCredentialStore{}
	s := &Services{Credentials: creds, Auth: chonkitauth.NewAdapter("secret")}

	require.NoError(t, s.BootstrapAPIKey(context.Background(), ""))
	assert.False(t, creds.hasHash)
}

func TestServices_BootstrapAPIKey_ProvisionsWhenMissing(t *testing.T) {
	creds := &fakeCredentialStore{}
	s := &Services{Credentials: creds, Auth: chonkitauth.NewAdapter("secret")}

	require.NoError(t, s.BootstrapAPIKey(context.Background(), "initial-key"))
	require.True(t, creds.hasHash)
	assert.True(t, s.Auth.VerifyAPIKey("initial-key", creds.hash))
}

func TestServices_BootstrapAPIKey_SkipsWhenAlreadyProvisioned(t *testing.T) {
	creds := &fakeCredentialStore{hash: "existing-hash", hasHash: true}
	s := &Services{Credentials: creds, Auth: chonkitauth.NewAdapter("secret")}

	require.NoError(t, s.BootstrapAPIKey(context.Background(), "another-key"))
	assert.Equal(t, "existing-hash", creds.hash)
}

func TestServices_BootstrapAPIKey_PropagatesSetErr(t *testing.T) {
	creds := &fakeCredentialStore{setErr: errors.New("write failed")}
	s := &Services{Credentials: creds, Auth: chonkitauth.NewAdapter("secret")}

	err := s.BootstrapAPIKey(context.Background(), "initial-key")
	require.Error(t, err)
}

func TestServices_Close_NilSafe(t *testing.T) {
	s := &Services{}
	assert.NoError(t, s.Close())
}
