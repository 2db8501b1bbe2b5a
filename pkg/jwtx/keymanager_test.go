package jwtx_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewEphemeralKeyManager(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.Options{
		Issuer:   "petbook",
		Audience: []string{"petbook-api"},
		NumKeys:  3,
	})
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Equal(t, 3, km.NumSigners())
	require.Len(t, km.KeySet.PublicJWKS().Keys, 3)

	for _, k := range km.KeySet.PublicJWKS().Keys {
		require.True(t, strings.HasPrefix(k.Kid, "petbook-"))
		require.Equal(t, "OKP", k.Kty)
		require.Equal(t, jwtx.AlgorithmEdDSA, k.Alg)
	}
}

func TestNewEphemeralKeyManager_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("issuer required", func(t *testing.T) {
		_, err := jwtx.NewEphemeralKeyManager(jwtx.Options{})
		require.Error(t, err)
	})

	t.Run("num keys clamped", func(t *testing.T) {
		km, err := jwtx.NewEphemeralKeyManager(jwtx.Options{Issuer: "petbook", NumKeys: 50})
		require.NoError(t, err)
		require.Equal(t, 10, km.NumSigners())

		km, err = jwtx.NewEphemeralKeyManager(jwtx.Options{Issuer: "petbook"})
		require.NoError(t, err)
		require.Equal(t, 2, km.NumSigners())
	})
}

func TestKeyManager_SignAndVerify(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.Options{
		Issuer:   "petbook",
		Audience: []string{"petbook-api"},
	})
	require.NoError(t, err)

	now := time.Now()
	claims := jwtx.NewAccessClaims("user-1", "sid-1", "ana@example.com", "petbook", []string{"petbook-api"}, jwtx.DefaultAccessTokenTTL, now)

	token, err := km.Sign(claims)
	require.NoError(t, err)

	got, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sid-1", got.SID)
	require.Equal(t, "ana@example.com", got.Email)
}

type memKeyStore struct {
	mu   sync.Mutex
	keys []jwtx.SigningKeyRecord
}

func (m *memKeyStore) ListSigningKeys(context.Context) ([]jwtx.SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jwtx.SigningKeyRecord, len(m.keys))
	copy(out, m.keys)
	return out, nil
}

func (m *memKeyStore) CreateSigningKey(_ context.Context, key jwtx.SigningKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

func TestNewPersistentKeyManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memKeyStore{}
	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)

	opts := jwtx.Options{Issuer: "petbook", NumKeys: 2}

	km, err := jwtx.NewPersistentKeyManager(ctx, store, sealer, opts)
	require.NoError(t, err)
	require.Equal(t, 2, km.NumSigners())
	require.Len(t, store.keys, 2)

	token, err := km.Sign(jwtx.NewAccessClaims("user-1", "sid", "", "petbook", nil, time.Minute, time.Now()))
	require.NoError(t, err)

	t.Run("reload reuses stored keys", func(t *testing.T) {
		again, err := jwtx.NewPersistentKeyManager(ctx, store, sealer, opts)
		require.NoError(t, err)
		require.Len(t, store.keys, 2)

		_, err = again.Verifier.Verify(token)
		require.NoError(t, err)
	})

	t.Run("retired keys verify only", func(t *testing.T) {
		retired := time.Now()
		store.mu.Lock()
		store.keys[0].RetiredAt = &retired
		store.mu.Unlock()

		again, err := jwtx.NewPersistentKeyManager(ctx, store, sealer, opts)
		require.NoError(t, err)
		require.Equal(t, 2, again.NumSigners())
		require.Len(t, store.keys, 3)
		require.Len(t, again.KeySet.PublicJWKS().Keys, 3)
	})

	t.Run("wrong master key", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("another-key"))
		require.NoError(t, err)
		_, err = jwtx.NewPersistentKeyManager(ctx, store, other, opts)
		require.Error(t, err)
	})
}
