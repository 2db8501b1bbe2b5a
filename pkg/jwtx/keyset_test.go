package jwtx_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestKeySet(t *testing.T) {
	t.Parallel()

	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())

	s1 := newTestSigner(t, "k1")
	s2 := newTestSigner(t, "k2")
	require.NoError(t, ks.AddSigner(s1))
	require.NoError(t, ks.AddSigner(s2))
	require.True(t, ks.IsReady())

	_, err := ks.Get("k1")
	require.NoError(t, err)
	_, err = ks.Get("nope")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	t.Run("re-adding a kid replaces it", func(t *testing.T) {
		local := jwtx.NewKeySet()
		require.NoError(t, local.AddSigner(s1))
		require.NoError(t, local.AddSigner(newTestSigner(t, "k1")))
		require.Len(t, local.PublicJWKS().Keys, 1)
	})

	t.Run("reset from fetched jwks", func(t *testing.T) {
		raw, err := json.Marshal(ks.PublicJWKS())
		require.NoError(t, err)

		var fetched jwtx.JWKS
		require.NoError(t, json.Unmarshal(raw, &fetched))

		client := jwtx.NewKeySet()
		require.NoError(t, client.ResetFromJWKS(fetched))
		require.Len(t, client.PublicJWKS().Keys, 2)
		_, err = client.Get("k2")
		require.NoError(t, err)
	})

	t.Run("rejects foreign key types", func(t *testing.T) {
		err := ks.AddJWK(jwtx.JWK{Kty: "RSA", Kid: "rsa"})
		require.Error(t, err)
		err = ks.AddJWK(jwtx.JWK{Kty: "OKP", Crv: "X25519", Kid: "x"})
		require.Error(t, err)
	})
}

func TestJWK_PEM(t *testing.T) {
	t.Parallel()

	pemStr, err := newTestSigner(t, "k1").PublicJWK().PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
}
