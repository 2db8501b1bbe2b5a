package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

type profiles map[string]authsdk.Profile

func (p profiles) GetProfile(_ context.Context, userID string) (authsdk.Profile, error) {
	if userID == "broken" {
		return authsdk.Profile{}, errors.New("db unavailable")
	}
	prof, ok := p[userID]
	if !ok {
		return authsdk.Profile{}, session.ErrProfileNotFound
	}
	return prof, nil
}

func newKeys(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(jwtx.Options{Issuer: "petbook", Audience: []string{"petbook-api"}, NumKeys: 1})
	require.NoError(t, err)
	return km
}

func accessToken(t *testing.T, km *jwtx.KeyManager, sub string) string {
	t.Helper()
	tok, err := km.Sign(jwtx.NewAccessClaims(sub, "sid-1", sub+"@petbook.com.br", "petbook", []string{"petbook-api"}, time.Minute, time.Now()))
	require.NoError(t, err)
	return tok
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	km := newKeys(t)
	var gotSub string
	h := httpx.AuthnMiddleware(km.Verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/user", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, km, "u1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "u1", gotSub)
	})

	for name, header := range map[string]string{
		"missing": "",
		"basic":   "Basic dXNlcjpwYXNz",
		"garbage": "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/user", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
			require.Contains(t, rec.Body.String(), authsdk.ErrorCodeInvalidToken)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	km := newKeys(t)
	src := profiles{
		"owner":   {UserID: "owner", ShopID: "s1", Role: "owner"},
		"groomer": {UserID: "groomer", ShopID: "s1", Role: "groomer"},
	}

	var seen *session.User
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}),
		httpx.AuthnMiddleware(km.Verifier),
		httpx.EnrichMiddleware(session.NewEnricher(src)),
		httpx.RequirePermission(rbac.ManageSettings),
	)

	do := func(sub string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/v1/shop", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, km, sub))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("owner")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, rbac.RoleOwner, seen.Role)
	require.Equal(t, "s1", seen.ShopID)

	rec = do("groomer")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "manage_settings")

	rec = do("newcomer")
	require.Equal(t, http.StatusForbidden, rec.Code, "no profile means attendant without permissions")

	rec = do("broken")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), authsdk.ErrorCodeUnavailable)
}

func TestGuardWithoutEnrichment(t *testing.T) {
	t.Parallel()

	h := httpx.Guard(guard.Requirements{Role: rbac.RoleOwner})(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/shop", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.SecurityHeaders(true)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	require.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	require.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
	require.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	httpx.SecurityHeaders(false)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}

	decode := func(ct, payload string) (body, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		var b body
		err := httpx.DecodeJSON(req, &b)
		return b, err
	}

	b, err := decode("application/json; charset=utf-8", `{"name":"Rex"}`)
	require.NoError(t, err)
	require.Equal(t, "Rex", b.Name)

	_, err = decode("application/json", `{"name":"Rex","extra":1}`)
	require.Error(t, err)

	_, err = decode("application/json", `{"name":"Rex"}{"name":"Bob"}`)
	require.Error(t, err)

	_, err = decode("text/plain", `{"name":"Rex"}`)
	require.Error(t, err)
}
