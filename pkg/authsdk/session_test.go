package authsdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal PetBook auth server.
type fakeAPI struct {
	mu        sync.Mutex
	expiresIn int
	refreshN  atomic.Int32
	revoked   []string
	failRevok bool
	access    string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Form.Get("grant_type") {
		case "password":
			if r.Form.Get("username") != "ana@petshop.com.br" || r.Form.Get("password") != "senha123" {
				authsdk.ErrInvalidGrant.WriteError(w)
				return
			}
			f.access = "access-1"
		case "refresh_token":
			if r.Form.Get("refresh_token") == "revoked" {
				authsdk.ErrInvalidRefresh.WriteError(w)
				return
			}
			n := f.refreshN.Add(1)
			f.access = "access-r" + string(rune('0'+n))
		default:
			authsdk.ErrUnsupportedGrantType.WriteError(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authsdk.TokenResponse{
			AccessToken:  f.access,
			RefreshToken: "refresh-" + f.access,
			TokenType:    "Bearer",
			ExpiresIn:    f.expiresIn,
			User:         &authsdk.Identity{ID: "u1", Email: "ana@petshop.com.br"},
		})
	})

	mux.HandleFunc("POST /v1/auth/revoke", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failRevok {
			authsdk.ErrServerError.WriteError(w)
			return
		}
		f.revoked = append(f.revoked, r.Form.Get("token"))
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /v1/auth/user", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		want := "Bearer " + f.access
		f.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		_ = json.NewEncoder(w).Encode(authsdk.Identity{ID: "u1", Email: "ana@petshop.com.br"})
	})

	mux.HandleFunc("GET /v1/profile", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(authsdk.Profile{UserID: "u1", ShopID: "s1", Role: "owner", FullName: "Ana"})
	})

	return mux
}

func newFake(t *testing.T, expiresIn int) (*fakeAPI, *authsdk.Client) {
	t.Helper()
	f := &fakeAPI{expiresIn: expiresIn}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, authsdk.NewClient(srv.URL)
}

func TestClient_SignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, c := newFake(t, 900)

	var events []authsdk.AuthEvent
	unsubscribe := c.OnAuthStateChange(func(_ context.Context, ch authsdk.AuthChange) {
		events = append(events, ch.Event)
		if ch.Event == authsdk.EventSignedIn {
			require.NotNil(t, ch.Session)
			require.Equal(t, "u1", ch.Identity.ID)
		}
	})
	defer unsubscribe()

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "errada123")
		require.Equal(t, authsdk.KindInvalidCredentials, authsdk.KindOf(err))
		require.Nil(t, c.Session())
		require.Empty(t, events)
	})

	t.Run("success notifies synchronously", func(t *testing.T) {
		sess, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "senha123")
		require.NoError(t, err)
		require.Equal(t, "access-1", sess.AccessToken)
		require.Equal(t, []authsdk.AuthEvent{authsdk.EventSignedIn}, events)
		require.Equal(t, "u1", c.Identity().ID)
	})

	t.Run("profile", func(t *testing.T) {
		p, err := c.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "owner", p.Role)

		_, err = c.GetProfile(ctx, "someone-else")
		require.Equal(t, authsdk.KindForbidden, authsdk.KindOf(err))
	})
}

func TestClient_RefreshesNearExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f, c := newFake(t, 20) // inside RefreshBuffer
	_, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "senha123")
	require.NoError(t, err)

	var refreshed atomic.Bool
	c.OnAuthStateChange(func(_ context.Context, ch authsdk.AuthChange) {
		if ch.Event == authsdk.EventTokenRefreshed {
			refreshed.Store(true)
		}
	})

	id, err := c.GetUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", id.ID)
	require.True(t, refreshed.Load())
	require.GreaterOrEqual(t, f.refreshN.Load(), int32(1))
}

func TestClient_SignOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("revokes and clears", func(t *testing.T) {
		f, c := newFake(t, 900)
		_, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "senha123")
		require.NoError(t, err)

		var signedOut bool
		c.OnAuthStateChange(func(_ context.Context, ch authsdk.AuthChange) {
			signedOut = ch.Event == authsdk.EventSignedOut && ch.Session == nil
		})

		require.NoError(t, c.SignOut(ctx))
		require.True(t, signedOut)
		require.Nil(t, c.Session())
		require.Equal(t, []string{"refresh-access-1"}, f.revoked)
	})

	t.Run("failure keeps session", func(t *testing.T) {
		f, c := newFake(t, 900)
		_, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "senha123")
		require.NoError(t, err)

		f.mu.Lock()
		f.failRevok = true
		f.mu.Unlock()

		require.Error(t, c.SignOut(ctx))
		require.NotNil(t, c.Session())
	})
}

func TestClient_RestoreSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expired session is refreshed", func(t *testing.T) {
		_, c := newFake(t, 900)
		sess, err := c.RestoreSession(ctx, authsdk.Session{
			AccessToken:  "stale",
			RefreshToken: "still-good",
			ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)
		require.Equal(t, "access-r1", sess.AccessToken)
		require.Equal(t, "u1", c.Identity().ID)
	})

	t.Run("revoked refresh token signs out", func(t *testing.T) {
		_, c := newFake(t, 900)
		_, err := c.RestoreSession(ctx, authsdk.Session{
			AccessToken:  "stale",
			RefreshToken: "revoked",
			ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		})
		require.Equal(t, authsdk.KindInvalidCredentials, authsdk.KindOf(err))
		require.Nil(t, c.Session())
	})

	t.Run("empty session", func(t *testing.T) {
		_, c := newFake(t, 900)
		_, err := c.RestoreSession(ctx, authsdk.Session{})
		require.ErrorIs(t, err, authsdk.ErrNotSignedIn)
	})
}

func TestClient_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := authsdk.NewClient(url)
	_, err := c.SignInWithPassword(context.Background(), "ana@petshop.com.br", "senha123")
	require.Equal(t, authsdk.KindNetworkFailure, authsdk.KindOf(err))
}

func TestClient_NotSignedIn(t *testing.T) {
	t.Parallel()

	_, c := newFake(t, 900)
	_, err := c.Dashboard(context.Background())
	require.ErrorIs(t, err, authsdk.ErrNotSignedIn)
}
