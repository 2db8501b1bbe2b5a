package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

const (
	AccessCookie  = "pb_access"
	RefreshCookie = "pb_refresh"
)

var errNoAccessCookie = errors.New("web: no access cookie")

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

func cookieValue(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

// accessClaims verifies the access cookie.
func accessClaims(r *http.Request, v jwtx.Verifier) (jwtx.Claims, error) {
	raw := cookieValue(r, AccessCookie)
	if raw == "" || v == nil {
		return jwtx.Claims{}, errNoAccessCookie
	}
	return v.Verify(raw)
}

// setSession stores pair as HttpOnly cookies. The refresh cookie is scoped
// to the page tree and outlives the access cookie.
func (p *Pages) setSession(w http.ResponseWriter, pair *domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(p.refreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *Pages) clearSession(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   p.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
