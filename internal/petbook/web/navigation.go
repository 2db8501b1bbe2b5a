package web

import (
	"net/http"
	"path"
	"strings"

	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

// DefaultHome is where signed-in visitors land.
const DefaultHome = "/app/dashboard"

var (
	// skipPrefixes are never intercepted: API, docs, probes and assets.
	skipPrefixes = []string{"/v1/", "/.well-known/", "/swagger/", "/metrics", "/livez", "/readyz", "/static/"}

	protectedPrefixes = []string{"/app"}
	authPrefixes      = []string{"/auth/sign-in", "/auth/sign-up", "/auth/forgot-password"}
)

type NavigationConfig struct {
	Verifier jwtx.Verifier
	Guard    guard.Config
	HSTS     bool
}

// NavigationMiddleware handles page requests before routing. Visitors
// without a session are sent from /app to sign-in with the requested path
// preserved, and visitors with one are sent from the sign-in, sign-up and
// forgot-password pages to DefaultHome.
//
// A request is treated as signed in when its access cookie verifies, or,
// for /app only, when a refresh cookie is present: the page handler
// rotates it.
func NavigationMiddleware(cfg NavigationConfig) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		secured := httpx.SecurityHeaders(cfg.HSTS)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if skipNavigation(p) {
				next.ServeHTTP(w, r)
				return
			}

			_, accessErr := accessClaims(r, cfg.Verifier)
			signedIn := accessErr == nil

			switch {
			case hasPrefix(p, protectedPrefixes) && !signedIn && !hasCookie(r, RefreshCookie):
				http.Redirect(w, r, guard.SignInURL(cfg.Guard, r.URL.RequestURI()), http.StatusSeeOther)
				return
			case hasPrefix(p, authPrefixes) && signedIn:
				http.Redirect(w, r, DefaultHome, http.StatusSeeOther)
				return
			}
			secured.ServeHTTP(w, r)
		})
	}
}

func skipNavigation(p string) bool {
	for _, pre := range skipPrefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	return path.Ext(p) != ""
}

// hasPrefix matches whole path segments: "/app" covers "/app" and
// "/app/x" but not "/apple".
func hasPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}
