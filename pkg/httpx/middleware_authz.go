package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

// EnrichMiddleware loads the caller's role and permissions and stores the
// resulting session.State on the context. It must run after
// AuthnMiddleware. A failed lookup is kept in State.Err so that guards
// downstream fail closed.
func EnrichMiddleware(e *session.Enricher) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, ok := ClaimsFromContext(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := e.Enrich(ctx, session.Identity{ID: claims.Subject, Email: claims.Email})
			if err != nil {
				slogx.FromContext(ctx).Warn("enrichment failed", "user_id", claims.Subject, "err", err)
			}

			st := session.State{
				User: user,
				Session: &session.Session{
					AccessToken: tokenFromContext(ctx),
				},
				Err: err,
			}
			if claims.ExpiresAt != nil {
				st.Session.ExpiresAt = claims.ExpiresAt.Unix()
			}
			next.ServeHTTP(w, r.WithContext(ContextWithState(ctx, st)))
		})
	}
}

// RequirePermission lets the request through when the caller holds any of
// perms.
func RequirePermission(perms ...rbac.Permission) Middleware {
	return Guard(guard.Requirements{Permissions: perms})
}

// Guard evaluates req against the enriched state and maps the decision to
// an API response: redirect is 401, forbidden is 403 and unavailable is 503.
func Guard(req guard.Requirements) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Evaluate(guard.Config{}, StateFromContext(r.Context()), req, r.URL.RequestURI())

			switch {
			case d.Authorized():
				next.ServeHTTP(w, r)
			case d.Action == guard.ActionRedirect:
				writeBearerError(w, "authentication required")
			case d.Reason == guard.ReasonForbidden:
				writeInsufficientPermission(w, req)
			default:
				w.Header().Set("Retry-After", "5")
				authsdk.ErrUnavailable.WriteError(w)
			}
		})
	}
}

// RFC 6750 insufficient_scope, with the required permissions as scope.
func writeInsufficientPermission(w http.ResponseWriter, req guard.Requirements) {
	need := make([]string, 0, len(req.Permissions)+1)
	if req.Role != "" {
		need = append(need, "role:"+string(req.Role))
	}
	for _, p := range req.Permissions {
		need = append(need, string(p))
	}
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(need, " ")+`"`)
	authsdk.ErrForbiddenResponse.WriteError(w)
}
