// Package web serves the server-rendered pages: the auth forms and the
// /app area, guarded with the same rules as the API.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"sign-in", "sign-up", "forgot-password", "update-password", "notice",
	"dashboard", "settings", "forbidden", "unavailable",
}

// Pages holds the page handlers and their dependencies.
type Pages struct {
	Identity  *service.IdentityService
	Profiles  *service.ProfileService
	Shops     *service.ShopService
	Dashboard *service.DashboardService
	Verifier  jwtx.Verifier

	Guard guard.Config
	// Secure marks cookies Secure; set it when serving over TLS.
	Secure bool

	enricher *session.Enricher
	tmpl     map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
	},
	"when": func(t time.Time) string { return t.Format("02/01 15:04") },
}

// NewPages parses the embedded templates.
func NewPages(identity *service.IdentityService, profiles *service.ProfileService, shops *service.ShopService, dashboard *service.DashboardService, verifier jwtx.Verifier) (*Pages, error) {
	p := &Pages{
		Identity:  identity,
		Profiles:  profiles,
		Shops:     shops,
		Dashboard: dashboard,
		Verifier:  verifier,
		enricher:  session.NewEnricher(profiles),
		tmpl:      make(map[string]*template.Template, len(pageNames)),
	}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		p.tmpl[name] = t
	}
	return p, nil
}

// Register adds the page routes to mux.
func (p *Pages) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, DefaultHome, http.StatusSeeOther)
	})

	mux.HandleFunc("GET /auth/sign-in", p.signInForm)
	mux.HandleFunc("POST /auth/sign-in", p.signIn)
	mux.HandleFunc("GET /auth/sign-up", p.signUpForm)
	mux.HandleFunc("POST /auth/sign-up", p.signUp)
	mux.HandleFunc("GET /auth/forgot-password", p.forgotPasswordForm)
	mux.HandleFunc("POST /auth/forgot-password", p.forgotPassword)
	mux.HandleFunc("GET /auth/update-password", p.updatePasswordForm)
	mux.HandleFunc("POST /auth/update-password", p.updatePassword)
	mux.HandleFunc("GET /auth/confirm", p.confirm)
	mux.HandleFunc("POST /auth/sign-out", p.signOut)

	mux.Handle("GET /app/dashboard", p.guarded(guard.Requirements{Permissions: dashboardPerms}, p.dashboard))
	mux.Handle("GET /app/settings", p.guarded(guard.Requirements{Permissions: settingsPerms}, p.settings))
	mux.Handle("POST /app/settings", p.guarded(guard.Requirements{Permissions: settingsPerms}, p.saveSettings))
}

func (p *Pages) refreshTTL() time.Duration {
	if p.Identity != nil && p.Identity.Tokens != nil && p.Identity.Tokens.RefreshTTL > 0 {
		return p.Identity.Tokens.RefreshTTL
	}
	return service.DefaultRefreshTTL
}

// view is the data every template receives.
type view struct {
	Title      string
	User       *session.User
	Error      string
	Notice     string
	Fields     map[string]string
	Form       map[string]string
	RedirectTo string
	Data       any
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	t, ok := p.tmpl[name]
	if !ok {
		slogx.FromContext(r.Context()).Error("unknown template", "name", name)
		http.Error(w, "erro interno", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", v); err != nil {
		slogx.FromContext(r.Context()).Error("render page", "name", name, "err", err)
	}
}

// guardedFunc is a page that runs only once the guard authorises the
// request. st.User is always set.
type guardedFunc func(w http.ResponseWriter, r *http.Request, st session.State)

// guarded resolves the session from cookies, enriches it and applies the
// route guard: a redirect becomes a 303, forbidden a 403 page and
// unavailable a 503 page.
func (p *Pages) guarded(req guard.Requirements, page guardedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := p.resolve(w, r)
		d := guard.Evaluate(p.Guard, st, req, r.URL.RequestURI())

		switch {
		case d.Authorized():
			page(w, r, st)
		case d.Action == guard.ActionRedirect:
			http.Redirect(w, r, d.Path, http.StatusSeeOther)
		case d.Reason == guard.ReasonForbidden:
			p.render(w, r, http.StatusForbidden, "forbidden", view{Title: "Sem permissão", User: st.User})
		default:
			w.Header().Set("Retry-After", "5")
			p.render(w, r, http.StatusServiceUnavailable, "unavailable", view{Title: "Indisponível"})
		}
	})
}

// resolve builds the session state from the cookies. An expired or missing
// access token is rotated with the refresh cookie when there is one.
func (p *Pages) resolve(w http.ResponseWriter, r *http.Request) session.State {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw := cookieValue(r, AccessCookie)
	claims, err := accessClaims(r, p.Verifier)
	if err != nil {
		refresh := cookieValue(r, RefreshCookie)
		if refresh == "" {
			return session.State{}
		}
		pair, rerr := p.Identity.Refresh(ctx, refresh)
		if rerr != nil {
			if !errors.Is(rerr, service.ErrInvalidRefresh) {
				log.Warn("page session refresh failed", "err", rerr)
			}
			p.clearSession(w)
			return session.State{}
		}
		p.setSession(w, pair)
		raw = pair.AccessToken
		if claims, err = p.Verifier.Verify(raw); err != nil {
			log.Error("fresh access token does not verify", "err", err)
			return session.State{}
		}
	}

	user, err := p.enricher.Enrich(ctx, session.Identity{ID: claims.Subject, Email: claims.Email})
	st := session.State{
		User:    user,
		Session: &session.Session{AccessToken: raw},
		Err:     err,
	}
	if claims.ExpiresAt != nil {
		st.Session.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if err != nil {
		log.Warn("page enrichment failed", "user_id", claims.Subject, "err", err)
	}
	return st
}
