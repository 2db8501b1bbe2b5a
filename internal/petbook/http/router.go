package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/petbook/api/petbook" // Swagger docs
	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/telemetry"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

// ServiceName names the HTTP server in traces.
const ServiceName = "petbook-api"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	enricher     *session.Enricher

	// HSTS adds Strict-Transport-Security to every response.
	HSTS    bool
	Metrics *telemetry.Metrics

	// LinkAttempts counts failed redemptions of e-mailed and invite tokens
	// per IP and path. ApplyRoutes creates one when nil.
	LinkAttempts *ratelimit.Limiter

	IdentityService    *service.IdentityService
	ProfileService     *service.ProfileService
	ShopService        *service.ShopService
	ClientService      *service.ClientService
	PetService         *service.PetService
	CatalogService     *service.CatalogService
	AppointmentService *service.AppointmentService
	DashboardService   *service.DashboardService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// Use appends mw to the global chain. It runs after the built-in
// middlewares and must be called before ApplyRoutes.
func (r *Router) Use(mw ...httpx.Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// ApplyRoutes registers every route and freezes the middleware chain:
// tracing, gzip, security headers, request logging, then anything added
// with Use, then metrics.
func (r *Router) ApplyRoutes() {
	r.enricher = session.NewEnricher(r.ProfileService)
	if r.LinkAttempts == nil {
		r.LinkAttempts = ratelimit.New(ratelimit.Config{})
	}

	r.registerAuth()
	r.registerProfile()
	r.registerShop()
	r.registerClients()
	r.registerPets()
	r.registerServices()
	r.registerAppointments()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	chain := []httpx.Middleware{
		telemetry.HTTPMiddleware(ServiceName),
		func(h http.Handler) http.Handler { return gzhttp.GzipHandler(h) },
		httpx.SecurityHeaders(r.HSTS),
		slogx.HTTPMiddleware(r.logger),
	}
	chain = append(chain, r.middlewares...)
	if r.Metrics != nil {
		chain = append(chain, r.Metrics.HTTPMiddleware)
	}
	r.handler = httpx.Chain(r.Mux, chain...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			PetBook API
//	@version		0.1.0
//	@description	Multi-tenant pet shop management: accounts, shops and staff, clients, pets, services and appointments.
//	@description
//	@description				Access tokens are EdDSA JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/petbook
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		http.Error(w, "routes not applied", http.StatusInternalServerError)
		return
	}
	r.handler.ServeHTTP(w, req)
}

// authenticated verifies the bearer token and rate limits by user.
func (r *Router) authenticated(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := []httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.LenientLimit),
	}
	return httpx.Chain(h, append(chain, mws...)...)
}

// tenant additionally loads the caller's role and checks that they hold
// one of perms.
func (r *Router) tenant(h http.HandlerFunc, perms ...rbac.Permission) http.Handler {
	return r.authenticated(h,
		httpx.EnrichMiddleware(r.enricher),
		httpx.RequirePermission(perms...),
	)
}

// redeem limits a public endpoint whose body carries a single-use token:
// strict per IP, plus a failed-attempt window per IP and path.
func (r *Router) redeem(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.RateLimitByIP(httpx.StrictLimit),
		httpx.AttemptLimit(r.LinkAttempts, httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.PathKeyExtractor)),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Identity: r.IdentityService}

	// Credential endpoints: strict per IP. Sign-in and recovery are also
	// limited per e-mail inside the identity service.
	r.Mux.Handle("POST /v1/auth/signup", httpx.Chain(http.HandlerFunc(h.HandleSignUp), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/confirm", r.redeem(h.HandleConfirm))
	r.Mux.Handle("POST /v1/auth/token", httpx.Chain(http.HandlerFunc(h.HandleToken), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/revoke", httpx.Chain(http.HandlerFunc(h.HandleRevoke), httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/recover", httpx.Chain(http.HandlerFunc(h.HandleRecover), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/reset", httpx.Chain(http.HandlerFunc(h.HandleReset), httpx.RateLimitByIP(httpx.StrictLimit)))

	r.Mux.Handle("GET /v1/auth/user", r.authenticated(http.HandlerFunc(h.HandleUser)))
	r.Mux.Handle("PUT /v1/auth/password", r.authenticated(http.HandlerFunc(h.HandleUpdatePassword)))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{Profiles: r.ProfileService}

	r.Mux.Handle("GET /v1/profile", r.authenticated(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("PATCH /v1/profile", r.authenticated(http.HandlerFunc(h.HandleUpdate)))
}

func (r *Router) registerShop() {
	h := &ShopHandler{Shops: r.ShopService}

	r.Mux.Handle("GET /v1/shop", r.tenant(h.HandleGet, rbac.ViewDashboard, rbac.ManageShop))
	r.Mux.Handle("PATCH /v1/shop", r.tenant(h.HandleUpdate, rbac.ManageShop, rbac.ManageSettings))
	r.Mux.Handle("GET /v1/staff", r.tenant(h.HandleListStaff, rbac.ManageStaff))
	r.Mux.Handle("POST /v1/staff/invites", r.tenant(h.HandleMintInvite, rbac.ManageStaff))

	// Public: the invite token is the credential.
	r.Mux.Handle("POST /v1/staff/invites/redeem", r.redeem(h.HandleRedeemInvite))
}

func (r *Router) registerClients() {
	h := &ClientsHandler{Clients: r.ClientService}

	r.Mux.Handle("GET /v1/clients", r.tenant(h.HandleList, rbac.ViewClients))
	r.Mux.Handle("POST /v1/clients", r.tenant(h.HandleCreate, rbac.ManageClients))
	r.Mux.Handle("GET /v1/clients/{id}", r.tenant(h.HandleGet, rbac.ViewClients))
	r.Mux.Handle("PUT /v1/clients/{id}", r.tenant(h.HandleUpdate, rbac.ManageClients))
	r.Mux.Handle("DELETE /v1/clients/{id}", r.tenant(h.HandleDelete, rbac.ManageClients))
}

func (r *Router) registerPets() {
	h := &PetsHandler{Pets: r.PetService}

	r.Mux.Handle("GET /v1/pets", r.tenant(h.HandleList, rbac.ViewClients, rbac.ManagePets))
	r.Mux.Handle("POST /v1/pets", r.tenant(h.HandleCreate, rbac.ManagePets))
	r.Mux.Handle("GET /v1/pets/{id}", r.tenant(h.HandleGet, rbac.ViewClients, rbac.ManagePets))
	r.Mux.Handle("PUT /v1/pets/{id}", r.tenant(h.HandleUpdate, rbac.ManagePets))
	r.Mux.Handle("DELETE /v1/pets/{id}", r.tenant(h.HandleDelete, rbac.ManagePets))
	r.Mux.Handle("POST /v1/pets/{id}/photo", r.tenant(h.HandlePhotoUpload, rbac.ManagePets))
	r.Mux.Handle("GET /v1/pets/{id}/photo", r.tenant(h.HandlePhotoDownload, rbac.ViewClients, rbac.ManagePets))
}

func (r *Router) registerServices() {
	h := &ServicesHandler{Catalog: r.CatalogService}

	r.Mux.Handle("GET /v1/services", r.tenant(h.HandleList, rbac.ManageServices, rbac.ManageAppointments))
	r.Mux.Handle("POST /v1/services", r.tenant(h.HandleCreate, rbac.ManageServices))
	r.Mux.Handle("PUT /v1/services/{id}", r.tenant(h.HandleUpdate, rbac.ManageServices))
	r.Mux.Handle("DELETE /v1/services/{id}", r.tenant(h.HandleDelete, rbac.ManageServices))
}

func (r *Router) registerAppointments() {
	h := &AppointmentsHandler{Appointments: r.AppointmentService}
	d := &DashboardHandler{Dashboard: r.DashboardService}

	r.Mux.Handle("GET /v1/appointments", r.tenant(h.HandleList, rbac.ManageAppointments))
	r.Mux.Handle("POST /v1/appointments", r.tenant(h.HandleCreate, rbac.ManageAppointments))
	r.Mux.Handle("GET /v1/appointments/{id}", r.tenant(h.HandleGet, rbac.ManageAppointments))
	r.Mux.Handle("PATCH /v1/appointments/{id}/status", r.tenant(h.HandleUpdateStatus, rbac.ManageAppointments))

	r.Mux.Handle("GET /v1/dashboard", r.tenant(d.HandleGet, rbac.ViewDashboard))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys), httpx.RateLimitByIP(httpx.PublicLimit)),
	)
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
