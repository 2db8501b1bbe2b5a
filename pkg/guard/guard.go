// Package guard decides what a protected route shows for a given session
// state: the page itself, a redirect to sign-in, or a fallback.
package guard

import (
	"net/url"
	"strings"

	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

const (
	DefaultSignInPath  = "/auth/sign-in"
	DefaultReturnParam = "redirectTo"
)

// Config controls where unauthenticated visitors are sent.
type Config struct {
	SignInPath  string
	ReturnParam string
}

func (c Config) withDefaults() Config {
	if c.SignInPath == "" {
		c.SignInPath = DefaultSignInPath
	}
	if c.ReturnParam == "" {
		c.ReturnParam = DefaultReturnParam
	}
	return c
}

// Requirements for a route. Zero values mean no requirement. Permissions
// are any-of.
type Requirements struct {
	Role        rbac.Role
	Permissions []rbac.Permission
}

// Status is the guard's state for a request.
type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusRoleMismatch
	StatusPermissionMismatch
	StatusUnavailable
	StatusAuthorized
)

var statusNames = [...]string{
	StatusLoading:            "loading",
	StatusUnauthenticated:    "unauthenticated",
	StatusRoleMismatch:       "role_mismatch",
	StatusPermissionMismatch: "permission_mismatch",
	StatusUnavailable:        "unavailable",
	StatusAuthorized:         "authorized",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Action is what the caller should do with the route.
type Action int

const (
	ActionRender Action = iota
	ActionRedirect
	ActionFallback
)

// Reason explains an ActionFallback.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonLoading     Reason = "loading"
	ReasonForbidden   Reason = "forbidden"
	ReasonUnavailable Reason = "unavailable"
)

// Decision is the outcome of Evaluate. Path is set for ActionRedirect,
// Reason for ActionFallback.
type Decision struct {
	Action Action
	Status Status
	Path   string
	Reason Reason
}

func (d Decision) Authorized() bool { return d.Action == ActionRender }

// Evaluate applies the rules in order: loading, unauthenticated, enrichment
// unavailable, role mismatch, permission mismatch, authorized.
func Evaluate(cfg Config, st session.State, req Requirements, currentPath string) Decision {
	cfg = cfg.withDefaults()

	if st.Loading {
		return Decision{Action: ActionFallback, Status: StatusLoading, Reason: ReasonLoading}
	}

	if st.User == nil || st.Session == nil {
		return Decision{
			Action: ActionRedirect,
			Status: StatusUnauthenticated,
			Path:   SignInURL(cfg, currentPath),
		}
	}

	if session.IsEnrichmentError(st.Err) {
		return Decision{Action: ActionFallback, Status: StatusUnavailable, Reason: ReasonUnavailable}
	}

	if req.Role != "" && st.User.Role != req.Role {
		return Decision{Action: ActionFallback, Status: StatusRoleMismatch, Reason: ReasonForbidden}
	}

	if len(req.Permissions) > 0 && !rbac.HasAny(st.User.Permissions, req.Permissions...) {
		return Decision{Action: ActionFallback, Status: StatusPermissionMismatch, Reason: ReasonForbidden}
	}

	return Decision{Action: ActionRender, Status: StatusAuthorized}
}

// SignInURL is the sign-in path carrying currentPath as the return target.
func SignInURL(cfg Config, currentPath string) string {
	cfg = cfg.withDefaults()
	if currentPath == "" {
		return cfg.SignInPath
	}
	q := url.Values{cfg.ReturnParam: []string{currentPath}}
	return cfg.SignInPath + "?" + q.Encode()
}

// SafeReturnPath returns p if it is a local absolute path, otherwise
// fallback. It rejects scheme-relative and backslash forms that browsers
// treat as another host.
func SafeReturnPath(p, fallback string) string {
	if p == "" || !strings.HasPrefix(p, "/") {
		return fallback
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") || strings.ContainsAny(p, "\r\n") {
		return fallback
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return p
}
