package guard_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

func signedIn(role rbac.Role) session.State {
	return session.State{
		User: &session.User{
			ID:          "u1",
			Role:        role,
			Permissions: rbac.Permissions(role),
		},
		Session: &session.Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	outage := signedIn("")
	outage.User.Permissions = nil
	outage.Err = &session.EnrichmentError{UserID: "u1", Err: errors.New("db down")}

	loadingUser := signedIn(rbac.RoleOwner)
	loadingUser.Loading = true

	tests := []struct {
		name   string
		state  session.State
		req    guard.Requirements
		action guard.Action
		status guard.Status
		reason guard.Reason
	}{
		{
			name:   "loading wins over everything",
			state:  loadingUser,
			action: guard.ActionFallback,
			status: guard.StatusLoading,
			reason: guard.ReasonLoading,
		},
		{
			name:   "anonymous is redirected",
			state:  session.State{},
			action: guard.ActionRedirect,
			status: guard.StatusUnauthenticated,
		},
		{
			name:   "user without session is redirected",
			state:  session.State{User: &session.User{ID: "u1"}},
			action: guard.ActionRedirect,
			status: guard.StatusUnauthenticated,
		},
		{
			name:   "enrichment outage fails closed",
			state:  outage,
			action: guard.ActionFallback,
			status: guard.StatusUnavailable,
			reason: guard.ReasonUnavailable,
		},
		{
			name:   "enrichment outage fails closed without requirements",
			state:  outage,
			req:    guard.Requirements{},
			action: guard.ActionFallback,
			status: guard.StatusUnavailable,
			reason: guard.ReasonUnavailable,
		},
		{
			name:   "role mismatch",
			state:  signedIn(rbac.RoleAdmin),
			req:    guard.Requirements{Role: rbac.RoleOwner},
			action: guard.ActionFallback,
			status: guard.StatusRoleMismatch,
			reason: guard.ReasonForbidden,
		},
		{
			name:   "role match",
			state:  signedIn(rbac.RoleOwner),
			req:    guard.Requirements{Role: rbac.RoleOwner},
			action: guard.ActionRender,
			status: guard.StatusAuthorized,
		},
		{
			name:   "permission mismatch",
			state:  signedIn(rbac.RoleGroomer),
			req:    guard.Requirements{Permissions: []rbac.Permission{rbac.ManageSettings}},
			action: guard.ActionFallback,
			status: guard.StatusPermissionMismatch,
			reason: guard.ReasonForbidden,
		},
		{
			name:   "any of the permissions is enough",
			state:  signedIn(rbac.RoleGroomer),
			req:    guard.Requirements{Permissions: []rbac.Permission{rbac.ManageSettings, rbac.ViewDashboard}},
			action: guard.ActionRender,
			status: guard.StatusAuthorized,
		},
		{
			name:   "no requirements renders",
			state:  signedIn(rbac.RoleAttendant),
			action: guard.ActionRender,
			status: guard.StatusAuthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := guard.Evaluate(guard.Config{}, tc.state, tc.req, "/app/clients")
			require.Equal(t, tc.action, d.Action)
			require.Equal(t, tc.status, d.Status)
			require.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestEvaluateEmptyPermissions(t *testing.T) {
	t.Parallel()

	req := guard.Requirements{Permissions: []rbac.Permission{rbac.ManageShop}}
	for _, perms := range [][]rbac.Permission{nil, {}} {
		st := signedIn(rbac.RoleAttendant)
		st.User.Permissions = perms

		d := guard.Evaluate(guard.Config{}, st, req, "/app/settings")
		require.Equal(t, guard.ActionFallback, d.Action)
		require.Equal(t, guard.ReasonForbidden, d.Reason)
	}
}

func TestEvaluateNoRequirementsAllRoles(t *testing.T) {
	t.Parallel()

	for _, role := range append(rbac.Roles(), "") {
		st := signedIn(role)
		require.True(t, guard.Evaluate(guard.Config{}, st, guard.Requirements{}, "/app").Authorized())
	}
}

func TestRedirectPreservesPath(t *testing.T) {
	t.Parallel()

	d := guard.Evaluate(guard.Config{}, session.State{}, guard.Requirements{}, "/app/pets?client=42&sort=name")
	require.Equal(t, guard.ActionRedirect, d.Action)

	u, err := url.Parse(d.Path)
	require.NoError(t, err)
	require.Equal(t, "/auth/sign-in", u.Path)
	require.Equal(t, "/app/pets?client=42&sort=name", u.Query().Get("redirectTo"))

	d = guard.Evaluate(guard.Config{SignInPath: "/entrar", ReturnParam: "next"}, session.State{}, guard.Requirements{}, "/app")
	require.Equal(t, "/entrar?next=%2Fapp", d.Path)
}

func TestSafeReturnPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/app/pets?x=1":        "/app/pets?x=1",
		"":                     "/app",
		"https://evil.example": "/app",
		"//evil.example":       "/app",
		"/\\evil.example":      "/app",
		"app/pets":             "/app",
		"/app\r\nSet-Cookie:":  "/app",
	}
	for in, want := range tests {
		require.Equal(t, want, guard.SafeReturnPath(in, "/app"), in)
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "permission_mismatch", guard.StatusPermissionMismatch.String())
	require.Equal(t, "unknown", guard.Status(99).String())
}
