package cli

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

// require restores the saved session and runs it through the same guard
// the web pages use. perms are any-of.
func (e *env) require(ctx context.Context, perms ...rbac.Permission) (*session.User, error) {
	if err := e.restore(ctx); err != nil {
		return nil, err
	}

	st := e.holder.State()
	d := guard.Evaluate(guard.Config{}, st, guard.Requirements{Permissions: perms}, "")
	switch d.Action {
	case guard.ActionRender:
		return st.User, nil
	case guard.ActionRedirect:
		return nil, errNotSignedIn
	}

	if d.Reason == guard.ReasonForbidden {
		return nil, fmt.Errorf("sem permissão: o papel %q não pode fazer isso", roleOf(st.User))
	}
	return nil, fmt.Errorf("perfil indisponível, tente novamente em instantes: %w", st.Err)
}

func roleOf(u *session.User) string {
	if u == nil || u.Role == "" {
		return "-"
	}
	return string(u.Role)
}
