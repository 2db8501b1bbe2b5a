package httpx

import (
	"context"

	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
	CtxKeyToken  ctxKey = "access_token"
	CtxKeyState  ctxKey = "session_state"
)

// ContextWithAuth stores verified claims and the raw token on ctx.
func ContextWithAuth(ctx context.Context, c jwtx.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	ctx = context.WithValue(ctx, CtxKeyToken, raw)
	return ctx
}

func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyUserID).(string)
	return v
}

func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func tokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyToken).(string)
	return v
}

// ContextWithState stores the enriched session state for guards and handlers.
func ContextWithState(ctx context.Context, st session.State) context.Context {
	return context.WithValue(ctx, CtxKeyState, st)
}

// StateFromContext returns the enriched state, or the zero State (signed
// out) when EnrichMiddleware did not run.
func StateFromContext(ctx context.Context) session.State {
	st, _ := ctx.Value(CtxKeyState).(session.State)
	return st
}

// UserFromContext is the enriched user, or nil.
func UserFromContext(ctx context.Context) *session.User {
	return StateFromContext(ctx).User
}
