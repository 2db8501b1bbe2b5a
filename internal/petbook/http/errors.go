package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

var (
	errInvalidTransition = authsdk.NewOAuth2Error(http.StatusConflict, authsdk.ErrorCodeConflict, "mudança de status não permitida")
	errNoPhoto           = authsdk.NewOAuth2Error(http.StatusNotFound, authsdk.ErrorCodeNotFound, "pet sem foto")
	errNoShop            = authsdk.NewOAuth2Error(http.StatusForbidden, authsdk.ErrorCodeInsufficientPerm, "usuário sem pet shop")
)

// writeError maps service and store errors to API responses. Anything it
// does not recognise is logged and answered with a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *validation.Errors
		limited *ratelimit.LimitedError
	)
	switch {
	case errors.As(err, &verr):
		authsdk.WriteValidation(w, verr)
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(max(int(limited.RetryAfter.Seconds()), 1)))
		authsdk.NewOAuth2Error(http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited, limited.Error()).WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrNotFoundResponse.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, service.ErrEmailNotConfirmed):
		authsdk.ErrEmailNotConfirmedResponse.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, store.ErrAlreadyExists):
		authsdk.ErrConflictResponse.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		authsdk.ErrInvalidRefresh.WriteError(w)
	case errors.Is(err, service.ErrInvalidLink):
		authsdk.ErrInvalidLinkToken.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbiddenResponse.WriteError(w)
	case errors.Is(err, service.ErrInvalidTransition):
		errInvalidTransition.WriteError(w)
	case errors.Is(err, service.ErrNoPhoto):
		errNoPhoto.WriteError(w)
	case errors.Is(err, storage.ErrDisabled), session.IsEnrichmentError(err):
		authsdk.ErrUnavailable.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// decode reads a JSON body, writing a 400 when it cannot.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "err", err)
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return false
	}
	return true
}

// shopOf returns the caller's enriched profile, writing a 403 when the
// caller does not belong to a shop.
func shopOf(w http.ResponseWriter, r *http.Request) (*session.User, bool) {
	u := httpx.UserFromContext(r.Context())
	if u == nil || u.ShopID == "" {
		errNoShop.WriteError(w)
		return nil, false
	}
	return u, true
}
