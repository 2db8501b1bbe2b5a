package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// ============================================================================
// Error codes shared with the server
// ============================================================================

const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeServerError          = "server_error"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInsufficientPerm     = "insufficient_permission"
	ErrorCodeEmailNotConfirmed    = "email_not_confirmed"
	ErrorCodeEmailTaken           = "email_taken"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeConflict             = "conflict"
	ErrorCodeRateLimited          = "rate_limit_exceeded"
	ErrorCodeUnavailable          = "temporarily_unavailable"
	ErrorCodeValidation           = "validation_error"
)

// ============================================================================
// Client-side error kinds
// ============================================================================

// ErrorKind classifies a failure.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindNetworkFailure     ErrorKind = "network_failure"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNotFound           ErrorKind = "not_found"
	KindValidation         ErrorKind = "validation"
	KindConflict           ErrorKind = "conflict"
	KindEmailNotConfirmed  ErrorKind = "email_not_confirmed"
	KindForbidden          ErrorKind = "forbidden"
	KindUnknown            ErrorKind = "unknown"
)

// Error is a classified failure. For KindUnknown, Message is the server's
// description verbatim.
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Details    map[string]string
	Err        error
}

// Kind sentinels for errors.Is.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrNetworkFailure     = &Error{Kind: KindNetworkFailure}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrEmailNotConfirmed  = &Error{Kind: KindEmailNotConfirmed}
	ErrForbidden          = &Error{Kind: KindForbidden}

	// ErrNotSignedIn is returned by Client calls that need a session when there is none.
	ErrNotSignedIn = &Error{Kind: KindInvalidCredentials, Code: ErrorCodeInvalidToken, Message: "Sessão expirada. Entre novamente."}
)

var defaultMessages = map[ErrorKind]string{
	KindInvalidCredentials: "E-mail ou senha inválidos.",
	KindNetworkFailure:     "Falha de conexão. Verifique sua internet e tente novamente.",
	KindRateLimited:        "Muitas tentativas. Tente novamente mais tarde.",
	KindNotFound:           "Registro não encontrado.",
	KindValidation:         "Dados inválidos.",
	KindConflict:           "Este registro já existe.",
	KindEmailNotConfirmed:  "Confirme seu e-mail antes de entrar.",
	KindForbidden:          "Você não tem permissão para esta ação.",
	KindUnknown:            "Erro inesperado.",
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return defaultMessages[e.Kind] + " (" + e.Err.Error() + ")"
	}
	return defaultMessages[e.Kind]
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf classifies err. nil is KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var verr *validation.Errors
	if errors.As(err, &verr) {
		return KindValidation
	}
	var limited *ratelimit.LimitedError
	if errors.As(err, &limited) {
		return KindRateLimited
	}
	if isNetworkError(err) {
		return KindNetworkFailure
	}
	return KindUnknown
}

// RateLimitedError converts a local limiter denial into an *Error.
func RateLimitedError(err *ratelimit.LimitedError) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Code:       ErrorCodeRateLimited,
		Message:    err.Error(),
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: err.RetryAfter,
		Err:        err,
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetworkFailure, Err: err}
}

// ============================================================================
// OAuth2Error: written by the server on auth endpoints
// ============================================================================

// OAuth2Error is an RFC 6749 style error. The server writes it with
// WriteError; the client parses it back into an *Error.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as JSON with caching disabled.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "requisição inválida",
	}

	ErrInvalidGrant = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "e-mail ou senha inválidos",
	}

	ErrInvalidRefresh = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "sessão expirada ou revogada",
	}

	ErrUnsupportedGrantType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "grant_type não suportado",
	}

	ErrInvalidContentType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type deve ser application/x-www-form-urlencoded",
	}

	ErrInvalidFormBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "corpo do formulário inválido",
	}

	ErrInvalidJSONBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "corpo JSON inválido",
	}

	ErrInvalidToken = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "token ausente, inválido ou expirado",
	}

	ErrInvalidLinkToken = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidGrant,
		Description: "link inválido ou expirado",
	}

	ErrEmailNotConfirmedResponse = &OAuth2Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeEmailNotConfirmed,
		Description: "confirme seu e-mail antes de entrar",
	}

	ErrEmailTaken = &OAuth2Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "este e-mail já está cadastrado",
	}

	ErrForbiddenResponse = &OAuth2Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsufficientPerm,
		Description: "você não tem permissão para esta ação",
	}

	ErrNotFoundResponse = &OAuth2Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "registro não encontrado",
	}

	ErrConflictResponse = &OAuth2Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "registro já existe",
	}

	ErrUnavailable = &OAuth2Error{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "serviço temporariamente indisponível",
	}

	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "erro interno",
	}
)

// WriteValidation writes a 422 with field details.
func WriteValidation(w http.ResponseWriter, errs *validation.Errors) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Code:    ErrorCodeValidation,
		Message: "dados inválidos",
		Details: errs.Map(),
	})
}

// ============================================================================
// Response parsing
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *Error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	e := &Error{StatusCode: resp.StatusCode}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		e.Code = valErr.Code
		e.Message = valErr.Message
		e.Details = valErr.Details
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		e.Code = errResp.Error
		e.Message = errResp.ErrorDescription
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	case e.Code == ErrorCodeInvalidGrant || e.Code == ErrorCodeInvalidToken:
		e.Kind = KindInvalidCredentials
	case e.Code == ErrorCodeEmailNotConfirmed:
		e.Kind = KindEmailNotConfirmed
	case e.Code == ErrorCodeValidation || resp.StatusCode == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = KindInvalidCredentials
	case resp.StatusCode == http.StatusForbidden:
		e.Kind = KindForbidden
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = KindNotFound
	case resp.StatusCode == http.StatusConflict:
		e.Kind = KindConflict
	default:
		e.Kind = KindUnknown
		if e.Message == "" {
			e.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
	}
	return e
}
