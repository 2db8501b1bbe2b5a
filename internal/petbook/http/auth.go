package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// AuthHandler serves the account endpoints under /v1/auth.
type AuthHandler struct {
	Identity *service.IdentityService
}

// HandleSignUp godoc
//
//	@Summary		Sign up
//	@Description	Registers an account and sends a confirmation e-mail. When shop_name is set the shop is created once the e-mail is confirmed.
//	@Description	Signing up again with an unconfirmed address replaces the password and resends the link.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SignUpInput				true	"Account and optional shop"
//	@Success		202		{object}	authsdk.SignUpResponse			"confirmation_required"
//	@Failure		400		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		409		{object}	authsdk.ErrorResponse			"email_taken"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Failure		429		{object}	authsdk.ErrorResponse			"rate_limit_exceeded"
//	@Router			/v1/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in authsdk.SignUpInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.Identity.SignUp(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.SignUpResponse{ConfirmationRequired: true})
}

// HandleConfirm godoc
//
//	@Summary		Confirm e-mail
//	@Description	Redeems the token from the confirmation e-mail and signs the user in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ConfirmRequest	true	"Confirmation token"
//	@Success		200		{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, user"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid or expired link"
//	@Router			/v1/auth/confirm [post].
func (h *AuthHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var in authsdk.ConfirmRequest
	if !decode(w, r, &in) {
		return
	}
	pair, err := h.Identity.ConfirmEmail(r.Context(), strings.TrimSpace(in.Token))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.TokenResponse(pair))
}

// HandleToken godoc
//
//	@Summary		Token endpoint
//	@Description	Issues tokens with the password grant (username is the e-mail) or rotates a refresh token.
//	@Description	Five failed password attempts per e-mail lock sign-in for 15 minutes.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(password, refresh_token)
//	@Param			username		formData	string					false	"E-mail (password grant)"
//	@Param			password		formData	string					false	"Password (password grant)"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, user"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"invalid_grant"
//	@Failure		403				{object}	authsdk.ErrorResponse	"email_not_confirmed"
//	@Failure		429				{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/token [post].
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	var (
		pair *domain.TokenPair
		err  error
	)
	switch r.Form.Get("grant_type") {
	case "password":
		email := strings.TrimSpace(r.Form.Get("username"))
		password := r.Form.Get("password")
		if email == "" || password == "" {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		pair, err = h.Identity.SignIn(r.Context(), email, password)
	case "refresh_token":
		token := strings.TrimSpace(r.Form.Get("refresh_token"))
		if token == "" {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		pair, err = h.Identity.Refresh(r.Context(), token)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
		return
	}

	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.TokenResponse(pair))
}

// HandleRevoke godoc
//
//	@Summary		Revoke refresh token
//	@Description	Signs out by revoking a refresh token. Unknown tokens also succeed (RFC 7009).
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Param			token	formData	string	true	"Refresh token"
//	@Success		200
//	@Failure		400	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/revoke [post].
func (h *AuthHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	token := strings.TrimSpace(r.Form.Get("token"))
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if err := h.Identity.SignOut(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}

// HandleRecover godoc
//
//	@Summary		Request password reset
//	@Description	Sends a reset link when the address is registered. The response does not reveal whether it is.
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.RecoverRequest	true	"E-mail"
//	@Success		204
//	@Failure		422	{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Failure		429	{object}	authsdk.ErrorResponse			"rate_limit_exceeded"
//	@Router			/v1/auth/recover [post].
func (h *AuthHandler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	var in authsdk.RecoverRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.Identity.RequestPasswordReset(r.Context(), in.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password with the token from the reset e-mail and revokes every session of the account.
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse			"invalid or expired link"
//	@Failure		422	{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Router			/v1/auth/reset [post].
func (h *AuthHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var in authsdk.ResetPasswordRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.Identity.ResetPassword(r.Context(), strings.TrimSpace(in.Token), in.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUser godoc
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Identity
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/auth/user [get].
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.GetUser(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.IdentityResponse(u))
}

// HandleUpdatePassword godoc
//
//	@Summary		Change password
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.UpdatePasswordRequest	true	"New password"
//	@Success		204
//	@Failure		422	{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security		BearerAuth
//	@Router			/v1/auth/password [put].
func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var in authsdk.UpdatePasswordRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.Identity.UpdatePassword(r.Context(), httpx.UserIDFromContext(r.Context()), in.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseForm accepts application/x-www-form-urlencoded bodies only.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return false
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}
