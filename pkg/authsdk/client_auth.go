package authsdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

// SignUp registers an account. The server always answers 202 with
// confirmation_required until the e-mail link is followed.
func (c *SDKClient) SignUp(ctx context.Context, in SignUpInput) (*SignUpResponse, error) {
	resp, err := c.sendJSON(ctx, http.MethodPost, "/v1/auth/signup", in, nil)
	if err != nil {
		return nil, err
	}
	var out SignUpResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmEmail redeems a confirmation token and signs the user in.
func (c *SDKClient) ConfirmEmail(ctx context.Context, token string) (*TokenResponse, error) {
	resp, err := c.sendJSON(ctx, http.MethodPost, "/v1/auth/confirm", ConfirmRequest{Token: token}, nil)
	if err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// PasswordGrant exchanges e-mail and password for a token pair.
func (c *SDKClient) PasswordGrant(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.requestToken(ctx, url.Values{
		"grant_type": {"password"},
		"username":   {email},
		"password":   {password},
	})
}

// RefreshGrant rotates a refresh token. The old token is revoked by the server.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.requestToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/v1/auth/token", data)
	if err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeToken revokes a refresh token (RFC 7009: unknown tokens still succeed).
func (c *SDKClient) RevokeToken(ctx context.Context, refreshToken string) error {
	resp, err := c.postForm(ctx, "/v1/auth/revoke", url.Values{"token": {refreshToken}})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

// RecoverPassword asks for a reset link. It succeeds whether or not the
// address is registered.
func (c *SDKClient) RecoverPassword(ctx context.Context, email string) error {
	resp, err := c.sendJSON(ctx, http.MethodPost, "/v1/auth/recover", RecoverRequest{Email: email}, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ResetPassword sets a new password using the token from the reset link.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password string) error {
	resp, err := c.sendJSON(ctx, http.MethodPost, "/v1/auth/reset", ResetPasswordRequest{Token: token, Password: password}, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// RedeemInvite creates a confirmed staff account from an invite token.
func (c *SDKClient) RedeemInvite(ctx context.Context, req RedeemInviteRequest) (*Identity, error) {
	resp, err := c.sendJSON(ctx, http.MethodPost, "/v1/staff/invites/redeem", req, nil)
	if err != nil {
		return nil, err
	}
	var out Identity
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchJWKS returns the server's public signing keys.
func (c *SDKClient) FetchJWKS(ctx context.Context) (jwtx.JWKS, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return jwtx.JWKS{}, err
	}
	var out jwtx.JWKS
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return jwtx.JWKS{}, err
	}
	return out, nil
}

// GetLiveness checks /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*Health, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks /readyz.
func (c *SDKClient) GetReadiness(ctx context.Context) (*Health, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*Health, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var out Health
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
