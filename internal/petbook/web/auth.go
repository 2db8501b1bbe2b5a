package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/guard"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// formError turns a service error into the message and status shown on a
// form. Unexpected errors are logged and shown generically.
func formError(r *http.Request, err error) (int, string, map[string]string) {
	var (
		verr    *validation.Errors
		limited *ratelimit.LimitedError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "Verifique os campos destacados.", verr.Map()
	case errors.As(err, &limited):
		return http.StatusTooManyRequests, limited.Error(), nil
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "E-mail ou senha inválidos.", nil
	case errors.Is(err, service.ErrEmailNotConfirmed):
		return http.StatusForbidden, "Confirme seu e-mail antes de entrar.", nil
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Este e-mail já está cadastrado.", nil
	case errors.Is(err, service.ErrInvalidLink):
		return http.StatusBadRequest, "Link inválido ou expirado.", nil
	}
	slogx.FromContext(r.Context()).Error("page action failed", "err", err)
	return http.StatusInternalServerError, "Erro inesperado. Tente novamente.", nil
}

// formValues keeps the submitted values, minus passwords, for re-rendering.
func formValues(r *http.Request, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = r.PostFormValue(f)
	}
	return out
}

func (p *Pages) returnPath(r *http.Request) string {
	param := p.Guard.ReturnParam
	if param == "" {
		param = guard.DefaultReturnParam
	}
	return guard.SafeReturnPath(r.FormValue(param), DefaultHome)
}

func (p *Pages) signInForm(w http.ResponseWriter, r *http.Request) {
	v := view{Title: "Entrar", RedirectTo: p.returnPath(r)}
	if r.URL.Query().Has("reset") {
		v.Notice = "Senha alterada. Entre com a nova senha."
	}
	p.render(w, r, http.StatusOK, "sign-in", v)
}

func (p *Pages) signIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	pair, err := p.Identity.SignIn(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status, msg, fields := formError(r, err)
		p.render(w, r, status, "sign-in", view{
			Title:      "Entrar",
			Error:      msg,
			Fields:     fields,
			Form:       map[string]string{"email": email},
			RedirectTo: p.returnPath(r),
		})
		return
	}
	p.setSession(w, pair)
	http.Redirect(w, r, p.returnPath(r), http.StatusSeeOther)
}

var signUpFields = []string{"email", "full_name", "phone", "cpf", "shop_name", "shop_phone"}

func (p *Pages) signUpForm(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "sign-up", view{Title: "Criar conta"})
}

func (p *Pages) signUp(w http.ResponseWriter, r *http.Request) {
	in := authsdk.SignUpInput{
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		FullName:  r.PostFormValue("full_name"),
		Phone:     r.PostFormValue("phone"),
		CPF:       r.PostFormValue("cpf"),
		ShopName:  r.PostFormValue("shop_name"),
		ShopPhone: r.PostFormValue("shop_phone"),
	}
	if err := p.Identity.SignUp(r.Context(), in); err != nil {
		status, msg, fields := formError(r, err)
		p.render(w, r, status, "sign-up", view{
			Title:  "Criar conta",
			Error:  msg,
			Fields: fields,
			Form:   formValues(r, signUpFields...),
		})
		return
	}
	p.render(w, r, http.StatusOK, "notice", view{
		Title:  "Confirme seu e-mail",
		Notice: "Enviamos um link de confirmação para " + strings.TrimSpace(in.Email) + ".",
	})
}

func (p *Pages) forgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "forgot-password", view{Title: "Recuperar senha"})
}

func (p *Pages) forgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if err := p.Identity.RequestPasswordReset(r.Context(), email); err != nil {
		status, msg, fields := formError(r, err)
		p.render(w, r, status, "forgot-password", view{
			Title:  "Recuperar senha",
			Error:  msg,
			Fields: fields,
			Form:   map[string]string{"email": email},
		})
		return
	}
	p.render(w, r, http.StatusOK, "notice", view{
		Title:  "Verifique seu e-mail",
		Notice: "Se o e-mail estiver cadastrado, você receberá um link para redefinir a senha.",
	})
}

func (p *Pages) updatePasswordForm(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "update-password", view{
		Title: "Nova senha",
		Form:  map[string]string{"token": r.URL.Query().Get("token")},
	})
}

func (p *Pages) updatePassword(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PostFormValue("token"))
	if err := p.Identity.ResetPassword(r.Context(), token, r.PostFormValue("password")); err != nil {
		status, msg, fields := formError(r, err)
		p.render(w, r, status, "update-password", view{
			Title:  "Nova senha",
			Error:  msg,
			Fields: fields,
			Form:   map[string]string{"token": token},
		})
		return
	}
	// Every session was revoked with the reset.
	p.clearSession(w)
	http.Redirect(w, r, "/auth/sign-in?reset=1", http.StatusSeeOther)
}

func (p *Pages) confirm(w http.ResponseWriter, r *http.Request) {
	pair, err := p.Identity.ConfirmEmail(r.Context(), strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		status, msg, _ := formError(r, err)
		p.render(w, r, status, "notice", view{Title: "Confirmação de e-mail", Error: msg})
		return
	}
	p.setSession(w, pair)
	http.Redirect(w, r, DefaultHome, http.StatusSeeOther)
}

func (p *Pages) signOut(w http.ResponseWriter, r *http.Request) {
	if refresh := cookieValue(r, RefreshCookie); refresh != "" {
		if err := p.Identity.SignOut(r.Context(), refresh); err != nil {
			slogx.FromContext(r.Context()).Warn("page sign-out revoke failed", "err", err)
		}
	}
	p.clearSession(w)
	http.Redirect(w, r, guard.DefaultSignInPath, http.StatusSeeOther)
}
