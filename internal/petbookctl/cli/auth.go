package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

func (e *env) signUpCommand() *cobra.Command {
	var in authsdk.SignUpInput
	var invite string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create a PetBook account. A confirmation link is sent by e-mail; pass its
token to "petbookctl confirm" to finish.

With --shop the account owns a new shop once confirmed. With --invite the
account joins the inviting shop instead and is signed in right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var err error
			if in.Email, err = e.ask(in.Email, "E-mail: "); err != nil {
				return err
			}
			if in.FullName, err = e.ask(in.FullName, "Nome completo: "); err != nil {
				return err
			}
			if in.Password, err = e.newPassword(); err != nil {
				return err
			}

			if invite != "" {
				req := authsdk.RedeemInviteRequest{
					Token:    invite,
					Email:    in.Email,
					Password: in.Password,
					FullName: in.FullName,
					Phone:    in.Phone,
					CPF:      in.CPF,
				}
				if err := req.Validate(); err != nil {
					return err
				}
				if _, err := e.client.SDK.RedeemInvite(ctx, req.Normalize()); err != nil {
					return err
				}
				res := e.holder.SignIn(ctx, in.Email, in.Password)
				if res.Err != nil && !session.IsEnrichmentError(res.Err) {
					return res.Err
				}
				e.say("Conta criada. Bem-vindo(a) à equipe!")
				return nil
			}

			res := e.holder.SignUp(ctx, in)
			if res.Err != nil {
				return res.Err
			}
			if res.User == nil {
				e.say("Enviamos um link de confirmação para %s.", strings.TrimSpace(in.Email))
				return nil
			}
			e.say("Conta criada e conectada como %s.", res.User.Email)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "e-mail address")
	f.StringVar(&in.FullName, "name", "", "full name")
	f.StringVar(&in.Phone, "phone", "", "phone with area code")
	f.StringVar(&in.CPF, "cpf", "", "CPF")
	f.StringVar(&in.ShopName, "shop", "", "create a shop with this name")
	f.StringVar(&in.ShopPhone, "shop-phone", "", "shop phone")
	f.StringVar(&invite, "invite", "", "join a shop with an invite token")
	cmd.MarkFlagsMutuallyExclusive("shop", "invite")
	return cmd
}

func (e *env) confirmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm TOKEN",
		Short: "Confirm an e-mail address and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := e.holder.ConfirmEmail(cmd.Context(), args[0])
			if res.Err != nil && !session.IsEnrichmentError(res.Err) {
				return res.Err
			}
			e.say("E-mail confirmado. Você está conectado.")
			return nil
		},
	}
}

func (e *env) signInCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with e-mail and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = e.ask(email, "E-mail: "); err != nil {
				return err
			}
			password, err := e.opts.Password("Senha: ")
			if err != nil {
				return err
			}

			res := e.holder.SignIn(cmd.Context(), email, password)
			switch {
			case res.Err == nil:
			case session.IsEnrichmentError(res.Err):
				e.opts.Logger.Warn("profile unavailable", "err", res.Err)
			default:
				return res.Err
			}
			e.say("Conectado como %s.", e.holder.State().User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail address")
	return cmd
}

func (e *env) signOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and revoke the refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := e.restore(cmd.Context())
			if errors.Is(err, errNotSignedIn) {
				e.say("Nenhuma sessão ativa.")
				return e.store.ClearSession(e.server)
			}
			if err != nil {
				return err
			}
			if res := e.holder.SignOut(cmd.Context()); res.Err != nil {
				return res.Err
			}
			e.say("Sessão encerrada.")
			return nil
		},
	}
}

type whoAmI struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	ShopID      string   `json:"shop_id,omitempty"`
	Permissions []string `json:"permissions"`
	ExpiresAt   string   `json:"expires_at"`
}

func (e *env) whoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user, role and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.restore(cmd.Context()); err != nil {
				return err
			}
			st := e.holder.State()
			if st.User == nil {
				return errNotSignedIn
			}
			if session.IsEnrichmentError(st.Err) {
				return st.Err
			}

			u := st.User
			out := whoAmI{
				ID:          u.ID,
				Email:       u.Email,
				FullName:    u.FullName,
				Role:        roleOf(u),
				ShopID:      u.ShopID,
				Permissions: make([]string, 0, len(u.Permissions)),
				ExpiresAt:   formatTime(st.Session.Expiry()),
			}
			for _, p := range u.Permissions {
				out.Permissions = append(out.Permissions, string(p))
			}
			return e.show(out, "", func(w io.Writer) {
				fmt.Fprintf(w, "E-mail:\t%s\n", out.Email)
				fmt.Fprintf(w, "Nome:\t%s\n", out.FullName)
				fmt.Fprintf(w, "Papel:\t%s\n", out.Role)
				fmt.Fprintf(w, "Loja:\t%s\n", orDash(out.ShopID))
				fmt.Fprintf(w, "Permissões:\t%s\n", orDash(strings.Join(out.Permissions, ", ")))
				fmt.Fprintf(w, "Token expira:\t%s\n", out.ExpiresAt)
			})
		},
	}
}

func (e *env) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the session tokens now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.restore(cmd.Context()); err != nil {
				return err
			}
			res := e.holder.RefreshSession(cmd.Context())
			if res.Err != nil && !session.IsEnrichmentError(res.Err) {
				return res.Err
			}
			e.say("Sessão renovada até %s.", formatTime(e.holder.State().Session.Expiry()))
			return nil
		},
	}
}

func (e *env) passwordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset or change the password",
	}

	var email string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Send a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = e.ask(email, "E-mail: "); err != nil {
				return err
			}
			if res := e.holder.ResetPassword(cmd.Context(), email); res.Err != nil {
				return res.Err
			}
			e.say("Se o e-mail estiver cadastrado, enviaremos um link para redefinir a senha.")
			return nil
		},
	}
	reset.Flags().StringVar(&email, "email", "", "e-mail address")

	var token string
	update := &cobra.Command{
		Use:   "update",
		Short: "Set a new password",
		Long: `Set a new password for the signed-in user, or with --token for the
account that requested the reset link.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if token == "" {
				if err := e.restore(ctx); err != nil {
					return err
				}
			}
			password, err := e.newPassword()
			if err != nil {
				return err
			}

			if token != "" {
				if err := e.client.SDK.ResetPassword(ctx, strings.TrimSpace(token), password); err != nil {
					return err
				}
				e.say("Senha redefinida. Entre com a nova senha.")
				return nil
			}
			if res := e.holder.UpdatePassword(ctx, password); res.Err != nil && !session.IsEnrichmentError(res.Err) {
				return res.Err
			}
			e.say("Senha alterada.")
			return nil
		},
	}
	update.Flags().StringVar(&token, "token", "", "reset token from the e-mail link")

	cmd.AddCommand(reset, update)
	return cmd
}

func (e *env) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your own profile",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			upd := authsdk.ProfileUpdate{
				FullName: changed(cmd, "name"),
				Phone:    changed(cmd, "phone"),
			}
			if upd.FullName == nil && upd.Phone == nil {
				return errors.New("nada para alterar: use --name ou --phone")
			}

			if err := e.restore(cmd.Context()); err != nil {
				return err
			}
			res := e.holder.UpdateProfile(cmd.Context(), upd)
			if res.Err != nil {
				return res.Err
			}
			e.say("Perfil atualizado.")
			return nil
		},
	}
	update.Flags().String("name", "", "full name")
	update.Flags().String("phone", "", "phone with area code")

	cmd.AddCommand(update)
	return cmd
}
