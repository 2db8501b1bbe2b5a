package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/events"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

func TestSignUpAndConfirm(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.identity.SignUp(ctx, owner))
	require.Equal(t, 1, f.mail.count(events.SubjectMailConfirm))

	u, err := f.store.Users().GetUserByEmail(ctx, "ana@petbook.com.br")
	require.NoError(t, err)
	require.False(t, u.Confirmed())

	_, err = f.identity.SignIn(ctx, owner.Email, owner.Password)
	require.ErrorIs(t, err, ErrEmailNotConfirmed)

	token := f.mail.lastToken(t, events.SubjectMailConfirm)
	pair, err := f.identity.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotNil(t, pair.User.EmailConfirmedAt)

	claims, err := f.keys.Verifier.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, "ana@petbook.com.br", claims.Email)
	require.NotEmpty(t, claims.SID)

	t.Run("shop created with owner profile", func(t *testing.T) {
		p, err := f.profiles.GetProfile(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, rbac.RoleOwner.String(), p.Role)
		require.Equal(t, "Ana Souza", p.FullName)
		require.Equal(t, "12345678909", p.CPF)

		shop, err := f.shops.Get(ctx, p.ShopID)
		require.NoError(t, err)
		require.Equal(t, "Banho & Tosa da Ana", shop.Name)
		require.Equal(t, "1133334444", shop.Phone)

		_, err = f.store.PendingShops().GetPendingShop(ctx, "ana@petbook.com.br")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("link is single use", func(t *testing.T) {
		_, err := f.identity.ConfirmEmail(ctx, token)
		require.ErrorIs(t, err, ErrInvalidLink)
	})

	t.Run("confirmed email is taken", func(t *testing.T) {
		require.ErrorIs(t, f.identity.SignUp(ctx, owner), ErrEmailTaken)
	})

	t.Run("sign in", func(t *testing.T) {
		pair, err := f.identity.SignIn(ctx, "ANA@petbook.com.br", owner.Password)
		require.NoError(t, err)
		require.Equal(t, u.ID, pair.User.ID)
	})
}

func TestSignUpWithoutShop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	in := owner
	in.ShopName = ""
	require.NoError(t, f.identity.SignUp(ctx, in))

	pair, err := f.identity.ConfirmEmail(ctx, f.mail.lastToken(t, events.SubjectMailConfirm))
	require.NoError(t, err)

	_, err = f.profiles.GetProfile(ctx, pair.User.ID)
	require.ErrorIs(t, err, session.ErrProfileNotFound)
}

func TestSignUpResendsWhileUnconfirmed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.identity.SignUp(ctx, owner))
	again := owner
	again.Password = "outrasenha99"
	require.NoError(t, f.identity.SignUp(ctx, again))
	require.Equal(t, 2, f.mail.count(events.SubjectMailConfirm))

	_, err := f.identity.ConfirmEmail(ctx, f.mail.lastToken(t, events.SubjectMailConfirm))
	require.NoError(t, err)

	_, err = f.identity.SignIn(ctx, owner.Email, owner.Password)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.identity.SignIn(ctx, owner.Email, again.Password)
	require.NoError(t, err)
}

func TestSignUpAgainSpendsEarlierLinks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.identity.SignUp(ctx, owner))
	first := f.mail.lastToken(t, events.SubjectMailConfirm)

	again := owner
	again.Password = "atacante99"
	again.ShopName = ""
	again.ShopPhone = ""
	require.NoError(t, f.identity.SignUp(ctx, again))

	_, err := f.identity.ConfirmEmail(ctx, first)
	require.ErrorIs(t, err, ErrInvalidLink)

	_, err = f.store.PendingShops().GetPendingShop(ctx, owner.Email)
	require.ErrorIs(t, err, store.ErrNotFound, "sign-up without a shop drops the pending one")

	pair, err := f.identity.ConfirmEmail(ctx, f.mail.lastToken(t, events.SubjectMailConfirm))
	require.NoError(t, err)
	_, err = f.profiles.GetProfile(ctx, pair.User.ID)
	require.ErrorIs(t, err, session.ErrProfileNotFound)
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	in := owner
	in.CPF = "111.111.111-11"
	in.Password = "curta"

	err := f.identity.SignUp(t.Context(), in)
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs.Map(), "cpf")
	require.Contains(t, verrs.Map(), "password")
	require.Zero(t, f.mail.count(events.SubjectMailConfirm))
}

func TestSignInRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	f.signUpOwner(t)

	for range ratelimit.DefaultMaxAttempts {
		_, err := f.identity.SignIn(ctx, owner.Email, "senhaerrada1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := f.identity.SignIn(ctx, owner.Email, owner.Password)
	var limited *ratelimit.LimitedError
	require.ErrorAs(t, err, &limited)
	require.Equal(t, ratelimit.DefaultWindow, limited.RetryAfter)

	f.clock.Advance(ratelimit.DefaultWindow)
	_, err = f.identity.SignIn(ctx, owner.Email, owner.Password)
	require.NoError(t, err)
}

func TestSignInUnknownEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.identity.SignIn(t.Context(), "ninguem@petbook.com.br", "senha1234")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, ratelimit.DefaultMaxAttempts-1, f.limiter.Remaining("signin:ninguem@petbook.com.br"))
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	f.signUpOwner(t)

	first, err := f.identity.SignIn(ctx, owner.Email, owner.Password)
	require.NoError(t, err)

	second, err := f.identity.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	c1, err := f.keys.Verifier.Verify(first.AccessToken)
	require.NoError(t, err)
	c2, err := f.keys.Verifier.Verify(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, c1.SID, c2.SID, "rotation keeps the session")

	_, err = f.identity.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = f.identity.Refresh(ctx, "")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	require.NoError(t, f.identity.SignOut(ctx, second.RefreshToken))
	_, err = f.identity.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	require.NoError(t, f.identity.SignOut(ctx, "desconhecido"))
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	f.signUpOwner(t)

	signedIn, err := f.identity.SignIn(ctx, owner.Email, owner.Password)
	require.NoError(t, err)

	t.Run("unknown email is silent", func(t *testing.T) {
		require.NoError(t, f.identity.RequestPasswordReset(ctx, "ninguem@petbook.com.br"))
		require.Zero(t, f.mail.count(events.SubjectMailReset))
	})

	require.NoError(t, f.identity.RequestPasswordReset(ctx, owner.Email))
	token := f.mail.lastToken(t, events.SubjectMailReset)

	t.Run("confirm link cannot reset", func(t *testing.T) {
		err := f.identity.ResetPassword(ctx, f.mail.lastToken(t, events.SubjectMailConfirm), "novasenha123")
		require.ErrorIs(t, err, ErrInvalidLink)
	})

	t.Run("weak password", func(t *testing.T) {
		var verrs *validation.Errors
		require.ErrorAs(t, f.identity.ResetPassword(ctx, token, "semdigitos"), &verrs)
		require.Contains(t, verrs.Map(), "password")
	})

	require.NoError(t, f.identity.ResetPassword(ctx, token, "novasenha123"))
	require.ErrorIs(t, f.identity.ResetPassword(ctx, token, "novasenha123"), ErrInvalidLink)

	_, err = f.identity.Refresh(ctx, signedIn.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh, "reset signs out every session")

	_, err = f.identity.SignIn(ctx, owner.Email, "novasenha123")
	require.NoError(t, err)
}

func TestPasswordResetRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()

	for range ratelimit.DefaultMaxAttempts {
		require.NoError(t, f.identity.RequestPasswordReset(ctx, "ninguem@petbook.com.br"))
	}
	var limited *ratelimit.LimitedError
	require.ErrorAs(t, f.identity.RequestPasswordReset(ctx, "ninguem@petbook.com.br"), &limited)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	userID, _ := f.signUpOwner(t)

	var verrs *validation.Errors
	require.ErrorAs(t, f.identity.UpdatePassword(ctx, userID, "123"), &verrs)

	require.NoError(t, f.identity.UpdatePassword(ctx, userID, "trocada2025"))
	_, err := f.identity.SignIn(ctx, owner.Email, "trocada2025")
	require.NoError(t, err)

	u, err := f.identity.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "ana@petbook.com.br", u.Email)
}

func TestProfileUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := t.Context()
	userID, _ := f.signUpOwner(t)

	name := "  Ana Lima  "
	p, err := f.profiles.Update(ctx, userID, authsdk.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	require.Equal(t, "Ana Lima", p.FullName)
	require.Equal(t, "11987654321", p.Phone)

	bad := "123"
	_, err = f.profiles.Update(ctx, userID, authsdk.ProfileUpdate{Phone: &bad})
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)

	_, err = f.profiles.Update(ctx, "sem-perfil", authsdk.ProfileUpdate{FullName: &name})
	require.ErrorIs(t, err, store.ErrNotFound)
}
