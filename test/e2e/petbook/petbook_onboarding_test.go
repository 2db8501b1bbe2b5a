package petbook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
)

func TestOwnerOnboarding(t *testing.T) {
	api := setupAPIContainer(t, nil)
	ctx := t.Context()
	owner := api.signUpOwner(t)

	id, err := owner.GetUser(ctx)
	require.NoError(t, err)
	profile, err := owner.GetProfile(ctx, id.ID)
	require.NoError(t, err)
	require.Equal(t, "owner", profile.Role)

	shop, err := owner.GetShop(ctx)
	require.NoError(t, err)
	require.Equal(t, ownerInput.ShopName, shop.Name)

	customer, err := owner.CreateCustomer(ctx, authsdk.CustomerInput{Name: "João Lima", Phone: "(11) 91234-5678"})
	require.NoError(t, err)
	pet, err := owner.CreatePet(ctx, authsdk.PetInput{ClientID: customer.ID, Name: "Rex", Species: "cão"})
	require.NoError(t, err)
	svc, err := owner.CreateService(ctx, authsdk.ServiceInput{Name: "Banho", PriceCents: 4590, DurationMinutes: 60})
	require.NoError(t, err)

	appt, err := owner.CreateAppointment(ctx, authsdk.AppointmentInput{
		PetID:       pet.ID,
		ServiceID:   svc.ID,
		ScheduledAt: time.Now().Add(48 * time.Hour).Truncate(time.Minute),
	})
	require.NoError(t, err)
	require.Equal(t, "scheduled", appt.Status)
	require.Equal(t, int64(4590), appt.PriceCents)

	dash, err := owner.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, dash.Clients)
	require.Equal(t, 1, dash.Pets)
	require.Equal(t, 1, dash.UpcomingAppointments)
}

func TestUnconfirmedSignIn(t *testing.T) {
	api := setupAPIContainer(t, nil)
	ctx := t.Context()

	client := authsdk.NewClient(api.URL)
	_, err := client.SignUp(ctx, ownerInput)
	require.NoError(t, err)

	_, err = client.SignInWithPassword(ctx, ownerInput.Email, ownerPassword)
	requireKind(t, err, authsdk.KindEmailNotConfirmed)
}

func TestPasswordReset(t *testing.T) {
	api := setupAPIContainer(t, nil)
	ctx := t.Context()
	api.signUpOwner(t)

	sdk := authsdk.NewSDKClient(api.URL)
	require.NoError(t, sdk.RecoverPassword(ctx, ownerInput.Email))
	require.NoError(t, sdk.ResetPassword(ctx, api.lastLinkToken(t, "reset"), "novaSenha123"))

	_, err := sdk.PasswordGrant(ctx, ownerInput.Email, ownerPassword)
	requireKind(t, err, authsdk.KindInvalidCredentials)

	tok, err := sdk.PasswordGrant(ctx, ownerInput.Email, "novaSenha123")
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
}

func TestInvitedStaffCannotManageStaff(t *testing.T) {
	api := setupAPIContainer(t, nil)
	ctx := t.Context()
	owner := api.signUpOwner(t)

	inv, err := owner.CreateInvite(ctx, "groomer")
	require.NoError(t, err)

	sdk := authsdk.NewSDKClient(api.URL)
	_, err = sdk.RedeemInvite(ctx, authsdk.RedeemInviteRequest{
		Token:    inv.Token,
		Email:    "bia@petbook.com.br",
		Password: "senha5678",
		FullName: "Bia Costa",
		Phone:    "(11) 97777-6666",
		CPF:      "529.982.247-25",
	})
	require.NoError(t, err)

	groomer := authsdk.NewClient(api.URL)
	_, err = groomer.SignInWithPassword(ctx, "bia@petbook.com.br", "senha5678")
	require.NoError(t, err)

	_, err = groomer.ListStaff(ctx)
	requireKind(t, err, authsdk.KindForbidden)

	_, err = groomer.Dashboard(ctx)
	require.NoError(t, err)
}
