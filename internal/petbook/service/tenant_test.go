package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

type fakePresigner struct{}

func (fakePresigner) PresignPut(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key + "?put=" + contentType, nil
}

func (fakePresigner) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key, nil
}

func newShop(t *testing.T, st store.Store, name string) string {
	t.Helper()
	id := "shop-" + name
	require.NoError(t, st.Shops().CreateShop(t.Context(), domain.Shop{ID: id, Name: name}))
	return id
}

func TestClients(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &ClientService{Store: st}
	ctx := t.Context()
	shop := newShop(t, st, "a")
	other := newShop(t, st, "b")

	c, err := svc.Create(ctx, shop, authsdk.CustomerInput{
		Name:  " Carla Dias ",
		Email: "Carla@Mail.com",
		Phone: "(11) 91234-5678",
		CPF:   "529.982.247-25",
	})
	require.NoError(t, err)
	require.Equal(t, "Carla Dias", c.Name)
	require.Equal(t, "carla@mail.com", c.Email)
	require.Equal(t, "11912345678", c.Phone)
	require.Equal(t, "52998224725", c.CPF)
	require.False(t, c.CreatedAt.IsZero())

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, shop, authsdk.CustomerInput{Name: "X", Phone: "123", CPF: "123"})
		var verrs *validation.Errors
		require.ErrorAs(t, err, &verrs)
		require.Contains(t, verrs.Map(), "phone")
		require.Contains(t, verrs.Map(), "cpf")
	})

	t.Run("search", func(t *testing.T) {
		list, err := svc.List(ctx, shop, "carla")
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, err = svc.List(ctx, shop, "ninguém")
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		_, err := svc.Get(ctx, other, c.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, svc.Delete(ctx, other, c.ID), store.ErrNotFound)
	})

	updated, err := svc.Update(ctx, shop, c.ID, authsdk.CustomerInput{Name: "Carla D.", Phone: "11912345678", Notes: "prefere sábado"})
	require.NoError(t, err)
	require.Equal(t, "Carla D.", updated.Name)
	require.Empty(t, updated.Email)
	require.Equal(t, "prefere sábado", updated.Notes)

	require.NoError(t, svc.Delete(ctx, shop, c.ID))
	_, err = svc.Get(ctx, shop, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPets(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := t.Context()
	shop := newShop(t, st, "a")
	other := newShop(t, st, "b")

	clients := &ClientService{Store: st}
	c, err := clients.Create(ctx, shop, authsdk.CustomerInput{Name: "Carla", Phone: "11912345678"})
	require.NoError(t, err)
	foreign, err := clients.Create(ctx, other, authsdk.CustomerInput{Name: "Outro", Phone: "11912345678"})
	require.NoError(t, err)

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	pets := &PetService{Store: st, Photos: fakePresigner{}, Now: func() time.Time { return now }}

	p, err := pets.Create(ctx, shop, authsdk.PetInput{
		ClientID:    c.ID,
		Name:        "Thor",
		Species:     "cão",
		Breed:       "Golden",
		BirthDate:   "2020-05-01",
		WeightGrams: 30000,
	})
	require.NoError(t, err)
	require.Equal(t, "2020-05-01", PetResponse(p).BirthDate)
	require.False(t, PetResponse(p).HasPhoto)

	t.Run("validation", func(t *testing.T) {
		var verrs *validation.Errors
		_, err := pets.Create(ctx, shop, authsdk.PetInput{ClientID: c.ID, Name: "Mia", Species: "gato", BirthDate: "2026-01-01"})
		require.ErrorAs(t, err, &verrs)
		require.Contains(t, verrs.Map(), "birth_date")

		_, err = pets.Create(ctx, shop, authsdk.PetInput{ClientID: foreign.ID, Name: "Mia", Species: "gato"})
		require.ErrorAs(t, err, &verrs)
		require.Contains(t, verrs.Map(), "client_id")
	})

	t.Run("update keeps owner", func(t *testing.T) {
		up, err := pets.Update(ctx, shop, p.ID, authsdk.PetInput{Name: "Thor", Species: "cão", WeightGrams: 31000})
		require.NoError(t, err)
		require.Equal(t, c.ID, up.ClientID)
		require.Equal(t, 31000, up.WeightGrams)
		require.Nil(t, up.BirthDate)

		var verrs *validation.Errors
		_, err = pets.Update(ctx, shop, p.ID, authsdk.PetInput{ClientID: foreign.ID, Name: "Thor", Species: "cão"})
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("photos", func(t *testing.T) {
		_, err := pets.PhotoDownloadURL(ctx, shop, p.ID)
		require.ErrorIs(t, err, ErrNoPhoto)

		var verrs *validation.Errors
		_, err = pets.PhotoUploadURL(ctx, shop, p.ID, "application/pdf")
		require.ErrorAs(t, err, &verrs)

		up, err := pets.PhotoUploadURL(ctx, shop, p.ID, "image/jpeg")
		require.NoError(t, err)
		require.Equal(t, http.MethodPut, up.Method)
		require.Contains(t, up.URL, storage.PetPhotoKey(shop, p.ID))
		require.Equal(t, now.Add(DefaultPhotoURLTTL), up.ExpiresAt)

		down, err := pets.PhotoDownloadURL(ctx, shop, p.ID)
		require.NoError(t, err)
		require.Equal(t, http.MethodGet, down.Method)

		_, err = pets.PhotoUploadURL(ctx, other, p.ID, "image/png")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("photos disabled", func(t *testing.T) {
		disabled := &PetService{Store: st, Photos: storage.Disabled{}}
		_, err := disabled.PhotoUploadURL(ctx, shop, p.ID, "image/png")
		require.ErrorIs(t, err, storage.ErrDisabled)
	})

	list, err := pets.List(ctx, shop, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, clients.Delete(ctx, shop, c.ID))
	_, err = pets.Get(ctx, shop, p.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "pets go with their owner")
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &CatalogService{Store: st}
	ctx := t.Context()
	shop := newShop(t, st, "a")

	sv, err := svc.Create(ctx, shop, authsdk.ServiceInput{Name: "Banho", PriceCents: 5000, DurationMinutes: 60})
	require.NoError(t, err)
	require.True(t, sv.Active)

	sv, err = svc.Update(ctx, shop, sv.ID, authsdk.ServiceInput{Name: "Banho", PriceCents: 5500, DurationMinutes: 60, Active: ptr(false)})
	require.NoError(t, err)
	require.False(t, sv.Active)
	require.EqualValues(t, 5500, sv.PriceCents)

	var verrs *validation.Errors
	_, err = svc.Create(ctx, shop, authsdk.ServiceInput{Name: "Tosa", PriceCents: -1})
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs.Map(), "price_cents")
	require.Contains(t, verrs.Map(), "duration_minutes")

	list, err := svc.List(ctx, shop)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, shop, sv.ID))
	require.ErrorIs(t, svc.Delete(ctx, shop, sv.ID), store.ErrNotFound)
}

type agenda struct {
	st    store.Store
	shop  string
	pet   string
	bath  domain.Service
	appts *AppointmentService
}

func newAgenda(t *testing.T, now time.Time) *agenda {
	t.Helper()
	ctx := t.Context()

	st := newTestStore(t)
	shop := newShop(t, st, "a")
	c, err := (&ClientService{Store: st}).Create(ctx, shop, authsdk.CustomerInput{Name: "Carla", Phone: "11912345678"})
	require.NoError(t, err)
	p, err := (&PetService{Store: st}).Create(ctx, shop, authsdk.PetInput{ClientID: c.ID, Name: "Thor", Species: "cão"})
	require.NoError(t, err)
	bath, err := (&CatalogService{Store: st}).Create(ctx, shop, authsdk.ServiceInput{Name: "Banho", PriceCents: 5000, DurationMinutes: 60})
	require.NoError(t, err)

	return &agenda{
		st:    st,
		shop:  shop,
		pet:   p.ID,
		bath:  bath,
		appts: &AppointmentService{Store: st, Now: func() time.Time { return now }},
	}
}

func (a *agenda) book(t *testing.T, at time.Time) domain.Appointment {
	t.Helper()
	appt, err := a.appts.Create(t.Context(), a.shop, authsdk.AppointmentInput{PetID: a.pet, ServiceID: a.bath.ID, ScheduledAt: at})
	require.NoError(t, err)
	return appt
}

func TestAppointments(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	a := newAgenda(t, now)
	ctx := t.Context()

	appt := a.book(t, now.Add(2*time.Hour))
	require.Equal(t, domain.StatusScheduled, appt.Status)
	require.EqualValues(t, 5000, appt.PriceCents, "price defaults to the service")

	t.Run("price override", func(t *testing.T) {
		got, err := a.appts.Create(ctx, a.shop, authsdk.AppointmentInput{
			PetID: a.pet, ServiceID: a.bath.ID, ScheduledAt: now.Add(48 * time.Hour), PriceCents: ptr(int64(4000)),
		})
		require.NoError(t, err)
		require.EqualValues(t, 4000, got.PriceCents)
	})

	t.Run("references checked", func(t *testing.T) {
		var verrs *validation.Errors
		_, err := a.appts.Create(ctx, a.shop, authsdk.AppointmentInput{
			PetID: "nope", ServiceID: "nope", StaffID: "nope", ScheduledAt: now,
		})
		require.ErrorAs(t, err, &verrs)
		require.Contains(t, verrs.Map(), "pet_id")
		require.Contains(t, verrs.Map(), "service_id")
		require.Contains(t, verrs.Map(), "staff_id")
	})

	t.Run("lifecycle", func(t *testing.T) {
		_, err := a.appts.UpdateStatus(ctx, a.shop, appt.ID, "completed")
		require.ErrorIs(t, err, ErrInvalidTransition)

		for _, st := range []string{"confirmed", "in_progress", "completed"} {
			got, err := a.appts.UpdateStatus(ctx, a.shop, appt.ID, st)
			require.NoError(t, err)
			require.Equal(t, st, string(got.Status))
		}

		_, err = a.appts.UpdateStatus(ctx, a.shop, appt.ID, "cancelled")
		require.ErrorIs(t, err, ErrInvalidTransition)

		var verrs *validation.Errors
		_, err = a.appts.UpdateStatus(ctx, a.shop, appt.ID, "done")
		require.ErrorAs(t, err, &verrs)

		_, err = a.appts.UpdateStatus(ctx, "shop-b", appt.ID, "cancelled")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		a.book(t, now.AddDate(0, 0, 10))

		day, err := a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{Date: "2025-03-15"})
		require.NoError(t, err)
		require.Len(t, day, 1)

		week, err := a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{})
		require.NoError(t, err)
		require.Len(t, week, 2)

		all, err := a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{From: now, To: now.AddDate(0, 1, 0)})
		require.NoError(t, err)
		require.Len(t, all, 3)

		var verrs *validation.Errors
		_, err = a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{Date: "15/03/2025"})
		require.ErrorAs(t, err, &verrs)
		_, err = a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{From: now})
		require.ErrorAs(t, err, &verrs)
		_, err = a.appts.List(ctx, a.shop, authsdk.AppointmentQuery{From: now, To: now})
		require.ErrorAs(t, err, &verrs)
	})
}

func TestAppointmentsInactiveService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	a := newAgenda(t, now)
	ctx := t.Context()

	_, err := (&CatalogService{Store: a.st}).Update(ctx, a.shop, a.bath.ID, authsdk.ServiceInput{
		Name: "Banho", PriceCents: 5000, DurationMinutes: 60, Active: ptr(false),
	})
	require.NoError(t, err)

	_, err = a.appts.Create(ctx, a.shop, authsdk.AppointmentInput{PetID: a.pet, ServiceID: a.bath.ID, ScheduledAt: now})
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, "serviço inativo", verrs.Map()["service_id"])
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	a := newAgenda(t, now)
	ctx := t.Context()

	done := a.book(t, now.Add(-3*time.Hour))
	for _, st := range []string{"confirmed", "in_progress", "completed"} {
		_, err := a.appts.UpdateStatus(ctx, a.shop, done.ID, st)
		require.NoError(t, err)
	}
	for i := range 7 {
		a.book(t, now.Add(time.Duration(i+1)*time.Hour))
	}
	cancelled := a.book(t, now.Add(30*time.Minute))
	_, err := a.appts.UpdateStatus(ctx, a.shop, cancelled.ID, "cancelled")
	require.NoError(t, err)

	svc := &DashboardService{Store: a.st, Now: func() time.Time { return now }}
	d, err := svc.Get(ctx, a.shop)
	require.NoError(t, err)

	require.Equal(t, 1, d.Clients)
	require.Equal(t, 1, d.Pets)
	require.Equal(t, 8, d.AppointmentsToday)
	require.Equal(t, 7, d.UpcomingAppointments)
	require.EqualValues(t, 5000, d.RevenueMonthCents)
	require.Len(t, d.Next, DashboardNext)
	require.Equal(t, now.Add(time.Hour), d.Next[0].ScheduledAt)

	resp := DashboardResponse(d)
	require.Len(t, resp.Next, DashboardNext)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC) // 22:00 on 31 March in BRT
	w := Window(now, loc)

	require.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, loc), w.DayStart)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, loc), w.DayEnd)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), w.MonthStart)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, loc), w.MonthEnd)
}
