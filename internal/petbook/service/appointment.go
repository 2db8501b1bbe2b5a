package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/idx"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// DefaultAgendaDays is the range listed when no date or range is given.
const DefaultAgendaDays = 7

// AppointmentService books pets for services and moves appointments
// through their lifecycle.
type AppointmentService struct {
	Store store.Store

	// Location defines the shop's calendar days. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

func (s *AppointmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AppointmentService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// List returns the appointments of one day (q.Date), of [q.From, q.To), or
// of the next DefaultAgendaDays starting today.
func (s *AppointmentService) List(ctx context.Context, shopID string, q authsdk.AppointmentQuery) ([]domain.Appointment, error) {
	from, to, err := s.window(q)
	if err != nil {
		return nil, err
	}
	return s.Store.Appointments().ListAppointments(ctx, shopID, from, to)
}

func (s *AppointmentService) window(q authsdk.AppointmentQuery) (time.Time, time.Time, error) {
	var errs validation.Errors
	switch {
	case q.Date != "":
		day, err := time.ParseInLocation(authsdk.BirthDateLayout, q.Date, s.loc())
		if err != nil {
			errs.Add("date", "data inválida, use AAAA-MM-DD")
			return time.Time{}, time.Time{}, errs.Err()
		}
		return day, day.AddDate(0, 0, 1), nil

	case !q.From.IsZero() || !q.To.IsZero():
		if q.From.IsZero() || q.To.IsZero() {
			errs.Add("from", "informe o início e o fim do período")
			return time.Time{}, time.Time{}, errs.Err()
		}
		if !q.From.Before(q.To) {
			errs.Add("to", "o fim do período deve ser depois do início")
			return time.Time{}, time.Time{}, errs.Err()
		}
		return q.From, q.To, nil
	}

	today := startOfDay(s.now().In(s.loc()))
	return today, today.AddDate(0, 0, DefaultAgendaDays), nil
}

func (s *AppointmentService) Get(ctx context.Context, shopID, id string) (domain.Appointment, error) {
	return s.Store.Appointments().GetAppointment(ctx, shopID, id)
}

// Create books an appointment in the scheduled state. The pet and service
// must belong to the shop and the service must be active; the optional
// staff member must work there.
func (s *AppointmentService) Create(ctx context.Context, shopID string, in authsdk.AppointmentInput) (domain.Appointment, error) {
	if err := in.Validate(); err != nil {
		return domain.Appointment{}, err
	}

	var errs validation.Errors
	if _, err := s.Store.Pets().GetPet(ctx, shopID, in.PetID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, err
		}
		errs.Add("pet_id", "pet não encontrado")
	}

	sv, err := s.Store.Services().GetService(ctx, shopID, in.ServiceID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		errs.Add("service_id", "serviço não encontrado")
	case err != nil:
		return domain.Appointment{}, err
	case !sv.Active:
		errs.Add("service_id", "serviço inativo")
	}

	if in.StaffID != "" {
		p, err := s.Store.Profiles().GetProfile(ctx, in.StaffID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			errs.Add("staff_id", "profissional não encontrado")
		case err != nil:
			return domain.Appointment{}, err
		case p.ShopID != shopID:
			errs.Add("staff_id", "profissional não encontrado")
		}
	}
	if err := errs.Err(); err != nil {
		return domain.Appointment{}, err
	}

	a := domain.Appointment{
		ID:          idx.NewString(),
		ShopID:      shopID,
		PetID:       in.PetID,
		ServiceID:   in.ServiceID,
		StaffID:     in.StaffID,
		ScheduledAt: in.ScheduledAt,
		Status:      domain.StatusScheduled,
		PriceCents:  sv.PriceCents,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if in.PriceCents != nil {
		a.PriceCents = *in.PriceCents
	}
	if err := s.Store.Appointments().CreateAppointment(ctx, a); err != nil {
		return domain.Appointment{}, err
	}
	return s.Get(ctx, shopID, a.ID)
}

// UpdateStatus moves an appointment to status. Steps outside the lifecycle
// return ErrInvalidTransition.
func (s *AppointmentService) UpdateStatus(ctx context.Context, shopID, id, status string) (domain.Appointment, error) {
	to, err := domain.ParseAppointmentStatus(status)
	if err != nil {
		var errs validation.Errors
		errs.Add("status", "status inválido")
		return domain.Appointment{}, errs.Err()
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Appointments().GetAppointment(ctx, shopID, id)
		if err != nil {
			return err
		}
		if !a.Status.CanTransition(to) {
			return ErrInvalidTransition
		}
		return tx.Appointments().UpdateAppointmentStatus(ctx, shopID, id, to, s.now())
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	slogx.FromContext(ctx).Info("appointment status changed", "appointment_id", id, "status", to)
	return s.Get(ctx, shopID, id)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
