package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
)

type appointmentsRepo struct{ c conn }

const appointmentColumns = `id, shop_id, pet_id, service_id, staff_id, scheduled_at, status, price_cents, notes, created_at, updated_at`

func scanAppointment(s scanner) (domain.Appointment, error) {
	var (
		a                           domain.Appointment
		serviceID, staffID          sql.NullString
		status                      string
		scheduled, created, updated int64
	)
	err := s.Scan(&a.ID, &a.ShopID, &a.PetID, &serviceID, &staffID, &scheduled,
		&status, &a.PriceCents, &a.Notes, &created, &updated)
	if err != nil {
		return domain.Appointment{}, err
	}
	a.ServiceID = serviceID.String
	a.StaffID = staffID.String
	a.Status = domain.AppointmentStatus(status)
	a.ScheduledAt = fromUnix(scheduled)
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	return a, nil
}

func (r appointmentsRepo) ListAppointments(ctx context.Context, shopID string, from, to time.Time) ([]domain.Appointment, error) {
	rows, err := r.c.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE shop_id = ? AND scheduled_at >= ? AND scheduled_at < ?
		 ORDER BY scheduled_at, id`,
		shopID, unix(from), unix(to),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (r appointmentsRepo) GetAppointment(ctx context.Context, shopID, id string) (domain.Appointment, error) {
	a, err := scanAppointment(r.c.queryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE shop_id = ? AND id = ?`, shopID, id))
	return a, r.c.mapErr(err)
}

func (r appointmentsRepo) CreateAppointment(ctx context.Context, a domain.Appointment) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO appointments (id, shop_id, pet_id, service_id, staff_id, scheduled_at, status, price_cents, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ShopID, a.PetID, nullString(a.ServiceID), nullString(a.StaffID), unix(a.ScheduledAt),
		string(a.Status), a.PriceCents, a.Notes, now, now,
	)
	return err
}

func (r appointmentsRepo) UpdateAppointmentStatus(ctx context.Context, shopID, id string, status domain.AppointmentStatus, at time.Time) error {
	return r.c.execOne(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE shop_id = ? AND id = ?`,
		string(status), unix(at), shopID, id,
	)
}

type dashboardRepo struct{ c conn }

func (r dashboardRepo) Summary(ctx context.Context, shopID string, w store.DashboardWindow) (domain.DashboardSummary, error) {
	var s domain.DashboardSummary
	err := r.c.queryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM clients WHERE shop_id = ?),
		   (SELECT COUNT(*) FROM pets WHERE shop_id = ?),
		   (SELECT COUNT(*) FROM appointments
		     WHERE shop_id = ? AND scheduled_at >= ? AND scheduled_at < ? AND status <> ?),
		   (SELECT COUNT(*) FROM appointments
		     WHERE shop_id = ? AND scheduled_at >= ? AND status IN (?, ?)),
		   (SELECT COALESCE(SUM(price_cents), 0) FROM appointments
		     WHERE shop_id = ? AND scheduled_at >= ? AND scheduled_at < ? AND status = ?)`,
		shopID,
		shopID,
		shopID, unix(w.DayStart), unix(w.DayEnd), string(domain.StatusCancelled),
		shopID, unix(w.Now), string(domain.StatusScheduled), string(domain.StatusConfirmed),
		shopID, unix(w.MonthStart), unix(w.MonthEnd), string(domain.StatusCompleted),
	).Scan(&s.Clients, &s.Pets, &s.AppointmentsToday, &s.UpcomingAppointments, &s.RevenueMonthCents)
	if err != nil {
		return domain.DashboardSummary{}, r.c.mapErr(err)
	}
	return s, nil
}
