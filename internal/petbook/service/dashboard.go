package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
)

// DashboardNext is how many upcoming appointments the dashboard lists.
const DashboardNext = 5

// Dashboard is the summary plus the first upcoming appointments.
type Dashboard struct {
	domain.DashboardSummary
	Next []domain.Appointment
}

type DashboardService struct {
	Store store.Store

	// Location defines "today" and "this month". Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

func (s *DashboardService) Get(ctx context.Context, shopID string) (Dashboard, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	w := Window(now, loc)
	sum, err := s.Store.Dashboard().Summary(ctx, shopID, w)
	if err != nil {
		return Dashboard{}, err
	}

	// Next only looks DefaultAgendaDays ahead.
	list, err := s.Store.Appointments().ListAppointments(ctx, shopID, now, w.DayStart.AddDate(0, 0, DefaultAgendaDays))
	if err != nil {
		return Dashboard{}, err
	}
	next := make([]domain.Appointment, 0, DashboardNext)
	for _, a := range list {
		if len(next) == DashboardNext {
			break
		}
		if a.Status == domain.StatusScheduled || a.Status == domain.StatusConfirmed {
			next = append(next, a)
		}
	}

	return Dashboard{DashboardSummary: sum, Next: next}, nil
}

// Window returns the day and month around now in loc.
func Window(now time.Time, loc *time.Location) store.DashboardWindow {
	local := now.In(loc)
	day := startOfDay(local)
	month := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return store.DashboardWindow{
		Now:        now,
		DayStart:   day,
		DayEnd:     day.AddDate(0, 0, 1),
		MonthStart: month,
		MonthEnd:   month.AddDate(0, 1, 0),
	}
}
