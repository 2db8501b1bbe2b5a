package domain

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// next lists the forward step of the lifecycle. Cancellation is allowed
// from any non-terminal status.
var next = map[AppointmentStatus]AppointmentStatus{
	StatusScheduled:  StatusConfirmed,
	StatusConfirmed:  StatusInProgress,
	StatusInProgress: StatusCompleted,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(s); st {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether an appointment may move from s to to.
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	if s.Terminal() {
		return false
	}
	return to == StatusCancelled || next[s] == to
}

type Appointment struct {
	ID          string
	ShopID      string
	PetID       string
	ServiceID   string
	StaffID     string // optional groomer
	ScheduledAt time.Time
	Status      AppointmentStatus
	PriceCents  int64
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
