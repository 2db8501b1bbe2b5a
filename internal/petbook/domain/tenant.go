package domain

import "time"

// Client is a pet owner, a customer of the shop.
type Client struct {
	ID        string
	ShopID    string
	Name      string
	Email     string
	Phone     string
	CPF       string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Pet struct {
	ID          string
	ShopID      string
	ClientID    string
	Name        string
	Species     string
	Breed       string
	BirthDate   *time.Time
	WeightGrams int
	Notes       string
	PhotoKey    string // object key in storage, empty when no photo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service is an item of the shop's catalogue, e.g. "Banho e tosa".
type Service struct {
	ID              string
	ShopID          string
	Name            string
	Description     string
	PriceCents      int64
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DashboardSummary is the shop's at-a-glance numbers.
type DashboardSummary struct {
	Clients              int
	Pets                 int
	AppointmentsToday    int
	UpcomingAppointments int
	RevenueMonthCents    int64
}
