package service

import (
	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
)

// Conversions from domain records to the authsdk wire types.

func IdentityResponse(u domain.User) *authsdk.Identity {
	return &authsdk.Identity{ID: u.ID, Email: u.Email, EmailConfirmedAt: u.EmailConfirmedAt}
}

func TokenResponse(p *domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(p.ExpiresIn.Seconds()),
		User:         IdentityResponse(p.User),
	}
}

func ProfileResponse(p domain.Profile) authsdk.Profile {
	return authsdk.Profile{
		UserID:   p.UserID,
		ShopID:   p.ShopID,
		Role:     p.Role,
		FullName: p.FullName,
		Phone:    p.Phone,
		CPF:      p.CPF,
	}
}

func ShopResponse(s domain.Shop) authsdk.Shop {
	return authsdk.Shop{ID: s.ID, Name: s.Name, Phone: s.Phone, CNPJ: s.CNPJ, Address: s.Address}
}

func StaffResponse(list []domain.StaffMember) authsdk.List[authsdk.StaffMember] {
	return listOf(list, func(m domain.StaffMember) authsdk.StaffMember {
		return authsdk.StaffMember{UserID: m.UserID, Email: m.Email, FullName: m.FullName, Phone: m.Phone, Role: m.Role}
	})
}

func CustomerResponse(c domain.Client) authsdk.Customer {
	return authsdk.Customer{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CPF:       c.CPF,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func PetResponse(p domain.Pet) authsdk.Pet {
	out := authsdk.Pet{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		WeightGrams: p.WeightGrams,
		Notes:       p.Notes,
		HasPhoto:    p.PhotoKey != "",
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.BirthDate != nil {
		out.BirthDate = p.BirthDate.UTC().Format(authsdk.BirthDateLayout)
	}
	return out
}

func ServiceResponse(s domain.Service) authsdk.Service {
	return authsdk.Service{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		PriceCents:      s.PriceCents,
		DurationMinutes: s.DurationMinutes,
		Active:          s.Active,
	}
}

func AppointmentResponse(a domain.Appointment) authsdk.Appointment {
	return authsdk.Appointment{
		ID:          a.ID,
		PetID:       a.PetID,
		ServiceID:   a.ServiceID,
		StaffID:     a.StaffID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		PriceCents:  a.PriceCents,
		Notes:       a.Notes,
	}
}

func DashboardResponse(d Dashboard) authsdk.Dashboard {
	return authsdk.Dashboard{
		Clients:              d.Clients,
		Pets:                 d.Pets,
		AppointmentsToday:    d.AppointmentsToday,
		UpcomingAppointments: d.UpcomingAppointments,
		RevenueMonthCents:    d.RevenueMonthCents,
		Next:                 listOf(d.Next, AppointmentResponse).Items,
	}
}

// listOf converts every element of in. The result is never nil so that
// empty lists encode as [].
func listOf[D, W any](in []D, conv func(D) W) authsdk.List[W] {
	out := make([]W, 0, len(in))
	for _, v := range in {
		out = append(out, conv(v))
	}
	return authsdk.List[W]{Items: out}
}

func CustomersResponse(list []domain.Client) authsdk.List[authsdk.Customer] {
	return listOf(list, CustomerResponse)
}

func PetsResponse(list []domain.Pet) authsdk.List[authsdk.Pet] {
	return listOf(list, PetResponse)
}

func ServicesResponse(list []domain.Service) authsdk.List[authsdk.Service] {
	return listOf(list, ServiceResponse)
}

func AppointmentsResponse(list []domain.Appointment) authsdk.List[authsdk.Appointment] {
	return listOf(list, AppointmentResponse)
}
