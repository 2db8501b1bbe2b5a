package authsdk

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// Form validation shared by the client and the server. Validate returns a
// *validation.Errors (or nil); Normalize returns the canonical form that is
// sent and stored.

// BirthDateLayout is the wire format of Pet.BirthDate.
const BirthDateLayout = "2006-01-02"

func optional(errs *validation.Errors, field, value string, check func(string) error) {
	if strings.TrimSpace(value) != "" {
		errs.Check(field, check(value))
	}
}

func (in SignUpInput) Validate() error {
	var errs validation.Errors
	errs.Check("email", validation.Email(in.Email))
	errs.Check("password", validation.Password(in.Password))
	errs.Check("full_name", validation.Required(in.FullName))
	errs.Check("phone", validation.Phone(in.Phone))
	errs.Check("cpf", validation.CPF(in.CPF))
	optional(&errs, "shop_phone", in.ShopPhone, validation.Phone)
	return errs.Err()
}

func (in SignUpInput) Normalize() SignUpInput {
	in.Email = validation.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.CPF = validation.NormalizeCPF(in.CPF)
	in.Phone = validation.NormalizePhone(in.Phone)
	in.ShopName = strings.TrimSpace(in.ShopName)
	if in.ShopPhone != "" {
		in.ShopPhone = validation.NormalizePhone(in.ShopPhone)
	}
	return in
}

func (in RedeemInviteRequest) Validate() error {
	var errs validation.Errors
	errs.Check("token", validation.Required(in.Token))
	errs.Check("email", validation.Email(in.Email))
	errs.Check("password", validation.Password(in.Password))
	errs.Check("full_name", validation.Required(in.FullName))
	errs.Check("phone", validation.Phone(in.Phone))
	errs.Check("cpf", validation.CPF(in.CPF))
	return errs.Err()
}

func (in RedeemInviteRequest) Normalize() RedeemInviteRequest {
	in.Token = strings.TrimSpace(in.Token)
	in.Email = validation.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = validation.NormalizePhone(in.Phone)
	in.CPF = validation.NormalizeCPF(in.CPF)
	return in
}

func (u ProfileUpdate) Validate() error {
	var errs validation.Errors
	if u.FullName != nil {
		errs.Check("full_name", validation.Required(*u.FullName))
	}
	if u.Phone != nil {
		errs.Check("phone", validation.Phone(*u.Phone))
	}
	return errs.Err()
}

func (u ShopUpdate) Validate() error {
	var errs validation.Errors
	if u.Name != nil {
		errs.Check("name", validation.Required(*u.Name))
	}
	if u.Phone != nil {
		errs.Check("phone", validation.Phone(*u.Phone))
	}
	if u.CNPJ != nil {
		optional(&errs, "cnpj", *u.CNPJ, validation.CNPJ)
	}
	return errs.Err()
}

func (in CustomerInput) Validate() error {
	var errs validation.Errors
	errs.Check("name", validation.Required(in.Name))
	errs.Check("phone", validation.Phone(in.Phone))
	optional(&errs, "email", in.Email, validation.Email)
	optional(&errs, "cpf", in.CPF, validation.CPF)
	return errs.Err()
}

func (in CustomerInput) Normalize() CustomerInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = validation.NormalizePhone(in.Phone)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Email != "" {
		in.Email = validation.NormalizeEmail(in.Email)
	}
	if in.CPF != "" {
		in.CPF = validation.NormalizeCPF(in.CPF)
	}
	return in
}

// Validate checks the pet form against now, which bounds the birth date.
func (in PetInput) Validate(now time.Time) error {
	var errs validation.Errors
	errs.Check("client_id", validation.Required(in.ClientID))
	errs.Check("name", validation.Required(in.Name))
	errs.Check("species", validation.Required(in.Species))
	if in.BirthDate != "" {
		d, err := time.Parse(BirthDateLayout, in.BirthDate)
		switch {
		case err != nil:
			errs.Add("birth_date", "data inválida, use AAAA-MM-DD")
		case d.After(now):
			errs.Add("birth_date", "a data de nascimento não pode estar no futuro")
		}
	}
	if in.WeightGrams < 0 {
		errs.Add("weight_grams", "o peso não pode ser negativo")
	}
	return errs.Err()
}

func (in ServiceInput) Validate() error {
	var errs validation.Errors
	errs.Check("name", validation.Required(in.Name))
	if in.PriceCents < 0 {
		errs.Add("price_cents", "o preço não pode ser negativo")
	}
	if in.DurationMinutes <= 0 {
		errs.Add("duration_minutes", "a duração deve ser maior que zero")
	}
	return errs.Err()
}

func (in AppointmentInput) Validate() error {
	var errs validation.Errors
	errs.Check("pet_id", validation.Required(in.PetID))
	errs.Check("service_id", validation.Required(in.ServiceID))
	if in.ScheduledAt.IsZero() {
		errs.Add("scheduled_at", validation.ErrRequired.Error())
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		errs.Add("price_cents", "o preço não pode ser negativo")
	}
	return errs.Err()
}
