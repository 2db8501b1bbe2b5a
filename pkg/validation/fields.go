package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 72
	maxEmailLength    = 254
)

var (
	ErrRequired      = errors.New("campo obrigatório")
	ErrEmailInvalid  = errors.New("e-mail inválido")
	ErrPasswordShort = errors.New("a senha deve ter pelo menos 8 caracteres")
	ErrPasswordLong  = errors.New("a senha deve ter no máximo 72 caracteres")
	ErrPasswordWeak  = errors.New("a senha deve conter letras e números")
	ErrPhoneInvalid  = errors.New("telefone inválido")
)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Email checks that s is a bare address (no display name).
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrRequired
	}
	if len(s) > maxEmailLength {
		return ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return ErrEmailInvalid
	}
	at := strings.LastIndexByte(s, '@')
	if !strings.Contains(s[at+1:], ".") {
		return ErrEmailInvalid
	}
	return nil
}

// Password enforces length and requires at least one letter and one digit.
func Password(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return ErrRequired
	case n < PasswordMinLength:
		return ErrPasswordShort
	case n > PasswordMaxLength:
		return ErrPasswordLong
	}

	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrPasswordWeak
	}
	return nil
}

// Phone validates a Brazilian phone number: 10 or 11 digits with a DDD
// between 11 and 99. A leading +55 country code is accepted.
func Phone(s string) error {
	ds := digits(s)
	if ds == "" {
		return ErrRequired
	}
	if strings.HasPrefix(strings.TrimSpace(s), "+55") {
		ds = ds[2:]
	}
	if len(ds) != 10 && len(ds) != 11 {
		return ErrPhoneInvalid
	}
	if ds[0] == '0' || ds[:2] == "10" {
		return ErrPhoneInvalid
	}
	// Mobile numbers carry a leading 9 after the DDD.
	if len(ds) == 11 && ds[2] != '9' {
		return ErrPhoneInvalid
	}
	return nil
}

// NormalizePhone returns the national digits of s.
func NormalizePhone(s string) string {
	ds := digits(s)
	if strings.HasPrefix(strings.TrimSpace(s), "+55") && len(ds) > 2 {
		ds = ds[2:]
	}
	return ds
}

// Required fails for blank strings.
func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	return nil
}
