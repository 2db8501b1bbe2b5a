// Package validation checks user input for PetBook forms: Brazilian
// documents (CPF, CNPJ), phone numbers, e-mail and passwords. Messages are
// pt-BR and safe to show to end users.
package validation

import (
	"strings"
)

// FieldError is one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field failures in the order they were checked.
type Errors struct {
	fields []FieldError
}

// Check records err against field when err is non-nil. Only the first
// failure per field is kept.
func (e *Errors) Check(field string, err error) {
	if err == nil {
		return
	}
	e.Add(field, err.Error())
}

func (e *Errors) Add(field, message string) {
	for _, f := range e.fields {
		if f.Field == field {
			return
		}
	}
	e.fields = append(e.fields, FieldError{Field: field, Message: message})
}

func (e *Errors) Fields() []FieldError {
	out := make([]FieldError, len(e.fields))
	copy(out, e.fields)
	return out
}

// Map returns field → message, for JSON error details.
func (e *Errors) Map() map[string]string {
	m := make(map[string]string, len(e.fields))
	for _, f := range e.fields {
		m[f.Field] = f.Message
	}
	return m
}

func (e *Errors) Empty() bool { return e == nil || len(e.fields) == 0 }

// Err returns e as an error, or nil when nothing failed.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *Errors) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}
