package validation

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrCPFInvalid  = errors.New("CPF inválido")
	ErrCNPJInvalid = errors.New("CNPJ inválido")
)

// digits strips everything but ASCII digits.
func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// documentDigits returns the digits of a CPF or CNPJ. Only the usual
// separators ('.', '-', '/') and spaces may surround them.
func documentDigits(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '/', unicode.IsSpace(r):
		default:
			return "", false
		}
	}
	return b.String(), true
}

func allSame(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

// checkDigit computes a mod-11 check digit of ds weighted by weights.
func checkDigit(ds string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(ds[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

var (
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CPF validates a Brazilian individual taxpayer number, formatted
// ("123.456.789-09") or digits only. Any other character is rejected.
func CPF(s string) error {
	ds, ok := documentDigits(s)
	if !ok || len(ds) != 11 || allSame(ds) {
		return ErrCPFInvalid
	}
	if checkDigit(ds, cpfWeights1) != ds[9] || checkDigit(ds, cpfWeights2) != ds[10] {
		return ErrCPFInvalid
	}
	return nil
}

// NormalizeCPF returns the 11 digits of s, or "" if s is not a valid CPF.
func NormalizeCPF(s string) string {
	if CPF(s) != nil {
		return ""
	}
	ds, _ := documentDigits(s)
	return ds
}

// FormatCPF renders a CPF as 000.000.000-00. Invalid input is returned unchanged.
func FormatCPF(s string) string {
	ds := NormalizeCPF(s)
	if ds == "" {
		return s
	}
	return ds[0:3] + "." + ds[3:6] + "." + ds[6:9] + "-" + ds[9:11]
}

// CNPJ validates a Brazilian company registration number.
func CNPJ(s string) error {
	ds, ok := documentDigits(s)
	if !ok || len(ds) != 14 || allSame(ds) {
		return ErrCNPJInvalid
	}
	if checkDigit(ds, cnpjWeights1) != ds[12] || checkDigit(ds, cnpjWeights2) != ds[13] {
		return ErrCNPJInvalid
	}
	return nil
}

// NormalizeCNPJ returns the 14 digits of s, or "" if s is not a valid CNPJ.
func NormalizeCNPJ(s string) string {
	if CNPJ(s) != nil {
		return ""
	}
	ds, _ := documentDigits(s)
	return ds
}
