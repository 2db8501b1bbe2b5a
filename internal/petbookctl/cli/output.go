package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// describe renders err for the terminal, listing field errors one per line.
func describe(err error) string {
	var verr *validation.Errors
	if errors.As(err, &verr) {
		return "Dados inválidos:\n" + fieldLines(verr.Map())
	}
	var aerr *authsdk.Error
	if errors.As(err, &aerr) {
		msg := aerr.Error()
		if aerr.Kind == authsdk.KindRateLimited && aerr.RetryAfter > 0 {
			msg += fmt.Sprintf(" (tente em %s)", aerr.RetryAfter.Round(time.Second))
		}
		if len(aerr.Details) > 0 {
			msg += "\n" + fieldLines(aerr.Details)
		}
		return msg
	}
	return err.Error()
}

func fieldLines(fields map[string]string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "  %s: %s\n", k, fields[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// show prints v as JSON with --json, otherwise as the table drawn by rows.
func (e *env) show(v any, header string, rows func(w io.Writer)) error {
	if e.jsonOut {
		enc := json.NewEncoder(e.opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(e.opts.Out, 0, 4, 2, ' ', 0)
	if header != "" {
		fmt.Fprintln(tw, header)
	}
	rows(tw)
	return tw.Flush()
}

func (e *env) say(format string, args ...any) {
	if e.jsonOut {
		return
	}
	fmt.Fprintf(e.opts.Out, format+"\n", args...)
}

func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}

// parseMoney reads "45", "45,9", "45,90" or "45.90" as cents.
func parseMoney(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, ",", ".")
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("valor inválido: %q", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("valor inválido: %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("valor inválido: %q", s)
	}
	return w*100 + f, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
