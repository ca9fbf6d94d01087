package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/format"
	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", what, arg)
	}
	return id, nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	input, err := stdin.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	input, err := stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readPassword reads a secret without echo
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(password), nil
}

func printStale(stale bool) {
	if stale {
		fmt.Println("(offline: showing cached data)")
	}
}

func currencyOf(inv *domain.Invoice) string {
	if inv.Currency != "" {
		return inv.Currency
	}
	if appInstance != nil {
		return appInstance.Config.Invoice.Currency
	}
	return format.DefaultCurrency
}

// parseItemFlag splits "description:quantity:unit price". The description
// may itself contain colons.
func parseItemFlag(s string) (desc, qty, price string, err error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return "", "", "", fmt.Errorf("invalid item %q (expected description:quantity:price)", s)
	}
	price = s[i+1:]
	rest := s[:i]

	j := strings.LastIndex(rest, ":")
	if j < 0 {
		return "", "", "", fmt.Errorf("invalid item %q (expected description:quantity:price)", s)
	}
	qty = rest[j+1:]
	desc = strings.TrimSpace(rest[:j])
	if desc == "" {
		return "", "", "", fmt.Errorf("invalid item %q: description is empty", s)
	}
	return desc, qty, price, nil
}

type draftFlags struct {
	Items   []string
	Tax     string
	TaxSet  bool
	Issued  string
	Due     string
	Notes   string
	DueDays int
}

// applyDraftFlags feeds command line values through the draft controller.
// Coerced numbers are returned as warnings; malformed flags are errors.
func applyDraftFlags(d *draft.Controller, f draftFlags, now time.Time) ([]*draft.CoercionWarning, error) {
	view := d.View()

	issued, due := view.Issued, view.Due
	if f.Issued != "" {
		parsed, err := format.ParseDate(f.Issued, now)
		if err != nil {
			return nil, fmt.Errorf("invalid issued date: %w", err)
		}
		issued = parsed
		due = issued.AddDays(f.DueDays)
	}
	if f.Due != "" {
		parsed, err := format.ParseDate(f.Due, now)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		due = parsed
	}
	if err := d.SetDates(issued, due); err != nil {
		return nil, err
	}

	if f.TaxSet {
		rate, err := draft.ParseTaxRate(f.Tax)
		if err != nil {
			return nil, err
		}
		if err := d.SetTaxRate(rate); err != nil {
			return nil, err
		}
	}

	if f.Notes != "" {
		if err := d.SetNotes(f.Notes); err != nil {
			return nil, err
		}
	}

	var warnings []*draft.CoercionWarning
	for n, raw := range f.Items {
		desc, qty, price, err := parseItemFlag(raw)
		if err != nil {
			return nil, err
		}

		index := 0
		if n > 0 {
			if index, err = d.AddItem(); err != nil {
				return nil, err
			}
		}
		if _, err := d.UpdateItem(index, draft.FieldDescription, desc); err != nil {
			return nil, err
		}
		for _, edit := range []struct {
			field draft.ItemField
			value string
		}{{draft.FieldQuantity, qty}, {draft.FieldUnitPrice, price}} {
			warn, err := d.UpdateItem(index, edit.field, edit.value)
			if err != nil {
				return nil, err
			}
			if warn != nil {
				warnings = append(warnings, warn)
			}
		}
	}
	return warnings, nil
}

// parseItemEdit splits "N.field=value", N being the 1-based item number
func parseItemEdit(s string) (index int, field draft.ItemField, value string, err error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", "", fmt.Errorf("invalid edit %q (expected item.field=value)", s)
	}
	num, name, ok := strings.Cut(target, ".")
	if !ok {
		return 0, "", "", fmt.Errorf("invalid edit %q (expected item.field=value)", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n < 1 {
		return 0, "", "", fmt.Errorf("invalid edit %q: item number must be 1 or more", s)
	}
	field, err = draft.ParseItemField(name)
	if err != nil {
		return 0, "", "", err
	}
	return n - 1, field, value, nil
}

// applyItemEdits changes existing draft items from --set flags
func applyItemEdits(d *draft.Controller, edits []string) ([]*draft.CoercionWarning, error) {
	var warnings []*draft.CoercionWarning
	for _, raw := range edits {
		index, field, value, err := parseItemEdit(raw)
		if err != nil {
			return nil, err
		}
		warn, err := d.UpdateItem(index, field, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw, err)
		}
		if warn != nil {
			warnings = append(warnings, warn)
		}
	}
	return warnings, nil
}

var fieldLabels = map[string]string{
	draft.KeyClientID:   "Client",
	draft.KeyIssuedDate: "Issued date",
	draft.KeyDueDate:    "Due date",
	draft.KeyItems:      "Items",
}

func printValidation(w io.Writer, verr draft.ValidationError) {
	keys := make([]string, 0, len(verr))
	for k := range verr {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Invoice not created:")
	for _, k := range keys {
		label := fieldLabels[k]
		if label == "" {
			label = k
		}
		fmt.Fprintf(w, "  ✗ %-12s %s\n", label+":", verr[k])
	}
}
