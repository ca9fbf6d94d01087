package draft

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrIndexOutOfRange    = errors.New("line item index out of range")
	ErrUnknownField       = errors.New("unknown line item field")
	ErrInvalidTaxRate     = errors.New("tax rate must be a number between 0 and 100")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrDiscarded          = errors.New("draft has already been submitted")
	ErrNotSubmitting      = errors.New("no submission in progress")
)

// Field keys of a ValidationError
const (
	KeyClientID   = "client_id"
	KeyIssuedDate = "issued_date"
	KeyDueDate    = "due_date"
	KeyItems      = "items"
)

// ValidationError maps a field key to a user-facing message. It blocks
// submission only and never alters the draft.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v[k]))
	}
	return "invalid invoice: " + strings.Join(parts, "; ")
}

// Has reports whether key has an error
func (v ValidationError) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// TransportError wraps a failure reported by the remote API while a
// submission was in flight. The draft is left as the user had it.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CoercionWarning reports numeric input that was replaced by a safe default.
// It is informational; the edit has been applied with Value.
type CoercionWarning struct {
	Index int
	Field ItemField
	Input string
	Value float64
}

func (w *CoercionWarning) Error() string {
	return fmt.Sprintf("item %d: %s %q is not valid, using %g", w.Index+1, w.Field, w.Input, w.Value)
}

func (w *CoercionWarning) at(i int) *CoercionWarning {
	if w == nil {
		return nil
	}
	w.Index = i
	return w
}
