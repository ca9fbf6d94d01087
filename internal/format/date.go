package format

import (
	"strconv"
	"time"

	"github.com/andy/invoicer/internal/domain"
)

// Date renders a calendar date as "Jan 2, 2006", or "-" when unset
func Date(d domain.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("Jan 2, 2006")
}

// ISODate renders YYYY-MM-DD, or "" when unset
func ISODate(d domain.Date) string {
	return d.String()
}

// ParseDate parses user input in YYYY-MM-DD form. The words "today" and
// "tomorrow" are accepted relative to now.
func ParseDate(s string, now time.Time) (domain.Date, error) {
	switch s {
	case "today":
		return domain.NewDate(now), nil
	case "tomorrow":
		return domain.NewDate(now).AddDays(1), nil
	}
	return domain.ParseDate(s)
}

// Relative describes how far d is from today, e.g. "in 3 days" or "2 days ago"
func Relative(d domain.Date, now time.Time) string {
	if d.IsZero() {
		return ""
	}
	days := int(d.Sub(domain.NewDate(now).Time).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return "in " + strconv.Itoa(days) + " days"
	default:
		return strconv.Itoa(-days) + " days ago"
	}
}

// Truncate shortens s to maxLen runes with an ellipsis
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
