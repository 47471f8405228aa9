package availability

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid date format")

const dateLayout = "2006-01-02"

func ParseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// IsDatePast compares against the UTC calendar day, the same frame
// ParseDate yields, so the answer does not shift with the server's zone.
func IsDatePast(dateStr string, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return false, err
	}
	now = now.UTC()
	startToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return date.Before(startToday), nil
}

// Subtract returns the template slots that are not yet reserved,
// preserving template order. Reserved labels outside the template are
// ignored; duplicates in the template are kept as-is.
func Subtract(template []string, reserved []string) []string {
	if len(reserved) == 0 {
		remaining := make([]string, len(template))
		copy(remaining, template)
		return remaining
	}

	taken := make(map[string]bool, len(reserved))
	for _, slot := range reserved {
		taken[slot] = true
	}

	remaining := make([]string, 0, len(template))
	for _, slot := range template {
		if !taken[slot] {
			remaining = append(remaining, slot)
		}
	}
	return remaining
}

// Contains reports whether slot is one of the template's labels.
func Contains(template []string, slot string) bool {
	for _, s := range template {
		if s == slot {
			return true
		}
	}
	return false
}
