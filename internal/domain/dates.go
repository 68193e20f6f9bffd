package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDate renders the itinerary date key, YYYY-M-D without zero padding.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// FormatTime renders H:M without zero padding.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d:%d", t.Hour(), t.Minute())
}

// ParseDate parses a YYYY-M-D date key. Zero-padded components are accepted.
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed date %q", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed date %q: %w", s, err)
		}
		n[i] = v
	}
	if n[1] < 1 || n[1] > 12 || n[2] < 1 || n[2] > 31 {
		return time.Time{}, fmt.Errorf("malformed date %q", s)
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], 0, 0, 0, 0, time.UTC)
	if t.Day() != n[2] {
		return time.Time{}, fmt.Errorf("malformed date %q: no such day", s)
	}
	return t, nil
}
