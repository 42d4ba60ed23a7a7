package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "02.01.2006"
)

// ParseDateParam accepts RFC 3339 or a bare YYYY-MM-DD. A bare date is read
// as UTC midnight and dateOnly is true.
func ParseDateParam(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(DateLayout, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
}

// EndOfDay returns the last instant of the day that starts at t
func EndOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ParseHours converts "8", "1.5" or "1,5" hours into a duration
func ParseHours(s string) (time.Duration, error) {
	h, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number of hours %q", s)
	}
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return 0, fmt.Errorf("hours must be positive, got %q", s)
	}
	d := h * float64(time.Hour)
	if d >= math.MaxInt64 {
		return 0, fmt.Errorf("too many hours %q", s)
	}
	return time.Duration(d), nil
}

// FormatDate formats a date the way the bot shows it to users
func FormatDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}
