package entities

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of every date the scheduler exchanges
const DateLayout = "2006-01-02"

// DaysPerWeek is the number of production days in a scheduling week
const DaysPerWeek = 7

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayOf normalizes any date to the Monday of its week
func MondayOf(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ValidateWeekStart checks that t is a Monday
func ValidateWeekStart(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: week start cannot be empty", ErrInvalidDate)
	}
	if t.Weekday() != time.Monday {
		return fmt.Errorf("%w: week start %s is a %s, not a Monday",
			ErrInvalidDate, t.Format(DateLayout), t.Weekday())
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseWeekStart parses a YYYY-MM-DD date and rejects anything but a Monday
func ParseWeekStart(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if err := ValidateWeekStart(t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate renders a date in YYYY-MM-DD form
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekEnd returns the Sunday of the week starting at weekStart
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysPerWeek-1)
}

// WeekKey is the storage key of a week schedule
func WeekKey(weekStart time.Time) string {
	return FormatDate(DateOnly(weekStart))
}
