package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/valeriaulyamaeva/moneymine/models"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	slashLayout = "02/01/2006"
)

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return Day(time.Now())
}

func FirstDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// LastDayOfMonth returns the last calendar day of t's month, leap years included.
func LastDayOfMonth(t time.Time) time.Time {
	return FirstDayOfMonth(t).AddDate(0, 1, -1)
}

func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, slashLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", models.ErrInvalidInput, s)
}

// ParseMonth accepts YYYY-MM or a full date, returning the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return t, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid month %q", models.ErrInvalidInput, s)
	}
	return FirstDayOfMonth(t), nil
}
