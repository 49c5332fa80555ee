// Package hours resolves a business's weekly opening schedule into display strings.
package hours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Closed is shown for days without opening periods.
const Closed = "Closed"

// Days lists the accepted day keys in calendar order starting on Sunday,
// matching time.Weekday.
var Days = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var (
	// ErrUnknownDay is returned when a schedule contains a key that is not a weekday name.
	ErrUnknownDay = errors.New("unknown day")

	// ErrInvalidClock is returned when a period boundary is not HH:MM.
	ErrInvalidClock = errors.New("invalid clock time")
)

// Period is one opening interval, in 24h "HH:MM" local time.
type Period struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Day is the opening configuration of a single weekday.
type Day struct {
	IsOpen  bool     `json:"isOpen"`
	Periods []Period `json:"periods"`
}

// Schedule maps lowercase weekday names to their configuration.
type Schedule map[string]Day

// Resolve returns the display string for day. Periods are joined in input
// order; overlapping or unsorted periods are shown as given.
func Resolve(day string, s Schedule) string {
	d, ok := s[strings.ToLower(day)]
	if !ok || !d.IsOpen || len(d.Periods) == 0 {
		return Closed
	}

	parts := make([]string, 0, len(d.Periods))
	for _, p := range d.Periods {
		parts = append(parts, display(p.Open)+" - "+display(p.Close))
	}
	return strings.Join(parts, ", ")
}

// Today resolves the schedule for the weekday of now, in now's location.
func Today(now time.Time, s Schedule) string {
	return Resolve(Days[now.Weekday()], s)
}

// Validate checks day keys and clock formats.
func Validate(s Schedule) error {
	for key, d := range s {
		if !IsDay(key) {
			return fmt.Errorf("%w: %q", ErrUnknownDay, key)
		}
		for _, p := range d.Periods {
			if !IsClock(p.Open) {
				return fmt.Errorf("%w: %s open %q", ErrInvalidClock, key, p.Open)
			}
			if !IsClock(p.Close) {
				return fmt.Errorf("%w: %s close %q", ErrInvalidClock, key, p.Close)
			}
		}
	}
	return nil
}

// IsDay reports whether key is one of the seven lowercase weekday names.
func IsDay(key string) bool {
	for _, d := range Days {
		if d == key {
			return true
		}
	}
	return false
}

// IsClock reports whether v is a 24h "HH:MM" time.
func IsClock(v string) bool {
	_, _, ok := parseClock(v)
	return ok
}

func parseClock(v string) (int, int, bool) {
	h, m, found := strings.Cut(v, ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// display renders "HH:MM" as "h:MM AM". Unparseable values are shown verbatim.
func display(v string) string {
	hour, minute, ok := parseClock(v)
	if !ok {
		return v
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}
