// Package seating holds the seat-availability arithmetic: reservation
// windows at hour granularity and the derivation of free seats from the
// reservations and seat assignments of a single day.
package seating

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// MaxSlots is the longest reservation, one full day.
const MaxSlots = 24

var (
	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidTime is returned when a time has no valid leading hour.
	ErrInvalidTime = errors.New("invalid time")
	// ErrInvalidSlots is returned for a duration outside 1..MaxSlots.
	ErrInvalidSlots = errors.New("invalid number of slots")
)

// Window is a half-open interval [Start, Start+Slots) of whole hours.
type Window struct {
	Start int
	Slots int
}

// End returns the first hour after the window.
func (w Window) End() int { return w.Start + w.Slots }

// Overlaps reports whether the two windows share at least one hour.
// Windows starting at the same hour always overlap, regardless of length.
func (w Window) Overlaps(o Window) bool {
	if w.Start == o.Start {
		return true
	}
	return w.Start < o.End() && o.Start < w.End()
}

// ParseHour returns the hour of a "HH" or "HH:MM" time.  Minutes are
// ignored.
func ParseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	head, _, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h, nil
}

// ParseDate validates a YYYY-MM-DD date and returns it unchanged.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return s, nil
}

// NewWindow builds a window from a request's start time and slot count.
func NewWindow(start string, slots int) (Window, error) {
	h, err := ParseHour(start)
	if err != nil {
		return Window{}, err
	}
	if slots < 1 || slots > MaxSlots {
		return Window{}, fmt.Errorf("%w: %d", ErrInvalidSlots, slots)
	}
	return Window{Start: h, Slots: slots}, nil
}
