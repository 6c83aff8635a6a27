package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed as minutes since local midnight.
type Clock int

const (
	minutesPerDay = 24 * 60

	// endOfDay is the latest representable trim target (23:59).
	endOfDay Clock = minutesPerDay - 1
)

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "HH:MM" (a longer "HH:MM:SS" suffix is ignored).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		s = s[:5]
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return NewClock(h, m), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the 24-hour "HH:MM" form used for storage and APIs.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Label renders the 12-hour form shown to guests, e.g. "1:30 PM".
func (c Clock) Label() string {
	h := c.Hour()
	suffix := "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		h -= 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute(), suffix)
}
