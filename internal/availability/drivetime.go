package availability

import (
	"strings"
	"time"
)

// precedingEventLookback is how far before a window start a calendar event's
// end may fall and still count as the traveler's previous obligation.
const precedingEventLookback = time.Hour

// TrimWindowsForDriveTime shrinks the start of each free window by the
// estimated drive from the traveler's previous location to the appointment
// destination.
//
// The origin is the location of the most recent event ending within one hour
// before the window start; with no such event (or a blank location) the home
// address is used. A missing origin or destination leaves the window as-is,
// and identical addresses (case-insensitive) skip the lookup entirely. A
// window whose drive time consumes it is dropped.
func TrimWindowsForDriveTime(windows []Window, date time.Time, dayEvents []DayEvent, destination, homeAddress string, lookup DriveTimeLookup) []Window {
	destination = strings.TrimSpace(destination)
	var out []Window
	for _, w := range windows {
		day := startOfDay(date)
		windowStart := day.Add(time.Duration(w.Start) * time.Minute)
		lookback := windowStart.Add(-precedingEventLookback)

		var preceding *DayEvent
		for i := range dayEvents {
			ev := &dayEvents[i]
			if ev.End.Before(lookback) || ev.End.After(windowStart) {
				continue
			}
			if preceding == nil || ev.End.After(preceding.End) {
				preceding = ev
			}
		}

		origin := strings.TrimSpace(homeAddress)
		if preceding != nil {
			if loc := strings.TrimSpace(preceding.Location); loc != "" {
				origin = loc
			}
		}

		if origin == "" || destination == "" {
			out = append(out, w)
			continue
		}
		if strings.EqualFold(origin, destination) {
			out = append(out, w)
			continue
		}

		minutes := 0
		if lookup != nil {
			minutes = lookup(origin, destination)
		}
		if minutes <= 0 {
			out = append(out, w)
			continue
		}

		trimmed := w.Start + Clock(minutes)
		if trimmed > endOfDay {
			trimmed = endOfDay
		}
		if trimmed < w.End {
			out = append(out, Window{Start: trimmed, End: w.End})
		}
	}
	return out
}
