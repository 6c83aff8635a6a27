package availability

import "time"

// FilterByAdvanceNotice drops slots that start before now plus the minimum
// advance notice. A cutoff past the end of the target date removes every
// slot; a cutoff on an earlier date removes none.
func FilterByAdvanceNotice(slots []Clock, date time.Time, minAdvanceHours int, now time.Time) []Clock {
	cutoff := now.Add(time.Duration(minAdvanceHours) * time.Hour)

	y, m, d := date.Date()
	dayEnd := time.Date(y, m, d, 23, 59, 59, 0, date.Location())
	if cutoff.After(dayEnd) {
		return nil
	}
	if !sameDate(cutoff, date) {
		return slots
	}

	cutoffClock := NewClock(cutoff.Hour(), cutoff.Minute())
	if cutoff.Second() > 0 || cutoff.Nanosecond() > 0 {
		cutoffClock++
	}
	var kept []Clock
	for _, s := range slots {
		if s >= cutoffClock {
			kept = append(kept, s)
		}
	}
	return kept
}

// ComputeSlots runs the whole pipeline for one date: rule selection and busy
// subtraction, grid-aligned slot expansion, then the advance-notice filter.
// Drive-time trimming and calendar-window intersection slot in between
// BuildFreeWindows and SplitIntoSlots; callers needing them compose the
// stages directly.
func ComputeSlots(
	date time.Time,
	rules []WeeklyRule,
	blocked []BlockedPeriod,
	busy []BusyInterval,
	durationMinutes, bufferBeforeMinutes, bufferAfterMinutes int,
	minAdvanceHours int,
	now time.Time,
	serviceTypeID int64,
) []Clock {
	windows := BuildFreeWindows(date, rules, blocked, busy, serviceTypeID)
	if len(windows) == 0 {
		return nil
	}
	slots := SplitIntoSlots(windows, durationMinutes, bufferBeforeMinutes, bufferAfterMinutes)
	return FilterByAdvanceNotice(slots, date, minAdvanceHours, now)
}
