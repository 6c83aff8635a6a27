package availability

import (
	"sort"
	"time"
)

const (
	// GridMinutes is the slot grid: every appointment start lands on a
	// 15-minute boundary from midnight.
	GridMinutes = 15

	// snapDownTolerance lets a window start within 3 minutes past a grid
	// boundary snap back to it instead of forward. Drive-time trimming
	// produces near-grid starts like 9:03; without the tolerance those
	// windows would lose their first slot.
	snapDownTolerance = 3
)

// clipToDay clips a busy interval to the target date's 00:00–24:00 bounds
// and converts it to clock minutes. Returns false when the interval does not
// touch the date or is malformed.
func clipToDay(b BusyInterval, date time.Time) (Clock, Clock, bool) {
	dayStart := startOfDay(date)
	dayEnd := dayStart.Add(24 * time.Hour)
	if !b.End.After(b.Start) {
		return 0, 0, false
	}
	if !b.Start.Before(dayEnd) || !b.End.After(dayStart) {
		return 0, 0, false
	}

	start := Clock(0)
	if b.Start.After(dayStart) {
		start = NewClock(b.Start.Hour(), b.Start.Minute())
	}
	end := Clock(minutesPerDay)
	if b.End.Before(dayEnd) {
		end = NewClock(b.End.Hour(), b.End.Minute())
		if b.End.Second() > 0 || b.End.Nanosecond() > 0 {
			end++
		}
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// SubtractIntervals removes busy datetime intervals from time-of-day windows
// on the given date. A busy interval strictly inside a window splits it in
// two; zero-length remainders are dropped. Busy intervals are applied in
// input order so the output is deterministic.
func SubtractIntervals(windows []Window, busy []BusyInterval, date time.Time) []Window {
	var result []Window
	for _, w := range windows {
		segments := []Window{w}
		for _, b := range busy {
			bStart, bEnd, ok := clipToDay(b, date)
			if !ok {
				continue
			}
			next := segments[:0:0]
			for _, s := range segments {
				if bEnd <= s.Start || bStart >= s.End {
					next = append(next, s)
					continue
				}
				if s.Start < bStart {
					next = append(next, Window{Start: s.Start, End: bStart})
				}
				if bEnd < s.End {
					next = append(next, Window{Start: bEnd, End: s.End})
				}
			}
			segments = next
		}
		result = append(result, segments...)
	}
	return result
}

// IntersectWindows keeps the pairwise overlap of every window in a against
// every window in b, sorted by start time.
func IntersectWindows(a, b []Window) []Window {
	var result []Window
	for _, wa := range a {
		for _, wb := range b {
			start := wa.Start
			if wb.Start > start {
				start = wb.Start
			}
			end := wa.End
			if wb.End < end {
				end = wb.End
			}
			if start < end {
				result = append(result, Window{Start: start, End: end})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		return result[i].End < result[j].End
	})
	return result
}

// alignToGrid snaps a raw window start onto the 15-minute grid: up to the
// next boundary, or down when within the tolerance.
func alignToGrid(c Clock) Clock {
	r := c % GridMinutes
	switch {
	case r == 0:
		return c
	case r <= snapDownTolerance:
		return c - r
	default:
		return c + GridMinutes - r
	}
}

// SplitIntoSlots expands free windows into guest-visible appointment start
// times. Candidate starts step along the 15-minute grid; a candidate is kept
// while the full slot (buffer before + duration + buffer after) fits inside
// the window. The emitted value is the appointment start, after the leading
// buffer; callers must keep the leading buffer a grid multiple or emitted
// starts leave the grid. Candidates overlap on purpose: busy subtraction and
// the booking overlap check prevent double-booking, not slot spacing.
func SplitIntoSlots(windows []Window, durationMinutes, bufferBeforeMinutes, bufferAfterMinutes int) []Clock {
	if durationMinutes <= 0 {
		return nil
	}
	slotTotal := Clock(bufferBeforeMinutes + durationMinutes + bufferAfterMinutes)
	var slots []Clock
	for _, w := range windows {
		for s := alignToGrid(w.Start); s+slotTotal <= w.End; s += GridMinutes {
			slots = append(slots, s+Clock(bufferBeforeMinutes))
		}
	}
	return slots
}
