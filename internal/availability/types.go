// Package availability computes bookable appointment start times for a single
// date from weekly recurring rules, ad-hoc blocked periods and externally
// sourced busy intervals. It is pure: no I/O, no shared state, deterministic
// for a given input snapshot. All datetimes are naive (wall-clock) values in
// the business's local zone.
package availability

import "time"

// Window is a contiguous bookable stretch of time of day, Start < End.
type Window struct {
	Start Clock
	End   Clock
}

// WeeklyRule is a recurring weekly open window. A rule owned by a service
// type (ServiceTypeID != nil) overrides the global rules for that type: if
// any owned rule matches the target day, only owned rules apply.
type WeeklyRule struct {
	DayOfWeek     int // 0=Monday .. 6=Sunday
	Start         Clock
	End           Clock
	Active        bool
	ServiceTypeID *int64
}

// BlockedPeriod is an absolute one-off unavailability range, possibly
// spanning several days. Only the portion overlapping the target date is
// considered.
type BlockedPeriod struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// BusyInterval is an externally sourced datetime range treated as
// unavailable. Overlapping intervals are fine; the union is busy.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// DayEvent is a single calendar event with its location, used by drive-time
// trimming and the calendar-window feature.
type DayEvent struct {
	Start    time.Time
	End      time.Time
	Summary  string
	Location string
	AllDay   bool
}

// DriveTimeLookup returns estimated drive minutes between two addresses.
// Implementations must return 0 rather than fail; a 0 result means no trim.
type DriveTimeLookup func(origin, destination string) int

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}
