package availability

import "time"

// DayOfWeek maps a date to the rule convention, 0=Monday .. 6=Sunday.
func DayOfWeek(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// BuildFreeWindows selects the weekly rules for the target date and subtracts
// blocked periods, then busy intervals.
//
// Rule selection: among the date's active rules, rules owned by the service
// type win outright — when any exist, global (unowned) rules are ignored for
// that service. Rules owned by a different service type never apply. No
// matching rules means no availability for the day.
func BuildFreeWindows(date time.Time, rules []WeeklyRule, blocked []BlockedPeriod, busy []BusyInterval, serviceTypeID int64) []Window {
	dow := DayOfWeek(date)

	var owned, global []WeeklyRule
	for _, r := range rules {
		if !r.Active || r.DayOfWeek != dow {
			continue
		}
		switch {
		case r.ServiceTypeID == nil:
			global = append(global, r)
		case *r.ServiceTypeID == serviceTypeID:
			owned = append(owned, r)
		}
	}
	selected := global
	if len(owned) > 0 {
		selected = owned
	}

	var windows []Window
	for _, r := range selected {
		if r.Start < r.End {
			windows = append(windows, Window{Start: r.Start, End: r.End})
		}
	}
	if len(windows) == 0 {
		return nil
	}

	blockedBusy := make([]BusyInterval, 0, len(blocked))
	for _, bp := range blocked {
		blockedBusy = append(blockedBusy, BusyInterval{Start: bp.Start, End: bp.End})
	}
	windows = SubtractIntervals(windows, blockedBusy, date)
	return SubtractIntervals(windows, busy, date)
}
