package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"booking-service/internal/availability"
)

// Settings keys the slot pipeline reads. These are admin-editable rows in
// the settings table, not process configuration.
const (
	settingMinAdvanceHours    = "min_advance_hours"
	settingGoogleRefreshToken = "google_refresh_token"
	settingHomeAddress        = "home_address"
	settingWebcalURL          = "webcal_url"
	settingBusyCalendarIDs    = "busy_calendar_ids"
	settingNotifyEmail        = "notify_email"
	settingOwnerName          = "owner_name"
	settingGuestTemplate      = "template_guest_confirmation"
	settingAdminTemplate      = "template_admin_alert"
	settingCancelTemplate     = "template_cancellation"

	defaultMinAdvanceHours = "24"
)

func engineRules(rules []AvailabilityRule) []availability.WeeklyRule {
	var out []availability.WeeklyRule
	for _, r := range rules {
		start, err := availability.ParseClock(r.StartTime)
		if err != nil {
			continue
		}
		end, err := availability.ParseClock(r.EndTime)
		if err != nil {
			continue
		}
		out = append(out, availability.WeeklyRule{
			DayOfWeek:     r.DayOfWeek,
			Start:         start,
			End:           end,
			Active:        r.Active,
			ServiceTypeID: r.AppointmentTypeID,
		})
	}
	return out
}

func engineBlocked(periods []BlockedPeriod) []availability.BlockedPeriod {
	out := make([]availability.BlockedPeriod, 0, len(periods))
	for _, bp := range periods {
		out = append(out, availability.BlockedPeriod{
			Start:  bp.StartDatetime,
			End:    bp.EndDatetime,
			Reason: bp.Reason,
		})
	}
	return out
}

func (a *App) minAdvanceHours(ctx context.Context) int {
	raw := a.GetSetting(ctx, settingMinAdvanceHours, defaultMinAdvanceHours)
	hours, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || hours < 0 {
		return 24
	}
	return hours
}

func titleMatches(summary, configured string) bool {
	return strings.EqualFold(strings.TrimSpace(summary), strings.TrimSpace(configured))
}

// windowFromEvent converts a permitted calendar-window event to a
// time-of-day window on the target date. An all-day match permits the whole
// day; a timed match permits its clipped range.
func windowFromEvent(ev availability.DayEvent, date time.Time) (availability.Window, bool) {
	if ev.AllDay {
		return availability.Window{Start: availability.NewClock(0, 0), End: availability.NewClock(24, 0)}, true
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	start := availability.NewClock(0, 0)
	if ev.Start.After(dayStart) {
		start = availability.NewClock(ev.Start.Hour(), ev.Start.Minute())
	}
	end := availability.NewClock(24, 0)
	if ev.End.Before(dayEnd) {
		end = availability.NewClock(ev.End.Hour(), ev.End.Minute())
	}
	if start >= end {
		return availability.Window{}, false
	}
	return availability.Window{Start: start, End: end}, true
}

// busySources collects busy intervals and the day's located events from
// Google Calendar and the webcal feed. Every fetch degrades to empty on
// failure; a calendar outage must never error a slots request.
type busySources struct {
	busy      []availability.BusyInterval
	dayEvents []availability.DayEvent
	permitted []availability.Window

	// windowScanned records that the window calendar was actually read.
	// Without a connected calendar the window constraint is inactive, not
	// empty: rule windows pass through untouched.
	windowScanned bool
}

func applyPermittedWindows(windows []availability.Window, src busySources) []availability.Window {
	if !src.windowScanned {
		return windows
	}
	return availability.IntersectWindows(windows, src.permitted)
}

func (a *App) collectBusySources(ctx context.Context, appt *AppointmentType, date time.Time) busySources {
	var src busySources
	log := a.logger()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	refreshToken := a.GetSetting(ctx, settingGoogleRefreshToken, "")
	windowActive := appt.CalendarWindowEnabled && appt.CalendarWindowTitle != ""

	if a.Calendar != nil && refreshToken != "" {
		if windowActive {
			src.windowScanned = true
			events, err := a.Calendar.FetchAllEvents(ctx, refreshToken, appt.WindowCalendar(), dayStart, dayEnd)
			if err != nil {
				log.Warn("calendar window scan failed", zap.String("calendar", appt.WindowCalendar()), zap.Error(err))
			}
			for _, ev := range events {
				if titleMatches(ev.Summary, appt.CalendarWindowTitle) {
					if w, ok := windowFromEvent(ev, date); ok {
						src.permitted = append(src.permitted, w)
					}
				} else {
					src.busy = append(src.busy, availability.BusyInterval{Start: ev.Start, End: ev.End})
				}
			}
		}

		// The window calendar is left out of freebusy: its events were just
		// classified above and would otherwise double-count.
		ids := []string{appt.CalendarID}
		for _, extra := range strings.Split(a.GetSetting(ctx, settingBusyCalendarIDs, ""), ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				ids = append(ids, extra)
			}
		}
		fetchIDs := ids[:0:0]
		for _, id := range ids {
			if windowActive && id == appt.WindowCalendar() {
				continue
			}
			fetchIDs = append(fetchIDs, id)
		}
		if len(fetchIDs) > 0 {
			intervals, err := a.Calendar.FetchBusyIntervals(ctx, refreshToken, fetchIDs, dayStart, dayEnd)
			if err != nil {
				log.Warn("freebusy fetch failed", zap.Error(err))
			}
			src.busy = append(src.busy, intervals...)
		}

		if appt.RequiresDriveTime {
			events, err := a.Calendar.FetchDayEvents(ctx, refreshToken, appt.CalendarID, dayStart, dayEnd)
			if err != nil {
				log.Warn("day event fetch failed", zap.Error(err))
			}
			src.dayEvents = append(src.dayEvents, events...)
		}
	}

	if feedURL := a.GetSetting(ctx, settingWebcalURL, ""); feedURL != "" && a.Webcal != nil {
		events, err := a.Webcal.FetchEvents(feedURL, dayStart, dayEnd)
		if err != nil {
			log.Warn("webcal fetch failed", zap.Error(err))
		}
		for _, ev := range events {
			src.busy = append(src.busy, availability.BusyInterval{Start: ev.Start, End: ev.End})
			if !ev.AllDay {
				src.dayEvents = append(src.dayEvents, ev)
			}
		}
	}

	return src
}

// ComputeSlotsForType runs the full pipeline for one appointment type and
// date: rules and blocks from storage, busy data from the calendars, then
// windows, calendar-window intersection, drive-time trimming, slot
// expansion and the advance-notice filter.
func (a *App) ComputeSlotsForType(ctx context.Context, appt *AppointmentType, date time.Time) ([]availability.Clock, error) {
	storedRules, err := a.ListAvailabilityRules(ctx)
	if err != nil {
		return nil, err
	}
	storedBlocked, err := a.ListBlockedPeriods(ctx)
	if err != nil {
		return nil, err
	}

	src := a.collectBusySources(ctx, appt, date)

	windows := availability.BuildFreeWindows(date, engineRules(storedRules), engineBlocked(storedBlocked), src.busy, appt.ID)
	windows = applyPermittedWindows(windows, src)

	if appt.RequiresDriveTime && appt.Location != "" {
		home := a.GetSetting(ctx, settingHomeAddress, "")
		lookup := func(origin, destination string) int {
			return a.Drive.GetDriveTime(ctx, origin, destination)
		}
		windows = availability.TrimWindowsForDriveTime(windows, date, src.dayEvents, appt.Location, home, lookup)
	}

	slots := availability.SplitIntoSlots(windows, appt.DurationMinutes, appt.BufferBeforeMinutes, appt.BufferAfterMinutes)
	return availability.FilterByAdvanceNotice(slots, date, a.minAdvanceHours(ctx), a.now()), nil
}
