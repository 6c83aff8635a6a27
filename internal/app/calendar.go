package app

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"booking-service/internal/availability"
)

// CalendarService wraps the Google Calendar API behind the few operations
// the booking flow needs. The admin authorizes once via OAuth; the refresh
// token is stored in settings and used for every later call. All datetimes
// cross this boundary as naive UTC.
type CalendarService struct {
	config *oauth2.Config
}

// NewCalendarService returns nil when OAuth credentials are not configured,
// which downstream code treats as "calendar integration inactive".
func NewCalendarService(clientID, clientSecret, redirectURL string) *CalendarService {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &CalendarService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				calendar.CalendarEventsScope,
				"https://www.googleapis.com/auth/calendar.freebusy",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthURL starts the offline-consent flow so the exchange yields a refresh
// token, not just a short-lived access token.
func (s *CalendarService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades the callback code for a refresh token.
func (s *CalendarService) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return token.RefreshToken, nil
}

func (s *CalendarService) service(ctx context.Context, refreshToken string) (*calendar.Service, error) {
	client := s.config.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

func rfc3339utc(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func parseNaiveUTC(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC().Truncate(time.Second).In(time.UTC), true
}

// FetchBusyIntervals queries freebusy across the given calendars. Intervals
// from different calendars may overlap; the availability engine treats the
// union as busy.
func (s *CalendarService) FetchBusyIntervals(ctx context.Context, refreshToken string, calendarIDs []string, start, end time.Time) ([]availability.BusyInterval, error) {
	srv, err := s.service(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	req := &calendar.FreeBusyRequest{
		TimeMin: rfc3339utc(start),
		TimeMax: rfc3339utc(end),
	}
	for _, id := range calendarIDs {
		req.Items = append(req.Items, &calendar.FreeBusyRequestItem{Id: id})
	}

	resp, err := srv.Freebusy.Query(req).Do()
	if err != nil {
		return nil, err
	}

	var intervals []availability.BusyInterval
	for _, id := range calendarIDs {
		cal, ok := resp.Calendars[id]
		if !ok {
			continue
		}
		for _, period := range cal.Busy {
			bStart, okStart := parseNaiveUTC(period.Start)
			bEnd, okEnd := parseNaiveUTC(period.End)
			if !okStart || !okEnd {
				continue
			}
			intervals = append(intervals, availability.BusyInterval{Start: naive(bStart), End: naive(bEnd)})
		}
	}
	return intervals, nil
}

// naive strips the zone so engine comparisons against rule clock times work
// on wall-clock values.
func naive(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// FetchDayEvents lists a calendar's timed events in [start,end). All-day
// events are excluded here; the calendar-window scan uses FetchAllEvents.
func (s *CalendarService) FetchDayEvents(ctx context.Context, refreshToken, calendarID string, start, end time.Time) ([]availability.DayEvent, error) {
	events, err := s.FetchAllEvents(ctx, refreshToken, calendarID, start, end)
	if err != nil {
		return nil, err
	}
	timed := events[:0:0]
	for _, ev := range events {
		if !ev.AllDay {
			timed = append(timed, ev)
		}
	}
	return timed, nil
}

// FetchAllEvents lists every event on a calendar in [start,end), including
// all-day entries (marked AllDay, spanning their full dates).
func (s *CalendarService) FetchAllEvents(ctx context.Context, refreshToken, calendarID string, start, end time.Time) ([]availability.DayEvent, error) {
	srv, err := s.service(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(rfc3339utc(start)).
		TimeMax(rfc3339utc(end)).
		MaxResults(250).
		Do()
	if err != nil {
		return nil, err
	}

	var out []availability.DayEvent
	for _, item := range resp.Items {
		if item.Start == nil || item.End == nil || item.Status == "cancelled" {
			continue
		}
		ev := availability.DayEvent{Summary: item.Summary, Location: item.Location}
		switch {
		case item.Start.DateTime != "":
			s0, ok0 := parseNaiveUTC(item.Start.DateTime)
			e0, ok1 := parseNaiveUTC(item.End.DateTime)
			if !ok0 || !ok1 {
				continue
			}
			ev.Start, ev.End = naive(s0), naive(e0)
		case item.Start.Date != "":
			s0, err0 := time.Parse("2006-01-02", item.Start.Date)
			e0, err1 := time.Parse("2006-01-02", item.End.Date)
			if err0 != nil || err1 != nil {
				continue
			}
			ev.Start, ev.End, ev.AllDay = s0, e0, true
		default:
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// CreateEvent inserts a busy event and returns its ID. Reminders are
// disabled for BLOCK annotations so drive-time filler doesn't ping anyone.
func (s *CalendarService) CreateEvent(ctx context.Context, refreshToken, calendarID, summary, description, location string, start, end time.Time, attendeeEmail string, disableReminders bool) (string, error) {
	srv, err := s.service(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       &calendar.EventDateTime{DateTime: rfc3339utc(start), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: rfc3339utc(end), TimeZone: "UTC"},
	}
	if attendeeEmail != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: attendeeEmail}}
	}
	if disableReminders {
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		}
	}

	created, err := srv.Events.Insert(calendarID, event).SendUpdates("all").Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

func (s *CalendarService) DeleteEvent(ctx context.Context, refreshToken, calendarID, eventID string) error {
	srv, err := s.service(ctx, refreshToken)
	if err != nil {
		return err
	}
	return srv.Events.Delete(calendarID, eventID).Do()
}
