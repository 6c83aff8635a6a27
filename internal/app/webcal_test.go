package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsFixture(body string) []byte {
	s := "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//test//EN\n" + body + "END:VCALENDAR\n"
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseICSEventsBasic(t *testing.T) {
	raw := icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART:20250303T100000Z
DTEND:20250303T110000Z
SUMMARY:Dentist
LOCATION:123 Main St\, Suite 4
END:VEVENT
`)
	events, err := parseICSEvents(raw,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC), events[0].End)
	assert.Equal(t, "Dentist", events[0].Summary)
	assert.Equal(t, "123 Main St, Suite 4", events[0].Location)
	assert.False(t, events[0].AllDay)
}

func TestParseICSEventsOutOfRangeExcluded(t *testing.T) {
	raw := icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART:20250301T100000Z
DTEND:20250301T110000Z
SUMMARY:Earlier
END:VEVENT
`)
	events, err := parseICSEvents(raw,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseICSEventsWeeklyRecurrence(t *testing.T) {
	raw := icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART:20250303T100000Z
DTEND:20250303T110000Z
RRULE:FREQ=WEEKLY;COUNT=5
SUMMARY:Standup
END:VEVENT
`)
	// Query the week after the first occurrence.
	events, err := parseICSEvents(raw,
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), events[0].End)
}

func TestParseICSEventsAllDay(t *testing.T) {
	raw := icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART;VALUE=DATE:20250303
SUMMARY:Conference
END:VEVENT
`)
	events, err := parseICSEvents(raw,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), events[0].End)
}

func TestParseICSEventsAllDayWithDateEnd(t *testing.T) {
	raw := icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART;VALUE=DATE:20250303
DTEND;VALUE=DATE:20250305
SUMMARY:Retreat
END:VEVENT
`)
	events, err := parseICSEvents(raw,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), events[0].End)
}

func TestWebcalFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(icsFixture(`BEGIN:VEVENT
UID:ev1
DTSTART:20250303T140000Z
DTEND:20250303T150000Z
SUMMARY:Feed event
END:VEVENT
`))
	}))
	defer srv.Close()

	c := NewWebcalClient()
	events, err := c.FetchEvents(srv.URL,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Feed event", events[0].Summary)
}

func TestWebcalFetchEventsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewWebcalClient()
	_, err := c.FetchEvents(srv.URL, time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestUnescapeText(t *testing.T) {
	assert.Equal(t, "a,b;c\nd\\e", unescapeText(`a\,b\;c\nd\\e`))
}
