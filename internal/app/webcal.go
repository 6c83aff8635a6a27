package app

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"booking-service/internal/availability"
)

// WebcalClient fetches and expands ICS feeds (webcal:// or https://).
// Recurring events are expanded via their RRULE; all-day entries are kept
// and later treated as busy for their whole dates.
type WebcalClient struct {
	HTTP *http.Client
}

func NewWebcalClient() *WebcalClient {
	return &WebcalClient{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// FetchEvents returns the feed's events overlapping [start, end), with
// recurrences expanded. start/end are naive UTC.
func (c *WebcalClient) FetchEvents(url string, start, end time.Time) ([]availability.DayEvent, error) {
	if strings.HasPrefix(url, "webcal://") {
		url = "https://" + strings.TrimPrefix(url, "webcal://")
	}

	resp, err := c.HTTP.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webcal fetch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseICSEvents(body, start, end)
}

func parseICSEvents(raw []byte, start, end time.Time) ([]availability.DayEvent, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}

	var out []availability.DayEvent
	for _, ve := range cal.Events() {
		evStart, evEnd, allDay, err := eventTimes(ve)
		if err != nil {
			continue // malformed entries are skipped, never fatal
		}

		summary := propValue(ve, ics.ComponentPropertySummary)
		location := propValue(ve, ics.ComponentPropertyLocation)

		occurrences := expandOccurrences(ve, evStart, evEnd, start, end)
		for _, occ := range occurrences {
			if !occ.Start.Before(end) || !occ.End.After(start) {
				continue
			}
			out = append(out, availability.DayEvent{
				Start:    occ.Start,
				End:      occ.End,
				Summary:  summary,
				Location: location,
				AllDay:   allDay,
			})
		}
	}
	return out, nil
}

type occurrence struct {
	Start, End time.Time
}

// expandOccurrences yields the event's instances inside the query range:
// just the event itself without an RRULE, otherwise each recurrence.
func expandOccurrences(ve *ics.VEvent, evStart, evEnd, rangeStart, rangeEnd time.Time) []occurrence {
	rruleProp := ve.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil || rruleProp.Value == "" {
		return []occurrence{{Start: evStart, End: evEnd}}
	}

	opt, err := rrule.StrToROption(rruleProp.Value)
	if err != nil {
		return []occurrence{{Start: evStart, End: evEnd}}
	}
	opt.Dtstart = evStart.UTC()
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return []occurrence{{Start: evStart, End: evEnd}}
	}

	duration := evEnd.Sub(evStart)
	var out []occurrence
	for _, occStart := range rule.Between(rangeStart.UTC().Add(-duration), rangeEnd.UTC(), true) {
		s := naive(occStart)
		out = append(out, occurrence{Start: s, End: s.Add(duration)})
	}
	return out
}

// dateValued reports whether DTSTART carries VALUE=DATE, the all-day form.
// GetStartAt parses a date-valued DTSTART too, so the parameter is the only
// reliable discriminator.
func dateValued(ve *ics.VEvent) bool {
	prop := ve.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil {
		return false
	}
	for _, v := range prop.ICalParameters["VALUE"] {
		if v == "DATE" {
			return true
		}
	}
	return false
}

// eventTimes reads DTSTART/DTEND, handling timed and all-day forms. An
// all-day event without DTEND covers a single date.
func eventTimes(ve *ics.VEvent) (start, end time.Time, allDay bool, err error) {
	if dateValued(ve) {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		end, eerr := ve.GetAllDayEndAt()
		if eerr != nil || !end.After(start) {
			end = start.Add(24 * time.Hour)
		}
		return naive(start), naive(end), true, nil
	}

	start, err = ve.GetStartAt()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err = ve.GetEndAt()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return naive(start), naive(end), false, nil
}

func propValue(ve *ics.VEvent, name ics.ComponentProperty) string {
	prop := ve.GetProperty(name)
	if prop == nil {
		return ""
	}
	return unescapeText(prop.Value)
}

// unescapeText reverses RFC 5545 TEXT escaping.
func unescapeText(s string) string {
	replacer := strings.NewReplacer(`\,`, ",", `\;`, ";", `\\`, `\`, `\n`, "\n", `\N`, "\n")
	return replacer.Replace(s)
}
