package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCustomFieldsRoundTrip(t *testing.T) {
	fields := []CustomField{
		{Name: "company", Label: "Company", Type: "text", Required: true},
		{Name: "size", Label: "Team size", Type: "select", Options: []string{"1-10", "11-50"}},
	}
	decoded := decodeCustomFields(encodeCustomFields(fields))
	assert.Equal(t, fields, decoded)
}

func TestDecodeCustomFieldsTolerant(t *testing.T) {
	assert.Nil(t, decodeCustomFields(""))
	assert.Nil(t, decodeCustomFields("not json"))
	assert.Nil(t, decodeCustomFields(`{"wrong":"shape"}`))
}

func TestDecodeResponsesTolerant(t *testing.T) {
	assert.Nil(t, decodeResponses(""))
	assert.Nil(t, decodeResponses("broken{"))
	assert.Equal(t, map[string]string{"a": "b"}, decodeResponses(`{"a":"b"}`))
}

func TestEncodeResponsesEmpty(t *testing.T) {
	assert.Equal(t, "{}", encodeResponses(nil))
	assert.Equal(t, "{}", encodeResponses(map[string]string{}))
}

func TestWindowCalendarDefaultsToBookingCalendar(t *testing.T) {
	appt := &AppointmentType{CalendarID: "work@example.com"}
	assert.Equal(t, "work@example.com", appt.WindowCalendar())

	appt.CalendarWindowCalendarID = "windows@example.com"
	assert.Equal(t, "windows@example.com", appt.WindowCalendar())
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 3, 3, h, 0, 0, 0, time.UTC) }

	assert.True(t, overlaps(at(9), at(10), at(9), at(10)))   // identical
	assert.True(t, overlaps(at(9), at(11), at(10), at(12)))  // partial
	assert.True(t, overlaps(at(9), at(12), at(10), at(11)))  // containment
	assert.False(t, overlaps(at(9), at(10), at(10), at(11))) // back-to-back
	assert.False(t, overlaps(at(9), at(10), at(11), at(12))) // disjoint
}
