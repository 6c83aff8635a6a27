package app

import (
	"encoding/json"
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// CustomField is one admin-defined intake question on an appointment type.
// Stored as a JSON text column; decoded at the scan boundary so nothing past
// the storage layer sees the serialized form.
type CustomField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text | select | checkbox
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type AppointmentType struct {
	ID                       int64         `json:"id"`
	Name                     string        `json:"name"`
	Description              string        `json:"description"`
	DurationMinutes          int           `json:"duration_minutes"`
	BufferBeforeMinutes      int           `json:"buffer_before_minutes"`
	BufferAfterMinutes       int           `json:"buffer_after_minutes"`
	Location                 string        `json:"location"`
	RequiresDriveTime        bool          `json:"requires_drive_time"`
	CalendarID               string        `json:"calendar_id"`
	CalendarWindowEnabled    bool          `json:"calendar_window_enabled"`
	CalendarWindowTitle      string        `json:"calendar_window_title"`
	CalendarWindowCalendarID string        `json:"calendar_window_calendar_id"`
	CustomFields             []CustomField `json:"custom_fields"`
	Active                   bool          `json:"active"`
	Color                    string        `json:"color"`
}

// WindowCalendar is the calendar scanned for calendar-window events. It
// defaults to the type's booking calendar when not set explicitly.
func (t *AppointmentType) WindowCalendar() string {
	if t.CalendarWindowCalendarID != "" {
		return t.CalendarWindowCalendarID
	}
	return t.CalendarID
}

type AvailabilityRule struct {
	ID                int64  `json:"id"`
	DayOfWeek         int    `json:"day_of_week"` // 0=Monday .. 6=Sunday
	StartTime         string `json:"start_time"`  // "HH:MM"
	EndTime           string `json:"end_time"`
	Active            bool   `json:"active"`
	AppointmentTypeID *int64 `json:"appointment_type_id,omitempty"`
}

type BlockedPeriod struct {
	ID            int64     `json:"id"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Reason        string    `json:"reason"`
}

type Booking struct {
	ID                   string            `json:"id"`
	AppointmentTypeID    int64             `json:"appointment_type_id"`
	StartDatetime        time.Time         `json:"start_datetime"`
	EndDatetime          time.Time         `json:"end_datetime"`
	GuestName            string            `json:"guest_name"`
	GuestEmail           string            `json:"guest_email"`
	GuestPhone           string            `json:"guest_phone,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	CustomFieldResponses map[string]string `json:"custom_field_responses,omitempty"`
	GoogleEventID        string            `json:"google_event_id,omitempty"`
	Status               string            `json:"status"`
	CreatedAt            time.Time         `json:"created_at,omitempty"`
}

func encodeCustomFields(fields []CustomField) string {
	if len(fields) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeCustomFields(raw string) []CustomField {
	if raw == "" {
		return nil
	}
	var fields []CustomField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil
	}
	return fields
}

func encodeResponses(responses map[string]string) string {
	if len(responses) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeResponses(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var responses map[string]string
	if err := json.Unmarshal([]byte(raw), &responses); err != nil {
		return nil
	}
	return responses
}
