package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"booking-service/internal/availability"
)

// GET /api/types
func (a *App) ListTypesHandler(c *gin.Context) {
	types, err := a.ListAppointmentTypes(c.Request.Context(), true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if types == nil {
		types = []AppointmentType{}
	}
	c.JSON(http.StatusOK, types)
}

type slotResponse struct {
	Value string `json:"value"` // "HH:MM"
	Label string `json:"label"` // "9:00 AM"
}

func slotResponses(slots []availability.Clock) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{Value: s.String(), Label: s.Label()})
	}
	return out
}

func emptySlots(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"slots": []slotResponse{}, "message": message})
}

// GET /api/slots?type_id=N&date=YYYY-MM-DD
//
// Bad input yields an empty slot list with a message rather than an error
// status: the booking page renders it the same way either path.
func (a *App) GetSlotsHandler(c *gin.Context) {
	var query struct {
		TypeID int64  `form:"type_id"`
		Date   string `form:"date"`
	}
	if err := c.BindQuery(&query); err != nil || query.TypeID == 0 || query.Date == "" {
		emptySlots(c, "type_id and date are required")
		return
	}
	date, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		emptySlots(c, "invalid date, expected YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()
	appt, err := a.GetAppointmentType(ctx, query.TypeID)
	if errors.Is(err, ErrNotFound) {
		emptySlots(c, "appointment type not found")
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !appt.Active {
		emptySlots(c, "appointment type not available")
		return
	}

	slots, err := a.ComputeSlotsForType(ctx, appt, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slotResponses(slots)})
}

type createBookingReq struct {
	AppointmentTypeID    int64             `json:"appointment_type_id" binding:"required"`
	Date                 string            `json:"date" binding:"required"` // YYYY-MM-DD
	Time                 string            `json:"time" binding:"required"` // HH:MM
	GuestName            string            `json:"guest_name" binding:"required"`
	GuestEmail           string            `json:"guest_email" binding:"required,email"`
	GuestPhone           string            `json:"guest_phone"`
	Notes                string            `json:"notes"`
	CustomFieldResponses map[string]string `json:"custom_field_responses"`
}

// POST /api/bookings
//
// The requested slot is recomputed server-side before anything is written;
// the client's slot list may be minutes stale.
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req createBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	slot, err := availability.ParseClock(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time, expected HH:MM"})
		return
	}

	ctx := c.Request.Context()
	appt, err := a.GetAppointmentType(ctx, req.AppointmentTypeID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment type not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !appt.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment type not found"})
		return
	}

	for _, f := range appt.CustomFields {
		if f.Required && req.CustomFieldResponses[f.Name] == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", f.Label)})
			return
		}
	}

	slots, err := a.ComputeSlotsForType(ctx, appt, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	valid := false
	for _, s := range slots {
		if s == slot {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusConflict, gin.H{"error": "slot no longer available"})
		return
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), slot.Hour(), slot.Minute(), 0, 0, time.UTC)
	booking := &Booking{
		ID:                   uuid.NewString(),
		AppointmentTypeID:    appt.ID,
		StartDatetime:        start,
		EndDatetime:          start.Add(time.Duration(appt.DurationMinutes) * time.Minute),
		GuestName:            req.GuestName,
		GuestEmail:           req.GuestEmail,
		GuestPhone:           req.GuestPhone,
		Notes:                req.Notes,
		CustomFieldResponses: req.CustomFieldResponses,
	}

	booking.GoogleEventID = a.createCalendarEvent(ctx, appt, booking)

	if err := a.InsertBooking(ctx, booking); err != nil {
		// The event was provisional; clean it up before reporting.
		a.deleteCalendarEvent(ctx, appt.CalendarID, booking.GoogleEventID)
		if errors.Is(err, ErrSlotTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "slot already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.createDriveTimeBlocks(ctx, appt, booking)
	a.sendBookingNotifications(ctx, appt, booking)

	a.logger().Info("booking created",
		zap.String("booking", booking.ID),
		zap.Int64("type", appt.ID),
		zap.Time("start", booking.StartDatetime))
	c.JSON(http.StatusCreated, booking)
}

// POST /api/bookings/:id/cancel
//
// Idempotent: cancelling an already-cancelled booking returns 200 without
// re-firing the calendar delete or the email.
func (a *App) CancelBookingHandler(c *gin.Context) {
	ctx := c.Request.Context()
	booking, transitioned, err := a.CancelBooking(ctx, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if transitioned {
		appt, err := a.GetAppointmentType(ctx, booking.AppointmentTypeID)
		if err == nil {
			a.deleteCalendarEvent(ctx, appt.CalendarID, booking.GoogleEventID)
			result := a.Mail.SendCancellationNotice(
				booking.GuestEmail, booking.GuestName, appt.Name, booking.StartDatetime,
				a.GetSetting(ctx, settingCancelTemplate, ""))
			if !result.OK {
				a.logger().Warn("cancellation notice skipped",
					zap.String("booking", booking.ID), zap.String("reason", result.SkippedReason))
			}
		}
	}

	c.JSON(http.StatusOK, booking)
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	if err := a.DB.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
