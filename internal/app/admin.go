package app

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"booking-service/internal/availability"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// --- appointment types ---

// GET /api/admin/types
func (a *App) AdminListTypesHandler(c *gin.Context) {
	types, err := a.ListAppointmentTypes(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if types == nil {
		types = []AppointmentType{}
	}
	c.JSON(http.StatusOK, types)
}

func validateAppointmentType(t *AppointmentType) string {
	if t.Name == "" {
		return "name is required"
	}
	if t.DurationMinutes <= 0 {
		return "duration_minutes must be positive"
	}
	if t.BufferBeforeMinutes < 0 || t.BufferAfterMinutes < 0 {
		return "buffers must not be negative"
	}
	// Guest-visible starts are aligned candidate + leading buffer; a buffer
	// off the 15-minute grid would push every slot off it.
	if t.BufferBeforeMinutes%availability.GridMinutes != 0 {
		return "buffer_before_minutes must be a multiple of 15"
	}
	return ""
}

// POST /api/admin/types
func (a *App) AdminCreateTypeHandler(c *gin.Context) {
	var t AppointmentType
	if err := c.BindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateAppointmentType(&t); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if t.CalendarID == "" {
		t.CalendarID = "primary"
	}
	if err := a.InsertAppointmentType(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, t)
}

// PUT /api/admin/types/:id
func (a *App) AdminUpdateTypeHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var t AppointmentType
	if err := c.BindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t.ID = id
	if msg := validateAppointmentType(&t); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	err := a.UpdateAppointmentType(c.Request.Context(), &t)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment type not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/admin/types/:id
func (a *App) AdminDeleteTypeHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := a.DeleteAppointmentType(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment type not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- availability rules ---

func validateRule(r *AvailabilityRule) string {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return "day_of_week must be 0..6 (Monday=0)"
	}
	start, err := availability.ParseClock(r.StartTime)
	if err != nil {
		return "invalid start_time, expected HH:MM"
	}
	end, err := availability.ParseClock(r.EndTime)
	if err != nil {
		return "invalid end_time, expected HH:MM"
	}
	if start >= end {
		return "start_time must be before end_time"
	}
	return ""
}

// GET /api/admin/rules
func (a *App) AdminListRulesHandler(c *gin.Context) {
	rules, err := a.ListAvailabilityRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rules == nil {
		rules = []AvailabilityRule{}
	}
	c.JSON(http.StatusOK, rules)
}

// POST /api/admin/rules
func (a *App) AdminCreateRuleHandler(c *gin.Context) {
	var r AvailabilityRule
	if err := c.BindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateRule(&r); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := a.InsertAvailabilityRule(c.Request.Context(), &r); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, r)
}

// PUT /api/admin/rules/:id
func (a *App) AdminUpdateRuleHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var r AvailabilityRule
	if err := c.BindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.ID = id
	if msg := validateRule(&r); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	err := a.UpdateAvailabilityRule(c.Request.Context(), &r)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r)
}

// DELETE /api/admin/rules/:id
func (a *App) AdminDeleteRuleHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := a.DeleteAvailabilityRule(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- blocked periods ---

// GET /api/admin/blocked
func (a *App) AdminListBlockedHandler(c *gin.Context) {
	periods, err := a.ListBlockedPeriods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if periods == nil {
		periods = []BlockedPeriod{}
	}
	c.JSON(http.StatusOK, periods)
}

// POST /api/admin/blocked
func (a *App) AdminCreateBlockedHandler(c *gin.Context) {
	var bp BlockedPeriod
	if err := c.BindJSON(&bp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !bp.StartDatetime.Before(bp.EndDatetime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_datetime must be before end_datetime"})
		return
	}
	if err := a.InsertBlockedPeriod(c.Request.Context(), &bp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, bp)
}

// DELETE /api/admin/blocked/:id
func (a *App) AdminDeleteBlockedHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := a.DeleteBlockedPeriod(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "blocked period not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- settings ---

// GET /api/admin/settings
func (a *App) AdminGetSettingsHandler(c *gin.Context) {
	settings, err := a.ListSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// The refresh token is a credential; report presence, never the value.
	connected := settings[settingGoogleRefreshToken] != ""
	delete(settings, settingGoogleRefreshToken)
	c.JSON(http.StatusOK, gin.H{"settings": settings, "google_connected": connected})
}

// PUT /api/admin/settings
func (a *App) AdminUpdateSettingsHandler(c *gin.Context) {
	var payload map[string]string
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	for key, value := range payload {
		if key == settingGoogleRefreshToken {
			continue // only the OAuth callback writes this
		}
		if err := a.SetSetting(ctx, key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- bookings ---

// GET /api/admin/bookings?from=ISO&to=ISO
func (a *App) AdminListBookingsHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	var (
		from, to time.Time
		err      error
	)
	filtered := fromStr != "" && toStr != ""
	if filtered {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
	}

	bookings, err := a.ListBookings(c.Request.Context(), from.UTC(), to.UTC(), filtered)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

type rescheduleReq struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
	Time string `json:"time" binding:"required"` // HH:MM
}

// POST /api/admin/bookings/:id/reschedule
func (a *App) AdminRescheduleBookingHandler(c *gin.Context) {
	var req rescheduleReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	clock, err := availability.ParseClock(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time, expected HH:MM"})
		return
	}

	ctx := c.Request.Context()
	booking, err := a.GetBooking(ctx, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if booking.Status != StatusConfirmed {
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not confirmed"})
		return
	}

	appt, err := a.GetAppointmentType(ctx, booking.AppointmentTypeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	newStart := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	cutoff := a.now().Add(time.Duration(a.minAdvanceHours(ctx)) * time.Hour)
	if newStart.Before(cutoff) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new start violates minimum advance notice"})
		return
	}

	if err := a.RescheduleBooking(ctx, appt, booking, newStart); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, booking)
}

// --- Google OAuth ---

// GET /api/admin/google/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": a.Calendar.AuthURL("booking-admin")})
}

// GET /oauth2callback
//
// Registered outside the auth group: Google redirects the browser here
// without a bearer token.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar is not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	ctx := c.Request.Context()
	refreshToken, err := a.Calendar.ExchangeCode(ctx, code)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "code exchange failed"})
		return
	}
	if refreshToken == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "no refresh token granted; remove prior consent and retry"})
		return
	}
	if err := a.SetSetting(ctx, settingGoogleRefreshToken, refreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "google calendar connected"})
}
