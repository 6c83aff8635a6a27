package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// createCalendarEvent mirrors a confirmed booking onto the type's calendar.
// Best-effort: returns "" when the calendar is inactive or the insert fails.
func (a *App) createCalendarEvent(ctx context.Context, appt *AppointmentType, b *Booking) string {
	refreshToken := a.GetSetting(ctx, settingGoogleRefreshToken, "")
	if a.Calendar == nil || refreshToken == "" {
		return ""
	}

	summary := fmt.Sprintf("%s — %s", appt.Name, b.GuestName)
	description := fmt.Sprintf("Guest: %s\nEmail: %s\nPhone: %s\nNotes: %s",
		b.GuestName, b.GuestEmail, b.GuestPhone, b.Notes)

	eventID, err := a.Calendar.CreateEvent(ctx, refreshToken, appt.CalendarID,
		summary, description, appt.Location, b.StartDatetime, b.EndDatetime, b.GuestEmail, false)
	if err != nil {
		a.logger().Warn("calendar event create failed", zap.String("booking", b.ID), zap.Error(err))
		return ""
	}
	return eventID
}

func (a *App) deleteCalendarEvent(ctx context.Context, calendarID, eventID string) {
	refreshToken := a.GetSetting(ctx, settingGoogleRefreshToken, "")
	if a.Calendar == nil || refreshToken == "" || eventID == "" {
		return
	}
	if err := a.Calendar.DeleteEvent(ctx, refreshToken, calendarID, eventID); err != nil {
		a.logger().Warn("calendar event delete failed", zap.String("event", eventID), zap.Error(err))
	}
}

// createDriveTimeBlocks annotates the calendar with BLOCK events covering
// the drive to this appointment and from it to the next obligation. A pure
// calendar courtesy: every failure here is silent and the booking stands.
func (a *App) createDriveTimeBlocks(ctx context.Context, appt *AppointmentType, b *Booking) {
	refreshToken := a.GetSetting(ctx, settingGoogleRefreshToken, "")
	if a.Calendar == nil || refreshToken == "" || !appt.RequiresDriveTime || appt.Location == "" {
		return
	}

	windowStart := b.StartDatetime.Add(-time.Hour)
	windowEnd := b.EndDatetime.Add(time.Hour)
	events, err := a.Calendar.FetchDayEvents(ctx, refreshToken, appt.CalendarID, windowStart, windowEnd)
	if err != nil {
		return
	}

	// Drive to this appointment.
	precedingIdx := -1
	for i, ev := range events {
		if ev.End.Before(windowStart) || ev.End.After(b.StartDatetime) {
			continue
		}
		if precedingIdx < 0 || ev.End.After(events[precedingIdx].End) {
			precedingIdx = i
		}
	}
	origin := a.GetSetting(ctx, settingHomeAddress, "")
	if precedingIdx >= 0 {
		if loc := strings.TrimSpace(events[precedingIdx].Location); loc != "" {
			origin = loc
		}
	}
	if origin != "" && !strings.EqualFold(origin, appt.Location) {
		if minutes := a.Drive.GetDriveTime(ctx, origin, appt.Location); minutes > 0 {
			summary := fmt.Sprintf("BLOCK - Drive Time for %s", appt.Name)
			_, err := a.Calendar.CreateEvent(ctx, refreshToken, appt.CalendarID, summary, "", "",
				b.StartDatetime.Add(-time.Duration(minutes)*time.Minute), b.StartDatetime, "", true)
			if err != nil {
				a.logger().Debug("drive block create failed", zap.Error(err))
			}
		}
	}

	// Drive from this appointment to the next one.
	followingIdx := -1
	for i, ev := range events {
		if ev.Start.Before(b.EndDatetime) || ev.Start.After(windowEnd) {
			continue
		}
		if followingIdx < 0 || ev.Start.Before(events[followingIdx].Start) {
			followingIdx = i
		}
	}
	if followingIdx < 0 {
		return
	}
	dest := strings.TrimSpace(events[followingIdx].Location)
	if dest == "" || strings.EqualFold(dest, appt.Location) {
		return
	}
	if minutes := a.Drive.GetDriveTime(ctx, appt.Location, dest); minutes > 0 {
		summary := fmt.Sprintf("BLOCK - Drive Time for %s", events[followingIdx].Summary)
		_, err := a.Calendar.CreateEvent(ctx, refreshToken, appt.CalendarID, summary, "", "",
			b.EndDatetime, b.EndDatetime.Add(time.Duration(minutes)*time.Minute), "", true)
		if err != nil {
			a.logger().Debug("drive block create failed", zap.Error(err))
		}
	}
}

// sendBookingNotifications fires the guest confirmation and admin alert;
// both degrade to a skip reason instead of failing the booking.
func (a *App) sendBookingNotifications(ctx context.Context, appt *AppointmentType, b *Booking) (guest, admin SendResult) {
	ownerName := a.GetSetting(ctx, settingOwnerName, "")
	guest = a.Mail.SendGuestConfirmation(
		b.GuestEmail, b.GuestName, appt.Name, b.StartDatetime,
		b.CustomFieldResponses, ownerName,
		a.GetSetting(ctx, settingGuestTemplate, ""))
	admin = a.Mail.SendAdminAlert(
		a.GetSetting(ctx, settingNotifyEmail, ""),
		b.GuestName, b.GuestEmail, b.GuestPhone, appt.Name, b.StartDatetime,
		b.Notes, b.CustomFieldResponses,
		a.GetSetting(ctx, settingAdminTemplate, ""))

	log := a.logger()
	if !guest.OK {
		log.Warn("guest confirmation skipped", zap.String("booking", b.ID), zap.String("reason", guest.SkippedReason))
	}
	if !admin.OK {
		log.Warn("admin alert skipped", zap.String("booking", b.ID), zap.String("reason", admin.SkippedReason))
	}
	return guest, admin
}

// RescheduleBooking moves a confirmed booking to a new start. The calendar
// step runs first and a failure there aborts with the booking untouched;
// once the row is updated, the confirmation email is best-effort.
func (a *App) RescheduleBooking(ctx context.Context, appt *AppointmentType, b *Booking, newStart time.Time) error {
	newEnd := newStart.Add(time.Duration(appt.DurationMinutes) * time.Minute)

	newEventID := b.GoogleEventID
	refreshToken := a.GetSetting(ctx, settingGoogleRefreshToken, "")
	if a.Calendar != nil && refreshToken != "" {
		summary := fmt.Sprintf("%s — %s", appt.Name, b.GuestName)
		eventID, err := a.Calendar.CreateEvent(ctx, refreshToken, appt.CalendarID,
			summary, "", appt.Location, newStart, newEnd, b.GuestEmail, false)
		if err != nil {
			return fmt.Errorf("calendar update failed: %w", err)
		}
		a.deleteCalendarEvent(ctx, appt.CalendarID, b.GoogleEventID)
		newEventID = eventID
	}

	if err := a.UpdateBookingSchedule(ctx, b.ID, newStart, newEnd, newEventID); err != nil {
		return err
	}
	b.StartDatetime, b.EndDatetime, b.GoogleEventID = newStart, newEnd, newEventID

	result := a.Mail.SendGuestConfirmation(
		b.GuestEmail, b.GuestName, appt.Name, newStart,
		b.CustomFieldResponses,
		a.GetSetting(ctx, settingOwnerName, ""),
		a.GetSetting(ctx, settingGuestTemplate, ""))
	if !result.OK {
		a.logger().Warn("reschedule confirmation skipped", zap.String("booking", b.ID), zap.String("reason", result.SkippedReason))
	}
	return nil
}
