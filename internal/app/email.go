package app

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/resend/resend-go/v2"
)

// SendResult reports how a best-effort notification went, so callers and
// tests can see graceful degradation instead of a silent swallow.
type SendResult struct {
	OK            bool
	SkippedReason string
}

func skipped(reason string) SendResult { return SendResult{SkippedReason: reason} }

// EmailService sends guest and admin notifications through Resend. Custom
// templates come from settings; a template that fails to parse or execute
// falls back to the built-in default rather than blocking the booking.
type EmailService struct {
	client *resend.Client
	from   string
}

func NewEmailService(apiKey, from string) *EmailService {
	if apiKey == "" {
		return &EmailService{from: from}
	}
	return &EmailService{client: resend.NewClient(apiKey), from: from}
}

const guestConfirmationDefault = `<h2>Your appointment is confirmed</h2>
<p>Hi {{.GuestName}},</p>
<p>Your <strong>{{.ApptType}}</strong> is confirmed:</p>
<p><strong>Date/Time:</strong> {{.DateTime}}</p>
{{.CustomFields}}
<p>If you need to cancel, please reply to this email.</p>
<p>&mdash; {{.OwnerName}}</p>`

const adminAlertDefault = `<h2>New Booking: {{.GuestName}}</h2>
<p><strong>Type:</strong> {{.ApptType}}</p>
<p><strong>Date/Time:</strong> {{.DateTime}}</p>
<p><strong>Guest:</strong> {{.GuestName}}</p>
<p><strong>Email:</strong> {{.GuestEmail}}</p>
<p><strong>Phone:</strong> {{.GuestPhone}}</p>
{{.CustomFields}}
<p><strong>Notes:</strong> {{.Notes}}</p>
<p><a href="/admin/bookings">View in admin panel</a></p>`

const cancellationDefault = `<h2>Appointment Cancelled</h2>
<p>Hi {{.GuestName}},</p>
<p>Your <strong>{{.ApptType}}</strong> on {{.DateTime}} has been cancelled.</p>
<p>Please reach out to reschedule.</p>`

type emailData struct {
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	ApptType     string
	DateTime     string
	OwnerName    string
	Notes        string
	CustomFields string
}

func formatEmailDatetime(t time.Time) string {
	return fmt.Sprintf("%s at %s UTC",
		t.Format("Monday, January 2, 2006"), t.Format("3:04 PM"))
}

func customFieldsHTML(responses map[string]string) string {
	keys := make([]string, 0, len(responses))
	for k, v := range responses {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "<p><strong>%s:</strong> %s</p>", html.EscapeString(k), html.EscapeString(responses[k]))
	}
	return b.String()
}

// renderTemplate executes custom, falling back to fallback when the custom
// template is empty or broken. The fallback is trusted and must render.
func renderTemplate(custom, fallback string, data emailData) string {
	for _, src := range []string{custom, fallback} {
		if src == "" {
			continue
		}
		tmpl, err := template.New("email").Parse(src)
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			continue
		}
		return buf.String()
	}
	return ""
}

func (s *EmailService) send(to, subject, htmlBody string) SendResult {
	if s == nil || s.client == nil {
		return skipped("email not configured")
	}
	if to == "" {
		return skipped("no recipient")
	}
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		return skipped("send failed: " + err.Error())
	}
	return SendResult{OK: true}
}

func (s *EmailService) SendGuestConfirmation(guestEmail, guestName, apptTypeName string, start time.Time, responses map[string]string, ownerName, customTemplate string) SendResult {
	body := renderTemplate(customTemplate, guestConfirmationDefault, emailData{
		GuestName:    guestName,
		ApptType:     apptTypeName,
		DateTime:     formatEmailDatetime(start),
		OwnerName:    ownerName,
		CustomFields: customFieldsHTML(responses),
	})
	subject := fmt.Sprintf("Your %s is confirmed — %s", apptTypeName, start.Format("Jan 2"))
	return s.send(guestEmail, subject, body)
}

func (s *EmailService) SendAdminAlert(notifyEmail, guestName, guestEmail, guestPhone, apptTypeName string, start time.Time, notes string, responses map[string]string, customTemplate string) SendResult {
	if guestPhone == "" {
		guestPhone = "not provided"
	}
	if notes == "" {
		notes = "none"
	}
	body := renderTemplate(customTemplate, adminAlertDefault, emailData{
		GuestName:    guestName,
		GuestEmail:   guestEmail,
		GuestPhone:   guestPhone,
		ApptType:     apptTypeName,
		DateTime:     formatEmailDatetime(start),
		Notes:        notes,
		CustomFields: customFieldsHTML(responses),
	})
	subject := fmt.Sprintf("New booking: %s — %s on %s", guestName, apptTypeName, start.Format("Jan 2"))
	return s.send(notifyEmail, subject, body)
}

func (s *EmailService) SendCancellationNotice(guestEmail, guestName, apptTypeName string, start time.Time, customTemplate string) SendResult {
	body := renderTemplate(customTemplate, cancellationDefault, emailData{
		GuestName: guestName,
		ApptType:  apptTypeName,
		DateTime:  formatEmailDatetime(start),
	})
	subject := fmt.Sprintf("Your %s on %s has been cancelled", apptTypeName, start.Format("Jan 2"))
	return s.send(guestEmail, subject, body)
}
