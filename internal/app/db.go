package app

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken marks a booking overlap, distinct from other failures so
	// the handler can tell the guest the slot was just taken.
	ErrSlotTaken = errors.New("slot already taken")
)

const schema = `
CREATE TABLE IF NOT EXISTS appointment_types (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	duration_minutes INT NOT NULL,
	buffer_before_minutes INT NOT NULL DEFAULT 0,
	buffer_after_minutes INT NOT NULL DEFAULT 0,
	location TEXT NOT NULL DEFAULT '',
	requires_drive_time BOOLEAN NOT NULL DEFAULT FALSE,
	calendar_id TEXT NOT NULL DEFAULT 'primary',
	calendar_window_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	calendar_window_title TEXT NOT NULL DEFAULT '',
	calendar_window_calendar_id TEXT NOT NULL DEFAULT '',
	custom_fields TEXT NOT NULL DEFAULT '[]',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	color TEXT NOT NULL DEFAULT '#3b82f6'
);
CREATE TABLE IF NOT EXISTS availability_rules (
	id BIGSERIAL PRIMARY KEY,
	day_of_week INT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	appointment_type_id BIGINT REFERENCES appointment_types(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS blocked_periods (
	id BIGSERIAL PRIMARY KEY,
	start_datetime TIMESTAMP NOT NULL,
	end_datetime TIMESTAMP NOT NULL,
	reason TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	appointment_type_id BIGINT NOT NULL REFERENCES appointment_types(id),
	start_datetime TIMESTAMP NOT NULL,
	end_datetime TIMESTAMP NOT NULL,
	guest_name TEXT NOT NULL,
	guest_email TEXT NOT NULL,
	guest_phone TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	custom_field_responses TEXT NOT NULL DEFAULT '{}',
	google_event_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'confirmed',
	created_at TIMESTAMP NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bookings_type_start_idx ON bookings (appointment_type_id, start_datetime);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`

func (a *App) EnsureSchema(ctx context.Context) error {
	_, err := a.DB.Exec(ctx, schema)
	return err
}

// --- appointment types ---

const apptTypeColumns = `id,name,description,duration_minutes,buffer_before_minutes,buffer_after_minutes,
	location,requires_drive_time,calendar_id,calendar_window_enabled,calendar_window_title,
	calendar_window_calendar_id,custom_fields,active,color`

func scanAppointmentType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType
	var fields string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.DurationMinutes, &t.BufferBeforeMinutes,
		&t.BufferAfterMinutes, &t.Location, &t.RequiresDriveTime, &t.CalendarID,
		&t.CalendarWindowEnabled, &t.CalendarWindowTitle, &t.CalendarWindowCalendarID,
		&fields, &t.Active, &t.Color)
	if err != nil {
		return nil, err
	}
	t.CustomFields = decodeCustomFields(fields)
	return &t, nil
}

func (a *App) ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]AppointmentType, error) {
	q := `SELECT ` + apptTypeColumns + ` FROM appointment_types ORDER BY id`
	if activeOnly {
		q = `SELECT ` + apptTypeColumns + ` FROM appointment_types WHERE active ORDER BY id`
	}
	rows, err := a.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppointmentType
	for rows.Next() {
		t, err := scanAppointmentType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (a *App) GetAppointmentType(ctx context.Context, id int64) (*AppointmentType, error) {
	q := `SELECT ` + apptTypeColumns + ` FROM appointment_types WHERE id=$1`
	t, err := scanAppointmentType(a.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (a *App) InsertAppointmentType(ctx context.Context, t *AppointmentType) error {
	q := `INSERT INTO appointment_types
		(name,description,duration_minutes,buffer_before_minutes,buffer_after_minutes,location,
		 requires_drive_time,calendar_id,calendar_window_enabled,calendar_window_title,
		 calendar_window_calendar_id,custom_fields,active,color)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING id`
	return a.DB.QueryRow(ctx, q,
		t.Name, t.Description, t.DurationMinutes, t.BufferBeforeMinutes, t.BufferAfterMinutes,
		t.Location, t.RequiresDriveTime, t.CalendarID, t.CalendarWindowEnabled,
		t.CalendarWindowTitle, t.CalendarWindowCalendarID, encodeCustomFields(t.CustomFields),
		t.Active, t.Color,
	).Scan(&t.ID)
}

func (a *App) UpdateAppointmentType(ctx context.Context, t *AppointmentType) error {
	q := `UPDATE appointment_types SET
		name=$1, description=$2, duration_minutes=$3, buffer_before_minutes=$4,
		buffer_after_minutes=$5, location=$6, requires_drive_time=$7, calendar_id=$8,
		calendar_window_enabled=$9, calendar_window_title=$10, calendar_window_calendar_id=$11,
		custom_fields=$12, active=$13, color=$14
		WHERE id=$15`
	res, err := a.DB.Exec(ctx, q,
		t.Name, t.Description, t.DurationMinutes, t.BufferBeforeMinutes, t.BufferAfterMinutes,
		t.Location, t.RequiresDriveTime, t.CalendarID, t.CalendarWindowEnabled,
		t.CalendarWindowTitle, t.CalendarWindowCalendarID, encodeCustomFields(t.CustomFields),
		t.Active, t.Color, t.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *App) DeleteAppointmentType(ctx context.Context, id int64) error {
	res, err := a.DB.Exec(ctx, `DELETE FROM appointment_types WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- availability rules ---

func (a *App) ListAvailabilityRules(ctx context.Context) ([]AvailabilityRule, error) {
	q := `SELECT id,day_of_week,start_time,end_time,active,appointment_type_id
	      FROM availability_rules ORDER BY id`
	rows, err := a.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityRule
	for rows.Next() {
		var r AvailabilityRule
		if err := rows.Scan(&r.ID, &r.DayOfWeek, &r.StartTime, &r.EndTime, &r.Active, &r.AppointmentTypeID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *App) InsertAvailabilityRule(ctx context.Context, r *AvailabilityRule) error {
	q := `INSERT INTO availability_rules (day_of_week,start_time,end_time,active,appointment_type_id)
	      VALUES ($1,$2,$3,$4,$5) RETURNING id`
	return a.DB.QueryRow(ctx, q, r.DayOfWeek, r.StartTime, r.EndTime, r.Active, r.AppointmentTypeID).Scan(&r.ID)
}

func (a *App) UpdateAvailabilityRule(ctx context.Context, r *AvailabilityRule) error {
	q := `UPDATE availability_rules
	      SET day_of_week=$1, start_time=$2, end_time=$3, active=$4, appointment_type_id=$5
	      WHERE id=$6`
	res, err := a.DB.Exec(ctx, q, r.DayOfWeek, r.StartTime, r.EndTime, r.Active, r.AppointmentTypeID, r.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *App) DeleteAvailabilityRule(ctx context.Context, id int64) error {
	res, err := a.DB.Exec(ctx, `DELETE FROM availability_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- blocked periods ---

func (a *App) ListBlockedPeriods(ctx context.Context) ([]BlockedPeriod, error) {
	q := `SELECT id,start_datetime,end_datetime,reason FROM blocked_periods ORDER BY start_datetime`
	rows, err := a.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockedPeriod
	for rows.Next() {
		var bp BlockedPeriod
		if err := rows.Scan(&bp.ID, &bp.StartDatetime, &bp.EndDatetime, &bp.Reason); err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}

func (a *App) InsertBlockedPeriod(ctx context.Context, bp *BlockedPeriod) error {
	q := `INSERT INTO blocked_periods (start_datetime,end_datetime,reason) VALUES ($1,$2,$3) RETURNING id`
	return a.DB.QueryRow(ctx, q, bp.StartDatetime, bp.EndDatetime, bp.Reason).Scan(&bp.ID)
}

func (a *App) DeleteBlockedPeriod(ctx context.Context, id int64) error {
	res, err := a.DB.Exec(ctx, `DELETE FROM blocked_periods WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- settings ---

func (a *App) GetSetting(ctx context.Context, key, fallback string) string {
	var value string
	err := a.DB.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		return fallback
	}
	return value
}

func (a *App) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := a.DB.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (a *App) SetSetting(ctx context.Context, key, value string) error {
	q := `INSERT INTO settings (key,value) VALUES ($1,$2)
	      ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`
	_, err := a.DB.Exec(ctx, q, key, value)
	return err
}

// --- bookings ---

const bookingColumns = `id,appointment_type_id,start_datetime,end_datetime,guest_name,guest_email,
	guest_phone,notes,custom_field_responses,google_event_id,status,created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var responses string
	err := row.Scan(&b.ID, &b.AppointmentTypeID, &b.StartDatetime, &b.EndDatetime,
		&b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.Notes, &responses,
		&b.GoogleEventID, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.CustomFieldResponses = decodeResponses(responses)
	return &b, nil
}

// overlaps reports whether two [start,end) intervals collide.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// InsertBooking persists a confirmed booking after the overlap check. The
// check and insert are not a single transaction with slot computation; a
// lost race surfaces as ErrSlotTaken for the later submitter.
func (a *App) InsertBooking(ctx context.Context, b *Booking) error {
	var existing string
	checkQ := `SELECT id FROM bookings
	           WHERE appointment_type_id=$1 AND status='confirmed'
	           AND start_datetime < $3 AND end_datetime > $2
	           LIMIT 1`
	err := a.DB.QueryRow(ctx, checkQ, b.AppointmentTypeID, b.StartDatetime, b.EndDatetime).Scan(&existing)
	if err == nil {
		return ErrSlotTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	q := `INSERT INTO bookings
		(id,appointment_type_id,start_datetime,end_datetime,guest_name,guest_email,guest_phone,
		 notes,custom_field_responses,google_event_id,status,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'confirmed',now())
		RETURNING created_at`
	err = a.DB.QueryRow(ctx, q,
		b.ID, b.AppointmentTypeID, b.StartDatetime, b.EndDatetime,
		b.GuestName, b.GuestEmail, b.GuestPhone, b.Notes,
		encodeResponses(b.CustomFieldResponses), b.GoogleEventID,
	).Scan(&b.CreatedAt)
	if err != nil {
		return err
	}
	b.Status = StatusConfirmed
	return nil
}

func (a *App) GetBooking(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	b, err := scanBooking(a.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (a *App) ListBookings(ctx context.Context, from, to time.Time, filtered bool) ([]Booking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filtered {
		q := `SELECT ` + bookingColumns + ` FROM bookings
		      WHERE start_datetime >= $1 AND start_datetime < $2
		      ORDER BY start_datetime`
		rows, err = a.DB.Query(ctx, q, from, to)
	} else {
		q := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY start_datetime`
		rows, err = a.DB.Query(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CancelBooking flips a booking to cancelled. Cancelling twice is a no-op;
// the bool reports whether this call did the transition.
func (a *App) CancelBooking(ctx context.Context, id string) (*Booking, bool, error) {
	b, err := a.GetBooking(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if b.Status == StatusCancelled {
		return b, false, nil
	}
	_, err = a.DB.Exec(ctx, `UPDATE bookings SET status='cancelled' WHERE id=$1 AND status != 'cancelled'`, id)
	if err != nil {
		return nil, false, err
	}
	b.Status = StatusCancelled
	return b, true, nil
}

// UpdateBookingSchedule persists the new interval and calendar event after a
// reschedule's calendar step has already succeeded.
func (a *App) UpdateBookingSchedule(ctx context.Context, id string, start, end time.Time, googleEventID string) error {
	q := `UPDATE bookings SET start_datetime=$1, end_datetime=$2, google_event_id=$3 WHERE id=$4`
	res, err := a.DB.Exec(ctx, q, start, end, googleEventID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
