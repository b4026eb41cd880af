package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vrlounge/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// UpsertBooking stores a booking snapshot. A booking without an id gets one.
func (db *DB) UpsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	services := b.SelectedServices
	if services == nil {
		services = []string{}
	}
	encoded, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO bookings (
			id, booking_date, start_time, duration, services, service_type,
			discount_percent, discount_amount, client_name, client_phone, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			booking_date = excluded.booking_date,
			start_time = excluded.start_time,
			duration = excluded.duration,
			services = excluded.services,
			service_type = excluded.service_type,
			discount_percent = excluded.discount_percent,
			discount_amount = excluded.discount_amount,
			client_name = excluded.client_name,
			client_phone = excluded.client_phone,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		b.ID, b.Date, b.StartTime, b.Duration, string(encoded), b.ServiceType,
		b.DiscountPercent, b.DiscountAmount, b.ClientName, b.ClientPhone, b.Notes,
		b.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("upsert booking %s: %w", b.ID, err)
	}
	return nil
}

// ListBookingsBetween returns bookings dated from..to inclusive (YYYY-MM-DD).
func (db *DB) ListBookingsBetween(ctx context.Context, from, to string) ([]model.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_date, start_time, duration, services, service_type,
		       discount_percent, discount_amount, client_name, client_phone, notes,
		       created_at
		FROM bookings
		WHERE booking_date BETWEEN ? AND ?
		ORDER BY booking_date, start_time, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var (
			b                                     model.Booking
			start, serviceType, name, phone, note sql.NullString
			services                              string
		)
		if err := rows.Scan(&b.ID, &b.Date, &start, &b.Duration, &services, &serviceType,
			&b.DiscountPercent, &b.DiscountAmount, &name, &phone, &note, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if err := json.Unmarshal([]byte(services), &b.SelectedServices); err != nil {
			db.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("malformed services column, treating as empty")
			b.SelectedServices = nil
		}
		b.StartTime = start.String
		b.ServiceType = serviceType.String
		b.ClientName = name.String
		b.ClientPhone = phone.String
		b.Notes = note.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountBookings returns the number of stored bookings.
func (db *DB) CountBookings(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
