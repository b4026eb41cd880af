package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vrlounge/internal/model"

	"github.com/google/uuid"
)

// SaveAssignment stores the staffing of a day. There is at most one
// assignment per date; saving again replaces it.
func (db *DB) SaveAssignment(ctx context.Context, a *model.ShiftAssignment) error {
	if !model.ValidDate(a.Date) {
		return fmt.Errorf("save assignment: invalid date %q", a.Date)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO shift_assignments (id, date, main_admin_id, helper_admin_id, helper_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			main_admin_id = excluded.main_admin_id,
			helper_admin_id = excluded.helper_admin_id,
			helper_hours = excluded.helper_hours,
			updated_at = excluded.updated_at`,
		a.ID, a.Date, a.MainAdminID, a.HelperAdminID, a.HelperHours, a.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("save assignment %s: %w", a.Date, err)
	}
	return nil
}

// ListAssignmentsBetween returns assignments dated from..to inclusive.
func (db *DB) ListAssignmentsBetween(ctx context.Context, from, to string) ([]model.ShiftAssignment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, main_admin_id, helper_admin_id, helper_hours, created_at
		FROM shift_assignments
		WHERE date BETWEEN ? AND ?
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.ShiftAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetAssignmentByDate returns the assignment of one day or ErrNotFound.
func (db *DB) GetAssignmentByDate(ctx context.Context, date string) (*model.ShiftAssignment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, date, main_admin_id, helper_admin_id, helper_hours, created_at
		FROM shift_assignments
		WHERE date = ?`, date)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(s scanner) (*model.ShiftAssignment, error) {
	var (
		a            model.ShiftAssignment
		main, helper sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Date, &main, &helper, &a.HelperHours, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan assignment: %w", err)
	}
	a.MainAdminID = main.String
	a.HelperAdminID = helper.String
	return &a, nil
}
