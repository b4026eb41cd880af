package db

import (
	"context"
	"fmt"
	"time"

	"vrlounge/internal/model"
)

// UpsertAdmin creates or renames an admin.
func (db *DB) UpsertAdmin(ctx context.Context, a model.Admin) error {
	if a.ID == "" {
		return fmt.Errorf("upsert admin: empty id")
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO admins (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at`,
		a.ID, a.Name, now, now)
	if err != nil {
		return fmt.Errorf("upsert admin %s: %w", a.ID, err)
	}
	return nil
}

// ListAdmins returns the full roster ordered by name.
func (db *DB) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM admins ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
