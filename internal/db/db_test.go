package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vrlounge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestAdmins(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	require.NoError(t, database.UpsertAdmin(ctx, model.Admin{ID: "b", Name: "Boris"}))
	require.NoError(t, database.UpsertAdmin(ctx, model.Admin{ID: "a", Name: "Anna"}))
	require.NoError(t, database.UpsertAdmin(ctx, model.Admin{ID: "b", Name: "Alina"}))
	assert.Error(t, database.UpsertAdmin(ctx, model.Admin{Name: "nobody"}))

	admins, err := database.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Admin{{ID: "b", Name: "Alina"}, {ID: "a", Name: "Anna"}}, admins)
}

func TestBookings(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	party := &model.Booking{
		ID:               "p1",
		Date:             "2024-06-01",
		StartTime:        "14:00",
		Duration:         model.Num(2.5),
		SelectedServices: []string{"birthday", "hostess"},
		DiscountPercent:  model.Num(10),
		ClientName:       "Ivanova",
	}
	messy := &model.Booking{
		Date:     "2024-06-02",
		Duration: model.ParseNumber("two"),
	}
	outside := &model.Booking{ID: "x", Date: "2024-07-01", Duration: model.Num(1)}

	for _, b := range []*model.Booking{party, messy, outside} {
		require.NoError(t, database.UpsertBooking(ctx, b))
	}
	assert.NotEmpty(t, messy.ID)

	got, err := database.ListBookingsBetween(ctx, "2024-06-01", "2024-06-30")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, []string{"birthday", "hostess"}, got[0].SelectedServices)
	assert.InDelta(t, 2.5, got[0].Duration.Float(), 1e-9)
	assert.InDelta(t, 10, got[0].DiscountPercent.Float(), 1e-9)
	assert.Equal(t, "14:00", got[0].StartTime)
	assert.Equal(t, "Ivanova", got[0].ClientName)

	assert.False(t, got[1].Duration.Valid())
	assert.Equal(t, "two", got[1].Duration.Raw())
	assert.Empty(t, got[1].SelectedServices)

	party.SelectedServices = []string{"karaoke"}
	require.NoError(t, database.UpsertBooking(ctx, party))
	got, err = database.ListBookingsBetween(ctx, "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"karaoke"}, got[0].SelectedServices)

	n, err := database.CountBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAssignments(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	first := &model.ShiftAssignment{Date: "2024-06-01", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.Num(3)}
	require.NoError(t, database.SaveAssignment(ctx, first))
	require.NoError(t, database.SaveAssignment(ctx, &model.ShiftAssignment{Date: "2024-06-03", MainAdminID: "b"}))
	assert.Error(t, database.SaveAssignment(ctx, &model.ShiftAssignment{Date: "June 1st"}))

	got, err := database.GetAssignmentByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "b", got.HelperAdminID)
	assert.Equal(t, 3, got.HelperHours.Int())

	// Saving the same day again replaces the staffing.
	require.NoError(t, database.SaveAssignment(ctx, &model.ShiftAssignment{Date: "2024-06-01", MainAdminID: "c"}))
	got, err = database.GetAssignmentByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "c", got.MainAdminID)
	assert.False(t, got.HasHelper())
	assert.True(t, got.HelperHours.IsZero())

	_, err = database.GetAssignmentByDate(ctx, "2024-06-02")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := database.ListAssignmentsBetween(ctx, "2024-06-01", "2024-06-07")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-06-03", list[1].Date)
}

func TestBackupAndCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	database, err := NewDB(filepath.Join(dir, "data", "lounge.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.UpsertAdmin(ctx, model.Admin{ID: "a", Name: "Anna"}))

	backups := filepath.Join(dir, "backups")
	dest := filepath.Join(backups, BackupName(time.Date(2024, 6, 1, 3, 30, 0, 0, time.UTC)))
	require.NoError(t, database.Backup(dest))
	assert.FileExists(t, dest)
	assert.Equal(t, "vrlounge_20240601_033000.db", filepath.Base(dest))
	assert.Error(t, database.Backup(dest))

	restored, err := NewDB(dest, nil)
	require.NoError(t, err)
	admins, err := restored.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
	require.NoError(t, restored.Close())

	old := filepath.Join(backups, "vrlounge_20200101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	keep := filepath.Join(backups, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(keep, past, past))

	deleted, err := database.CleanupBackups(backups, 14*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, old)
	assert.FileExists(t, keep)

	require.NoError(t, database.PingContext(ctx))
}
