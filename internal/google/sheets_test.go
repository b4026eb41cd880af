package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"vrlounge/internal/model"
	"vrlounge/internal/payroll"
	"vrlounge/internal/pricing"
	"vrlounge/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestSheetValues(t *testing.T) {
	sh := report.Sheet{
		Name:   "Summary",
		Header: []string{"Администратор", "Итого"},
		Rows: [][]interface{}{
			{"Anna", 1340.0},
			{},
			{"Фонд оплаты", nil},
		},
	}

	values := sheetValues(sh)

	require.Len(t, values, 4)
	assert.Equal(t, []interface{}{"Администратор", "Итого"}, values[0])
	assert.Equal(t, []interface{}{"Anna", 1340.0}, values[1])
	assert.Empty(t, values[2])
	assert.Equal(t, []interface{}{"Фонд оплаты", ""}, values[3])
}

func TestMonthlySheetValues(t *testing.T) {
	m := payroll.ComputeMonthlyPayroll(
		[]model.ShiftAssignment{{Date: "2024-06-01", MainAdminID: "a"}},
		[]model.Booking{{ID: "1", Date: "2024-06-01", Duration: model.Num(2), SelectedServices: []string{"karaoke"}}},
		[]model.Admin{{ID: "a", Name: "Anna"}},
		&pricing.Table{Hourly: map[string]float64{"karaoke": 1000}},
	)
	p, err := report.ParseMonth("2024-06")
	require.NoError(t, err)

	sheets := report.MonthlySheets(p, m)
	require.Len(t, sheets, 2)

	summary := sheetValues(sheets[0])
	assert.Equal(t, "Anna", summary[1][0])
	assert.Equal(t, "2024-06 Summary", TabTitle(p, sheets[0].Name))
	assert.Equal(t, "2024-06 Shifts", TabTitle(p, sheets[1].Name))
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'2024-06 Summary'", quoteSheet("2024-06 Summary"))
	assert.Equal(t, "'Anna''s'", quoteSheet("Anna's"))
}

func TestTabCache(t *testing.T) {
	s := &SheetsService{tabIDs: make(map[string]int64)}

	s.setCachedTab("2024-06 Summary", 5)
	id, ok := s.getCachedTab("2024-06 Summary")
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	s.ClearCache()
	_, ok = s.getCachedTab("2024-06 Summary")
	assert.False(t, ok)
}

func TestIsMissingTab(t *testing.T) {
	gone := &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: '2024-06 Summary'"}
	assert.True(t, isMissingTab(fmt.Errorf("clear 2024-06 Summary: %w", gone)))

	assert.False(t, isMissingTab(nil))
	assert.False(t, isMissingTab(errors.New("Unable to parse range")))
	assert.False(t, isMissingTab(&googleapi.Error{Code: http.StatusTooManyRequests, Message: "Quota exceeded"}))
	assert.False(t, isMissingTab(&googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid values"}))
}

func TestNewSheetsService_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSheetsService(ctx, "creds.json", "", nil)
	assert.Error(t, err)

	_, err = NewSheetsService(ctx, filepath.Join(t.TempDir(), "missing.json"), "sheet", nil)
	assert.ErrorContains(t, err, "read credentials")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = NewSheetsService(ctx, bad, "sheet", nil)
	assert.ErrorContains(t, err, "parse credentials")
}
