package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"vrlounge/internal/report"

	"github.com/rs/zerolog"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService mirrors payroll exports into a Google spreadsheet, one tab
// per period and sheet.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	logger        *zerolog.Logger

	mu     sync.RWMutex
	tabIDs map[string]int64
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := googleoauth.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "sheets").Logger()
	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		logger:        &l,
		tabIDs:        make(map[string]int64),
	}, nil
}

// ExportSheets replaces the contents of the period's tabs with the given sheets.
// A tab deleted by hand since it was cached is recreated once.
func (s *SheetsService) ExportSheets(ctx context.Context, p report.Period, data []report.Sheet) error {
	for _, sh := range data {
		title := TabTitle(p, sh.Name)
		err := s.exportSheet(ctx, title, sh)
		if isMissingTab(err) {
			s.logger.Warn().Str("tab", title).Msg("Cached tab is gone, recreating")
			s.ClearCache()
			err = s.exportSheet(ctx, title, sh)
		}
		if err != nil {
			return err
		}
		s.logger.Info().Str("tab", title).Int("rows", len(sh.Rows)).Msg("Sheet exported")
	}
	return nil
}

func (s *SheetsService) exportSheet(ctx context.Context, title string, sh report.Sheet) error {
	if err := s.ensureTab(ctx, title); err != nil {
		return err
	}
	rng := quoteSheet(title)
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}
	vr := &sheets.ValueRange{Values: sheetValues(sh)}
	if _, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", title, err)
	}
	return nil
}

// isMissingTab matches the API's answer to a range on a deleted tab.
func isMissingTab(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Message, "Unable to parse range")
}

func (s *SheetsService) ensureTab(ctx context.Context, title string) error {
	if _, ok := s.getCachedTab(title); ok {
		return nil
	}

	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			s.setCachedTab(sh.Properties.Title, sh.Properties.SheetId)
		}
	}
	if _, ok := s.getCachedTab(title); ok {
		return nil
	}

	resp, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tab %s: %w", title, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		s.setCachedTab(title, resp.Replies[0].AddSheet.Properties.SheetId)
	}
	return nil
}

func (s *SheetsService) getCachedTab(title string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tabIDs[title]
	return id, ok
}

func (s *SheetsService) setCachedTab(title string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabIDs[title] = id
}

// ClearCache forgets known tabs, e.g. after someone deleted them by hand.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabIDs = make(map[string]int64)
}

// TabTitle names the tab of one export sheet, e.g. "2024-06 Summary".
func TabTitle(p report.Period, sheet string) string {
	return p.Key() + " " + sheet
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func sheetValues(sh report.Sheet) [][]interface{} {
	out := make([][]interface{}, 0, len(sh.Rows)+1)
	header := make([]interface{}, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range sh.Rows {
		vals := make([]interface{}, len(row))
		for i, v := range row {
			if v == nil {
				v = ""
			}
			vals[i] = v
		}
		out = append(out, vals)
	}
	return out
}
