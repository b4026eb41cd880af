package report

import (
	"context"
	"fmt"
	"io"

	"vrlounge/internal/payroll"

	"github.com/xuri/excelize/v2"
)

// Sheet is a tabular part of an export.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// MonthlySheets lays the payroll out as a summary sheet and a per-shift sheet.
func MonthlySheets(p Period, m *payroll.Monthly) []Sheet {
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Администратор", "Дней", "Часов помощи", "Оклад", "Бонус", "Итого"},
	}
	shifts := Sheet{
		Name:   "Shifts",
		Header: []string{"Дата", "Администратор", "Смена", "Выручка", "Оклад", "Бонус", "Часы", "Примечание"},
	}

	for _, rec := range m.Records() {
		summary.Rows = append(summary.Rows, []interface{}{
			rec.Name, rec.DaysWorked, rec.HoursWorked,
			money(rec.BaseSalary), money(rec.BonusSalary), money(rec.TotalSalary),
		})
		for _, d := range rec.Details {
			shifts.Rows = append(shifts.Rows, []interface{}{
				d.Date, rec.Name, d.Type.Label(), money(d.Revenue),
				money(d.Base), money(d.Bonus), d.Hours, d.Note,
			})
		}
	}
	summary.Rows = append(summary.Rows,
		[]interface{}{},
		[]interface{}{"Выручка за " + p.Title(), "", "", "", "", money(m.TotalRevenue)},
		[]interface{}{"Фонд оплаты", "", "", "", "", money(m.Payout())},
	)

	return []Sheet{summary, shifts}
}

// SheetWriter writes tabular data to a workbook.
type SheetWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements SheetWriter using excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() *ExcelizeWriter {
	return &ExcelizeWriter{
		file: excelize.NewFile(),
	}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel limit
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	start := w.currentRow
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, start)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), start)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	if len(row) > 0 {
		cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

// WriteSheets writes every sheet to sw and saves the workbook to out.
func WriteSheets(sw SheetWriter, sheets []Sheet, out io.Writer) error {
	for _, sh := range sheets {
		if err := sw.AddSheet(sh.Name); err != nil {
			return err
		}
		if err := sw.WriteHeader(sh.Header); err != nil {
			return fmt.Errorf("write %s header: %w", sh.Name, err)
		}
		for _, row := range sh.Rows {
			if err := sw.WriteRow(row); err != nil {
				return fmt.Errorf("write %s row: %w", sh.Name, err)
			}
		}
	}
	return sw.Save(out)
}

// ExportMonthlyExcel writes the monthly payroll of p as an xlsx workbook.
// Under the strict policy nothing is written when the report has anomalies.
func (s *Service) ExportMonthlyExcel(ctx context.Context, p Period, out io.Writer) (*payroll.Monthly, error) {
	m, err := s.Monthly(ctx, p)
	if err != nil {
		return m, err
	}

	w := NewExcelizeWriter()
	defer w.Close()

	if err := WriteSheets(w, MonthlySheets(p, m), out); err != nil {
		return m, fmt.Errorf("export %s: %w", p.Key(), err)
	}
	return m, nil
}

func money(v float64) float64 {
	return roundTo(v, 2)
}
