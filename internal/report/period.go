package report

import (
	"errors"
	"fmt"
	"time"

	"vrlounge/internal/model"
)

// ErrInvalidPeriod is returned for unparsable month, week or day parameters.
var ErrInvalidPeriod = errors.New("invalid period")

// PeriodKind distinguishes the report granularities.
type PeriodKind string

const (
	KindDay   PeriodKind = "day"
	KindWeek  PeriodKind = "week"
	KindMonth PeriodKind = "month"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
}

// From is the first day as YYYY-MM-DD.
func (p Period) From() string { return p.Start.Format(model.DateLayout) }

// To is the last day as YYYY-MM-DD.
func (p Period) To() string { return p.End.Format(model.DateLayout) }

// Key identifies the period in cache keys and file names.
func (p Period) Key() string {
	switch p.Kind {
	case KindMonth:
		return p.Start.Format("2006-01")
	case KindWeek:
		year, week := p.Start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return p.From()
	}
}

// Title is the staff-facing name of the period.
func (p Period) Title() string {
	switch p.Kind {
	case KindMonth:
		return fmt.Sprintf("%s %d", MonthNames[p.Start.Month()], p.Start.Year())
	case KindWeek:
		return fmt.Sprintf("%s – %s", p.Start.Format("02.01"), p.End.Format("02.01.2006"))
	default:
		return p.Start.Format("02.01.2006")
	}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q, expected YYYY-MM", ErrInvalidPeriod, s)
	}
	return MonthOf(t), nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Kind: KindMonth, Start: start, End: start.AddDate(0, 1, -1)}
}

// ParseDay parses "YYYY-MM-DD".
func ParseDay(s string) (Period, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: date %q, expected YYYY-MM-DD", ErrInvalidPeriod, s)
	}
	return Period{Kind: KindDay, Start: t, End: t}, nil
}

// WeekOf parses a YYYY-MM-DD day and returns its Monday-Sunday week.
func WeekOf(s string) (Period, error) {
	day, err := ParseDay(s)
	if err != nil {
		return Period{}, err
	}
	return WeekContaining(day.Start), nil
}

// WeekContaining returns the Monday-Sunday week containing t.
func WeekContaining(t time.Time) Period {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return Period{Kind: KindWeek, Start: start, End: start.AddDate(0, 0, 6)}
}

// PreviousMonth is the month before the one containing now.
func PreviousMonth(now time.Time) Period {
	return MonthOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))
}

// PreviousWeek is the week before the one containing now.
func PreviousWeek(now time.Time) Period {
	return WeekContaining(WeekContaining(now).Start.AddDate(0, 0, -7))
}

// MonthNames in Russian for titles and file names.
var MonthNames = map[time.Month]string{
	time.January:   "Январь",
	time.February:  "Февраль",
	time.March:     "Март",
	time.April:     "Апрель",
	time.May:       "Май",
	time.June:      "Июнь",
	time.July:      "Июль",
	time.August:    "Август",
	time.September: "Сентябрь",
	time.October:   "Октябрь",
	time.November:  "Ноябрь",
	time.December:  "Декабрь",
}

// ExportFilename creates a filename like "Зарплата_Июнь_2024.xlsx".
func ExportFilename(p Period) string {
	return fmt.Sprintf("Зарплата_%s_%d.xlsx", MonthNames[p.Start.Month()], p.Start.Year())
}
