// Package report loads booking and staffing snapshots, runs the payroll
// calculators over them and renders the results for staff.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"vrlounge/internal/metrics"
	"vrlounge/internal/model"
	"vrlounge/internal/payroll"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"

	"github.com/rs/zerolog"
)

// ErrAnomalies wraps the anomaly list when the strict policy rejects a report.
var ErrAnomalies = errors.New("report rejected under strict pricing policy")

// Store is the snapshot source of the reports.
type Store interface {
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	ListBookingsBetween(ctx context.Context, from, to string) ([]model.Booking, error)
	ListAssignmentsBetween(ctx context.Context, from, to string) ([]model.ShiftAssignment, error)
}

// Service computes revenue and payroll reports.
type Service struct {
	store  Store
	cache  *Cache
	prices atomic.Pointer[pricing.Table]
	logger *zerolog.Logger
	now    func() time.Time
}

// NewService creates a report service. cache may be nil.
func NewService(store Store, prices *pricing.Table, cache *Cache, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "report").Logger()
	s := &Service{
		store:  store,
		cache:  cache,
		logger: &l,
		now:    time.Now,
	}
	if prices == nil {
		prices = pricing.Default()
	}
	s.prices.Store(prices)
	return s
}

// SetPrices swaps the price table used by subsequent reports.
func (s *Service) SetPrices(t *pricing.Table) {
	if t == nil {
		return
	}
	s.prices.Store(t)
	s.logger.Info().Str("version", t.Version).Msg("price table updated")
}

// Prices returns the current price table.
func (s *Service) Prices() *pricing.Table {
	return s.prices.Load()
}

// Ping reports whether the cache is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// Invalidate drops cached reports after bookings, staffing or the roster changed.
func (s *Service) Invalidate(ctx context.Context) error {
	n, err := s.cache.purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug().Int("keys", n).Msg("report cache invalidated")
	}
	return nil
}

type snapshot struct {
	admins      []model.Admin
	bookings    []model.Booking
	assignments []model.ShiftAssignment
}

func (s *Service) load(ctx context.Context, p Period) (*snapshot, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	bookings, err := s.store.ListBookingsBetween(ctx, p.From(), p.To())
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	assignments, err := s.store.ListAssignmentsBetween(ctx, p.From(), p.To())
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	return &snapshot{admins: admins, bookings: bookings, assignments: assignments}, nil
}

// Monthly returns the detailed payroll of a period. Under the strict policy a
// report with anomalies is returned together with an error wrapping ErrAnomalies.
func (s *Service) Monthly(ctx context.Context, p Period) (*payroll.Monthly, error) {
	started := s.now()
	prices := s.Prices()
	key := cacheKey("monthly", p, prices.Version)

	var out *payroll.Monthly
	if s.cache.read(ctx, key, &out) && out != nil {
		metrics.IncReport("monthly", "cache")
		return out, strictErr(out.Err())
	}

	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	out = payroll.ComputeMonthlyPayroll(snap.assignments, snap.bookings, snap.admins, prices)

	metrics.IncReport("monthly", "computed")
	metrics.ObserveReport("monthly", started)
	metrics.SetPayrollTotal(out.Payout())
	s.logAnomalies(ctx, "monthly", p, out.Anomalies)

	if err := out.Err(); err != nil {
		return out, strictErr(err)
	}
	s.cache.write(ctx, key, out)
	return out, nil
}

// Weekly returns the short payroll of a period.
func (s *Service) Weekly(ctx context.Context, p Period) (*payroll.Weekly, error) {
	started := s.now()
	prices := s.Prices()
	key := cacheKey("weekly", p, prices.Version)

	var out *payroll.Weekly
	if s.cache.read(ctx, key, &out) && out != nil {
		metrics.IncReport("weekly", "cache")
		return out, strictErr(out.Err())
	}

	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	out = payroll.ComputeWeeklyPayroll(snap.assignments, snap.bookings, snap.admins, prices)

	metrics.IncReport("weekly", "computed")
	metrics.ObserveReport("weekly", started)
	s.logAnomalies(ctx, "weekly", p, out.Anomalies)

	if err := out.Err(); err != nil {
		return out, strictErr(err)
	}
	s.cache.write(ctx, key, out)
	return out, nil
}

// DayReport is the card of a single day.
type DayReport struct {
	Date            string          `json:"date"`
	TotalRevenue    float64         `json:"total_revenue"`
	BirthdayRevenue float64         `json:"birthday_revenue"`
	Bookings        int             `json:"bookings"`
	Staffed         bool            `json:"staffed"`
	MainAdmin       *Staff          `json:"main_admin,omitempty"`
	HelperAdmin     *Staff          `json:"helper_admin,omitempty"`
	Main            *DayPay         `json:"main,omitempty"`
	Helper          *DayPay         `json:"helper,omitempty"`
	Lines           []BookingLine   `json:"lines,omitempty"`
	Anomalies       model.Anomalies `json:"anomalies,omitempty"`
}

// Staff is an admin assigned to the day, whether or not the shift pays them.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookingLine is one booking of the day with its rounded quote.
type BookingLine struct {
	ID         string `json:"id"`
	StartTime  string `json:"start_time"`
	Client     string `json:"client"`
	Services   string `json:"services"`
	Birthday   bool   `json:"birthday"`
	Total      int64  `json:"total"`
	FinalTotal int64  `json:"final_total"`
}

// DayPay is one admin's pay for the day.
type DayPay struct {
	AdminID string  `json:"admin_id"`
	Name    string  `json:"name"`
	Base    float64 `json:"base"`
	Bonus   float64 `json:"bonus"`
	Total   float64 `json:"total"`
	Hours   int     `json:"hours,omitempty"`
	Note    string  `json:"note,omitempty"`
}

// Day returns revenue and staff pay of one calendar day. Day cards are not
// cached; they are opened while bookings are still being edited.
func (s *Service) Day(ctx context.Context, p Period) (*DayReport, error) {
	started := s.now()
	prices := s.Prices()

	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	date := p.From()
	out := &DayReport{Date: date, Bookings: len(snap.bookings)}

	assignments := snap.assignments
	if len(assignments) == 0 {
		// Revenue is still shown for an unstaffed day.
		assignments = []model.ShiftAssignment{{Date: date}}
	} else {
		out.Staffed = true
		out.MainAdmin = staffOf(assignments[0].MainAdminID, snap.admins)
		out.HelperAdmin = staffOf(assignments[0].HelperAdminID, snap.admins)
	}
	m := payroll.ComputeMonthlyPayroll(assignments[:1], snap.bookings, snap.admins, prices)
	out.TotalRevenue = m.TotalRevenue
	out.Anomalies = m.Anomalies
	for _, rec := range m.Records() {
		for _, d := range rec.Details {
			pay := &DayPay{
				AdminID: rec.AdminID,
				Name:    rec.Name,
				Base:    d.Base,
				Bonus:   d.Bonus,
				Total:   d.Base + d.Bonus,
				Hours:   d.Hours,
				Note:    d.Note,
			}
			if d.Type == model.ShiftMain {
				out.Main = pay
			} else {
				out.Helper = pay
			}
		}
	}
	out.BirthdayRevenue = revenue.ComputeDayRevenue(snap.bookings, prices).Birthday
	for i := range snap.bookings {
		b := &snap.bookings[i]
		q := revenue.QuoteBooking(b, prices)
		out.Lines = append(out.Lines, BookingLine{
			ID:         b.ID,
			StartTime:  b.StartTime,
			Client:     b.ClientName,
			Services:   pricing.Labels(b.SelectedServices),
			Birthday:   b.IsBirthday(),
			Total:      q.Total,
			FinalTotal: q.FinalTotal,
		})
	}

	metrics.IncReport("day", "computed")
	metrics.ObserveReport("day", started)
	s.logAnomalies(ctx, "day", p, out.Anomalies)

	if m.Strict {
		return out, strictErr(m.Anomalies.Join())
	}
	return out, nil
}

// staffOf resolves a roster name; admins missing from the roster keep their id.
func staffOf(id string, admins []model.Admin) *Staff {
	if id == "" {
		return nil
	}
	for _, a := range admins {
		if a.ID == id {
			return &Staff{ID: id, Name: a.Name}
		}
	}
	return &Staff{ID: id, Name: id}
}

func (s *Service) logAnomalies(ctx context.Context, kind string, p Period, as model.Anomalies) {
	for k, n := range as.CountByKind() {
		metrics.AddAnomalies(string(k), n)
	}
	if len(as) == 0 {
		return
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = s.logger
	}
	for i := range as {
		l.Warn().
			Str("report", kind).
			Str("period", p.Key()).
			Str("kind", string(as[i].Kind)).
			Str("booking_id", as[i].BookingID).
			Str("date", as[i].Date).
			Str("value", as[i].Value).
			Msg("input anomaly")
	}
}

func strictErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAnomalies, err)
}
