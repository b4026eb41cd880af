// Package payroll aggregates per-day revenue and staff pay over a period.
package payroll

import (
	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"
)

// shift is the settled outcome of one staffed day.
type shift struct {
	Date    string
	Revenue model.DayRevenue

	MainAdminID string // empty when no payable main admin
	MainBonus   float64

	HelperAdminID string
	Helper        *revenue.HelperPay // nil when the helper earns nothing
}

// ledger holds the inputs of one aggregation run.
type ledger struct {
	prices    *pricing.Table
	roster    map[string]model.Admin
	byDate    map[string][]model.Booking
	anomalies model.Anomalies
	seen      map[model.Anomaly]struct{}
}

func newLedger(bookings []model.Booking, admins []model.Admin, prices *pricing.Table) *ledger {
	if prices == nil {
		prices = &pricing.Table{}
	}
	l := &ledger{
		prices: prices,
		roster: make(map[string]model.Admin, len(admins)),
		byDate: make(map[string][]model.Booking),
		seen:   make(map[model.Anomaly]struct{}),
	}
	for _, a := range admins {
		l.roster[a.ID] = a
	}
	for _, b := range bookings {
		if !model.ValidDate(b.Date) {
			l.flag(model.Anomaly{Kind: model.AnomalyInvalidDate, BookingID: b.ID, Field: "booking_date", Value: b.Date})
			continue
		}
		l.byDate[b.Date] = append(l.byDate[b.Date], b)
	}
	return l
}

func (l *ledger) flag(as ...model.Anomaly) {
	for _, a := range as {
		if _, dup := l.seen[a]; dup {
			continue
		}
		l.seen[a] = struct{}{}
		l.anomalies = append(l.anomalies, a)
	}
}

// known reports whether the admin is on the roster, flagging orphans.
func (l *ledger) known(date, field, id string) bool {
	if _, ok := l.roster[id]; ok {
		return true
	}
	l.flag(model.Anomaly{Kind: model.AnomalyOrphanAdmin, Date: date, Field: field, Value: id})
	return false
}

func (l *ledger) settle(a *model.ShiftAssignment) shift {
	day := l.byDate[a.Date]
	s := shift{
		Date:    a.Date,
		Revenue: revenue.ComputeDayRevenue(day, l.prices),
	}
	l.flag(s.Revenue.Anomalies...)

	if a.MainAdminID != "" && l.known(a.Date, "main_admin_id", a.MainAdminID) {
		s.MainAdminID = a.MainAdminID
		s.MainBonus = revenue.ComputeAdminBonus(s.Revenue.Total, day, a.HasHelper(), l.prices)
	}

	if !a.HelperHours.Valid() {
		l.flag(model.Anomaly{
			Kind:  model.AnomalyInvalidNumber,
			Date:  a.Date,
			Field: "helper_hours",
			Value: a.HelperHours.Raw(),
		})
	}
	if a.HasHelper() && l.known(a.Date, "helper_admin_id", a.HelperAdminID) && !a.HelperHours.IsZero() {
		pay := revenue.ComputeHelperPay(day, a.HelperHours, l.prices)
		if pay.Hours > 0 {
			s.HelperAdminID = a.HelperAdminID
			s.Helper = &pay
		}
	}
	return s
}
