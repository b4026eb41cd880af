package payroll

import (
	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"
)

// WeeklyTotal is one admin's running pay for a week.
type WeeklyTotal struct {
	AdminID  string   `json:"admin_id"`
	Name     string   `json:"name"`
	Total    float64  `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// Weekly is the short payroll used for weekly payouts.
type Weekly struct {
	Totals       map[string]*WeeklyTotal `json:"totals"`
	TotalRevenue float64                 `json:"total_revenue"`
	Anomalies    model.Anomalies         `json:"anomalies,omitempty"`
	Strict       bool                    `json:"strict,omitempty"`
}

// ComputeWeeklyPayroll applies the same per-day rules as ComputeMonthlyPayroll
// but keeps only totals. Helper hour mismatches become dated warnings.
func ComputeWeeklyPayroll(
	assignments []model.ShiftAssignment,
	bookings []model.Booking,
	admins []model.Admin,
	prices *pricing.Table,
) *Weekly {
	l := newLedger(bookings, admins, prices)

	out := &Weekly{
		Totals: make(map[string]*WeeklyTotal, len(admins)),
		Strict: l.prices.IsStrict(),
	}
	for _, a := range admins {
		out.Totals[a.ID] = &WeeklyTotal{AdminID: a.ID, Name: a.Name}
	}

	for i := range assignments {
		s := l.settle(&assignments[i])
		out.TotalRevenue += s.Revenue.Total

		if s.MainAdminID != "" {
			out.Totals[s.MainAdminID].Total += revenue.MainBaseRate + s.MainBonus
		}
		if s.Helper != nil {
			t := out.Totals[s.HelperAdminID]
			t.Total += s.Helper.Base + s.Helper.Bonus
			if s.Helper.Note != "" {
				t.Warnings = append(t.Warnings, s.Date+": "+s.Helper.Note)
			}
		}
	}

	out.Anomalies = l.anomalies
	return out
}

// Err reports the anomalies as an error when the strict policy is in force.
func (w *Weekly) Err() error {
	if !w.Strict {
		return nil
	}
	return w.Anomalies.Join()
}

// Records returns the totals ordered by admin name.
func (w *Weekly) Records() []*WeeklyTotal {
	out := make([]*WeeklyTotal, 0, len(w.Totals))
	for _, t := range w.Totals {
		out = append(out, t)
	}
	sortRecords(out, func(t *WeeklyTotal) (string, string) { return t.Name, t.AdminID })
	return out
}

// Warnings returns every admin's warnings in roster order.
func (w *Weekly) Warnings() []string {
	var out []string
	for _, t := range w.Records() {
		out = append(out, t.Warnings...)
	}
	return out
}
