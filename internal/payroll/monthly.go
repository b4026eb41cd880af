package payroll

import (
	"sort"

	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"
)

// Monthly is the payroll of a period with per-shift details.
type Monthly struct {
	Salaries     map[string]*model.SalaryRecord `json:"salaries"`
	TotalRevenue float64                        `json:"total_revenue"`
	Anomalies    model.Anomalies                `json:"anomalies,omitempty"`
	Strict       bool                           `json:"strict,omitempty"`
}

// ComputeMonthlyPayroll pays every admin on the roster for the given shift
// assignments. Each assignment is one staffed day; bookings are matched to it
// by date. Assignments referring to admins outside the roster pay nobody.
// Bookings whose date is not a zero-padded YYYY-MM-DD day, such as "2024-6-1",
// are left out of every day and reported as invalid_date anomalies.
func ComputeMonthlyPayroll(
	assignments []model.ShiftAssignment,
	bookings []model.Booking,
	admins []model.Admin,
	prices *pricing.Table,
) *Monthly {
	l := newLedger(bookings, admins, prices)

	out := &Monthly{
		Salaries: make(map[string]*model.SalaryRecord, len(admins)),
		Strict:   l.prices.IsStrict(),
	}
	for _, a := range admins {
		out.Salaries[a.ID] = &model.SalaryRecord{AdminID: a.ID, Name: a.Name, Details: []model.ShiftDetail{}}
	}

	for i := range assignments {
		s := l.settle(&assignments[i])
		out.TotalRevenue += s.Revenue.Total

		if s.MainAdminID != "" {
			rec := out.Salaries[s.MainAdminID]
			rec.DaysWorked++
			rec.Add(model.ShiftDetail{
				Date:    s.Date,
				Type:    model.ShiftMain,
				Base:    revenue.MainBaseRate,
				Bonus:   s.MainBonus,
				Revenue: s.Revenue.Total,
			})
		}

		if s.Helper != nil {
			rec := out.Salaries[s.HelperAdminID]
			rec.HoursWorked += s.Helper.Hours
			rec.Add(model.ShiftDetail{
				Date:    s.Date,
				Type:    model.ShiftHelper,
				Base:    s.Helper.Base,
				Bonus:   s.Helper.Bonus,
				Revenue: s.Helper.BirthdayRevenue,
				Hours:   s.Helper.Hours,
				Note:    s.Helper.Note,
			})
		}
	}

	out.Anomalies = l.anomalies
	return out
}

// Err reports the anomalies as an error when the strict policy is in force.
func (m *Monthly) Err() error {
	if !m.Strict {
		return nil
	}
	return m.Anomalies.Join()
}

// Records returns the salary records ordered by admin name.
func (m *Monthly) Records() []*model.SalaryRecord {
	out := make([]*model.SalaryRecord, 0, len(m.Salaries))
	for _, r := range m.Salaries {
		out = append(out, r)
	}
	sortRecords(out, func(r *model.SalaryRecord) (string, string) { return r.Name, r.AdminID })
	return out
}

// Payout is the sum of all admins' total salaries.
func (m *Monthly) Payout() float64 {
	total := 0.0
	for _, r := range m.Salaries {
		total += r.TotalSalary
	}
	return total
}

func sortRecords[T any](items []T, key func(T) (string, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ni, ii := key(items[i])
		nj, ij := key(items[j])
		if ni != nj {
			return ni < nj
		}
		return ii < ij
	})
}
