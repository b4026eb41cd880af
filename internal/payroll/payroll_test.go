package payroll

import (
	"testing"

	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-6

func testPrices() *pricing.Table {
	return &pricing.Table{
		Hostess: 2000,
		Hourly: map[string]float64{
			"weekday_vr1": 500,
			"karaoke":     1000,
		},
		Birthday: map[int]float64{1: 4000, 2: 3500, 3: 3000, 4: 3000},
	}
}

func testAdmins() []model.Admin {
	return []model.Admin{
		{ID: "a", Name: "Anna"},
		{ID: "b", Name: "Boris"},
		{ID: "c", Name: "Clara"},
	}
}

func booking(id, date string, duration float64, services ...string) model.Booking {
	return model.Booking{
		ID:               id,
		Date:             date,
		Duration:         model.Num(duration),
		SelectedServices: services,
	}
}

func TestComputeMonthlyPayroll_BirthdayWithHelper(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{ID: "s1", Date: "2024-06-01", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.Num(3)},
	}
	bookings := []model.Booking{booking("1", "2024-06-01", 3, "birthday")}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.InDelta(t, 10500, m.TotalRevenue, delta)

	main := m.Salaries["a"]
	require.NotNil(t, main)
	assert.Equal(t, 1, main.DaysWorked)
	assert.InDelta(t, 500, main.BaseSalary, delta)
	assert.InDelta(t, 840, main.BonusSalary, delta)
	assert.InDelta(t, 1340, main.TotalSalary, delta)
	require.Len(t, main.Details, 1)
	assert.Equal(t, model.ShiftMain, main.Details[0].Type)
	assert.InDelta(t, 10500, main.Details[0].Revenue, delta)

	helper := m.Salaries["b"]
	require.NotNil(t, helper)
	assert.Equal(t, 3, helper.HoursWorked)
	assert.Zero(t, helper.DaysWorked)
	assert.InDelta(t, 450, helper.BaseSalary, delta)
	assert.InDelta(t, 735, helper.BonusSalary, delta)
	assert.InDelta(t, 1185, helper.TotalSalary, delta)
	require.Len(t, helper.Details, 1)
	assert.Equal(t, model.ShiftHelper, helper.Details[0].Type)
	assert.Equal(t, 3, helper.Details[0].Hours)
	assert.Empty(t, helper.Details[0].Note)

	idle := m.Salaries["c"]
	require.NotNil(t, idle)
	assert.Zero(t, idle.TotalSalary)
	assert.Empty(t, idle.Details)

	assert.Empty(t, m.Anomalies)
	assert.NoError(t, m.Err())
	assert.InDelta(t, 1340+1185, m.Payout(), delta)
}

func TestComputeMonthlyPayroll_MatchesSingleDay(t *testing.T) {
	prices := testPrices()
	day := []model.Booking{
		booking("1", "2024-06-03", 2.5, "birthday", "hostess"),
		booking("2", "2024-06-03", 2, "karaoke"),
		booking("3", "2024-06-03", 1, "weekday_vr1", "hostess"),
	}
	day[1].DiscountPercent = model.Num(20)

	for _, helperID := range []string{"", "b"} {
		a := model.ShiftAssignment{Date: "2024-06-03", MainAdminID: "a", HelperAdminID: helperID, HelperHours: model.Num(2)}

		m := ComputeMonthlyPayroll([]model.ShiftAssignment{a}, day, testAdmins(), prices)

		dayRevenue := revenue.ComputeDayRevenue(day, prices)
		bonus := revenue.ComputeAdminBonus(dayRevenue.Total, day, helperID != "", prices)
		assert.InDelta(t, dayRevenue.Total, m.TotalRevenue, delta)
		assert.InDelta(t, revenue.MainBaseRate, m.Salaries["a"].BaseSalary, delta)
		assert.InDelta(t, bonus, m.Salaries["a"].BonusSalary, delta)

		if helperID != "" {
			pay := revenue.ComputeHelperPay(day, a.HelperHours, prices)
			assert.InDelta(t, pay.Base, m.Salaries["b"].BaseSalary, delta)
			assert.InDelta(t, pay.Bonus, m.Salaries["b"].BonusSalary, delta)
			assert.Equal(t, pay.Hours, m.Salaries["b"].HoursWorked)
			assert.Equal(t, pay.Note, m.Salaries["b"].Details[0].Note)
		}
	}
}

func TestComputeMonthlyPayroll_PlannedHoursWithoutBirthdays(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-02", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.Num(5)},
	}
	bookings := []model.Booking{booking("1", "2024-06-02", 3, "karaoke")}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.Zero(t, m.Salaries["b"].TotalSalary)
	assert.Zero(t, m.Salaries["b"].HoursWorked)
	assert.Empty(t, m.Salaries["b"].Details)
	// The helper was still on shift, so the main admin gets the shared rate.
	assert.InDelta(t, 0.08*3000, m.Salaries["a"].BonusSalary, delta)
}

func TestComputeMonthlyPayroll_ZeroHelperHoursSkipsHelper(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-02", MainAdminID: "a", HelperAdminID: "b"},
	}
	bookings := []model.Booking{booking("1", "2024-06-02", 2, "birthday")}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.Zero(t, m.Salaries["b"].TotalSalary)
	assert.InDelta(t, 0.08*7500, m.Salaries["a"].BonusSalary, delta)
}

func TestComputeMonthlyPayroll_HoursMismatchNote(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-05", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.Num(2)},
	}
	bookings := []model.Booking{
		booking("1", "2024-06-05", 2, "birthday"),
		booking("2", "2024-06-05", 1.5, "birthday"),
	}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	rec := m.Salaries["b"]
	require.Len(t, rec.Details, 1)
	assert.Equal(t, 4, rec.HoursWorked)
	assert.Equal(t, revenue.MismatchNote(2, 4), rec.Details[0].Note)
}

func TestComputeMonthlyPayroll_AccumulatesAcrossDays(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-01", MainAdminID: "a"},
		{Date: "2024-06-02", MainAdminID: "a"},
		{Date: "2024-06-03", MainAdminID: "b", HelperAdminID: "a", HelperHours: model.Num(1)},
	}
	bookings := []model.Booking{
		booking("1", "2024-06-01", 2, "karaoke"),
		booking("2", "2024-06-02", 1, "karaoke"),
		booking("3", "2024-06-03", 1, "birthday"),
		booking("4", "2024-06-30", 5, "karaoke"),
	}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	a := m.Salaries["a"]
	assert.Equal(t, 2, a.DaysWorked)
	assert.Equal(t, 1, a.HoursWorked)
	assert.Len(t, a.Details, 3)
	assert.InDelta(t, 500+0.15*2000+500+0.15*1000+150+0.07*4000, a.TotalSalary, delta)
	assert.InDelta(t, a.BaseSalary+a.BonusSalary, a.TotalSalary, delta)

	// Bookings on days without an assignment are not counted.
	assert.InDelta(t, 2000+1000+4000, m.TotalRevenue, delta)
}

func TestComputeMonthlyPayroll_OrphanAdmin(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-01", MainAdminID: "ghost", HelperAdminID: "b", HelperHours: model.Num(1)},
		{Date: "2024-06-02", MainAdminID: "ghost"},
	}
	bookings := []model.Booking{booking("1", "2024-06-01", 1, "birthday")}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.NotContains(t, m.Salaries, "ghost")
	assert.InDelta(t, 150+0.07*4000, m.Salaries["b"].TotalSalary, delta)
	assert.InDelta(t, 4000, m.TotalRevenue, delta)

	var orphans int
	for _, a := range m.Anomalies {
		if a.Kind == model.AnomalyOrphanAdmin {
			orphans++
		}
	}
	assert.Equal(t, 2, orphans)
	assert.NoError(t, m.Err())
}

func TestComputeMonthlyPayroll_StrictPolicy(t *testing.T) {
	prices := testPrices()
	prices.Policy = pricing.Strict
	assignments := []model.ShiftAssignment{{Date: "2024-06-01", MainAdminID: "a"}}
	bookings := []model.Booking{
		booking("1", "2024-06-01", 1, "laser_tag"),
		booking("2", "not-a-date", 1, "karaoke"),
	}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), prices)

	require.Error(t, m.Err())
	assert.True(t, m.Strict)
	counts := m.Anomalies.CountByKind()
	assert.Equal(t, 1, counts[model.AnomalyUnknownService])
	assert.Equal(t, 1, counts[model.AnomalyInvalidDate])
	assert.Zero(t, m.TotalRevenue)
}

func TestComputeMonthlyPayroll_UnpaddedDateIsSkipped(t *testing.T) {
	assignments := []model.ShiftAssignment{{Date: "2024-06-01", MainAdminID: "a"}}
	bookings := []model.Booking{booking("1", "2024-6-1", 1, "birthday")}

	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.Zero(t, m.TotalRevenue)
	require.Len(t, m.Anomalies, 1)
	assert.Equal(t, model.AnomalyInvalidDate, m.Anomalies[0].Kind)
	assert.Equal(t, "2024-6-1", m.Anomalies[0].Value)
}

func TestComputeMonthlyPayroll_InvalidHelperHours(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-01", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.ParseNumber("three")},
	}

	m := ComputeMonthlyPayroll(assignments, nil, testAdmins(), testPrices())

	require.Len(t, m.Anomalies, 1)
	assert.Equal(t, "helper_hours", m.Anomalies[0].Field)
	assert.Zero(t, m.Salaries["b"].TotalSalary)
}

func TestComputeMonthlyPayroll_Empty(t *testing.T) {
	m := ComputeMonthlyPayroll(nil, nil, nil, nil)

	assert.Empty(t, m.Salaries)
	assert.Zero(t, m.TotalRevenue)
	assert.Empty(t, m.Records())
}

func TestMonthly_Records(t *testing.T) {
	m := ComputeMonthlyPayroll(nil, nil, []model.Admin{
		{ID: "3", Name: "Vera"},
		{ID: "1", Name: "Anna"},
		{ID: "2", Name: "Anna"},
	}, testPrices())

	recs := m.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "1", recs[0].AdminID)
	assert.Equal(t, "2", recs[1].AdminID)
	assert.Equal(t, "3", recs[2].AdminID)
}

func TestComputeWeeklyPayroll(t *testing.T) {
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-01", MainAdminID: "a", HelperAdminID: "b", HelperHours: model.Num(3)},
		{Date: "2024-06-02", MainAdminID: "b", HelperAdminID: "a", HelperHours: model.Num(1)},
	}
	bookings := []model.Booking{
		booking("1", "2024-06-01", 3, "birthday"),
		booking("2", "2024-06-02", 2, "birthday"),
	}

	w := ComputeWeeklyPayroll(assignments, bookings, testAdmins(), testPrices())

	assert.InDelta(t, 10500+7500, w.TotalRevenue, delta)
	assert.InDelta(t, 1340+(300+0.07*7500), w.Totals["a"].Total, delta)
	assert.InDelta(t, 1185+(500+0.08*7500), w.Totals["b"].Total, delta)
	assert.Zero(t, w.Totals["c"].Total)

	require.Len(t, w.Totals["a"].Warnings, 1)
	assert.Equal(t, "2024-06-02: "+revenue.MismatchNote(1, 2), w.Totals["a"].Warnings[0])
	assert.Empty(t, w.Totals["b"].Warnings)
	assert.Equal(t, w.Totals["a"].Warnings, w.Warnings())
}

func TestComputeWeeklyPayroll_MatchesMonthly(t *testing.T) {
	prices := testPrices()
	assignments := []model.ShiftAssignment{
		{Date: "2024-06-10", MainAdminID: "a", HelperAdminID: "c", HelperHours: model.Num(2)},
		{Date: "2024-06-11", MainAdminID: "c"},
		{Date: "2024-06-12", MainAdminID: "b", HelperAdminID: "a", HelperHours: model.Num(4)},
	}
	bookings := []model.Booking{
		booking("1", "2024-06-10", 2, "birthday", "hostess"),
		booking("2", "2024-06-10", 3, "weekday_vr1"),
		booking("3", "2024-06-11", 1, "karaoke", "hostess"),
		booking("4", "2024-06-12", 3.5, "birthday"),
	}

	w := ComputeWeeklyPayroll(assignments, bookings, testAdmins(), prices)
	m := ComputeMonthlyPayroll(assignments, bookings, testAdmins(), prices)

	assert.InDelta(t, m.TotalRevenue, w.TotalRevenue, delta)
	for id, rec := range m.Salaries {
		assert.InDelta(t, rec.TotalSalary, w.Totals[id].Total, delta, id)
	}
}

func TestComputeWeeklyPayroll_StrictPolicy(t *testing.T) {
	prices := testPrices()
	prices.Policy = pricing.Strict
	assignments := []model.ShiftAssignment{{Date: "2024-06-01", MainAdminID: "nobody"}}

	w := ComputeWeeklyPayroll(assignments, nil, testAdmins(), prices)

	assert.Error(t, w.Err())

	prices.Policy = pricing.Lenient
	w = ComputeWeeklyPayroll(assignments, nil, testAdmins(), prices)
	assert.NoError(t, w.Err())
	assert.Len(t, w.Anomalies, 1)
}
