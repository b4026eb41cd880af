package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBooking_IsBirthday(t *testing.T) {
	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{"selected service", Booking{SelectedServices: []string{"karaoke", ServiceBirthday}}, true},
		{"legacy tag", Booking{ServiceType: ServiceBirthday}, true},
		{"other services", Booking{SelectedServices: []string{"karaoke"}, ServiceType: "vr"}, false},
		{"nothing", Booking{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.IsBirthday())
		})
	}
}

func TestBooking_Day(t *testing.T) {
	d, ok := (&Booking{Date: "2024-06-01"}).Day()
	assert.True(t, ok)
	assert.Equal(t, 2024, d.Year())

	_, ok = (&Booking{Date: "01.06.2024"}).Day()
	assert.False(t, ok)

	_, ok = (&Booking{}).Day()
	assert.False(t, ok)
}

func TestShiftAssignment_HasHelper(t *testing.T) {
	assert.True(t, (&ShiftAssignment{HelperAdminID: "b"}).HasHelper())
	assert.False(t, (&ShiftAssignment{MainAdminID: "a"}).HasHelper())
}

func TestSalaryRecord_Add(t *testing.T) {
	var r SalaryRecord
	r.Add(ShiftDetail{Type: ShiftMain, Base: 500, Bonus: 840})
	r.Add(ShiftDetail{Type: ShiftHelper, Base: 450, Bonus: 735})

	assert.InDelta(t, 950, r.BaseSalary, 1e-9)
	assert.InDelta(t, 1575, r.BonusSalary, 1e-9)
	assert.InDelta(t, 2525, r.TotalSalary, 1e-9)
	assert.Len(t, r.Details, 2)
	assert.Zero(t, r.DaysWorked)
}

func TestAnomalies(t *testing.T) {
	var none Anomalies
	assert.NoError(t, none.Join())

	as := Anomalies{
		{Kind: AnomalyUnknownService, BookingID: "1", Date: "2024-06-01", Value: "laser"},
		{Kind: AnomalyOrphanAdmin, Date: "2024-06-01", Field: "main_admin_id", Value: "x"},
		{Kind: AnomalyUnknownService, BookingID: "2", Date: "2024-06-01", Value: "laser"},
	}
	err := as.Join()
	assert.ErrorContains(t, err, `unknown service "laser"`)
	assert.ErrorContains(t, err, "not in the admin roster")
	assert.Equal(t, map[AnomalyKind]int{AnomalyUnknownService: 2, AnomalyOrphanAdmin: 1}, as.CountByKind())
	assert.Equal(t, "Основная смена", ShiftMain.Label())
}
