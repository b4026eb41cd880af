package revenue

import (
	"fmt"
	"math"

	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
)

const (
	// MainBaseRate is the fixed pay for a main-admin shift.
	MainBaseRate = 500
	// SoloBonusRate is the main admin's share of the bonus base when working alone.
	SoloBonusRate = 0.15
	// SharedBonusRate is the main admin's share when a helper was on shift.
	SharedBonusRate = 0.08

	// HelperHourlyRate is paid per whole hour of birthday parties.
	HelperHourlyRate = 150
	// HelperBonusRate is the helper's share of birthday revenue.
	HelperBonusRate = 0.07
)

// ComputeAdminBonus returns the main admin's bonus for a day. Hostess fees are
// passed through to the hostess and are removed from the bonus base.
func ComputeAdminBonus(dayRevenue float64, dayBookings []model.Booking, hasHelper bool, prices *pricing.Table) float64 {
	base := dayRevenue
	for i := range dayBookings {
		if dayBookings[i].HasService(model.ServiceHostess) {
			base -= prices.HostessPrice()
		}
	}

	rate := SoloBonusRate
	if hasHelper {
		rate = SharedBonusRate
	}
	return base * rate
}

// HelperPay is a helper's pay for one day.
type HelperPay struct {
	Hours           int
	BirthdayRevenue float64
	Base            float64
	Bonus           float64
	Total           float64
	Planned         int
	// Note is set when the planned hours differ from the birthday bookings.
	Note string
}

// ComputeHelperPay derives a helper's hours from the day's birthday bookings
// and pays a bonus on birthday-only revenue. The planned hours never change the
// pay; a mismatch only produces a note.
func ComputeHelperPay(dayBookings []model.Booking, planned model.Number, prices *pricing.Table) HelperPay {
	hours := 0.0
	revenue := 0.0
	for i := range dayBookings {
		b := &dayBookings[i]
		if !b.IsBirthday() {
			continue
		}
		duration := bookingDuration(b, nil)
		hours += duration

		amount := 0.0
		if b.HasService(model.ServiceBirthday) {
			amount = prices.BirthdayTotal(duration)
		}
		revenue += applyDiscount(amount, b, nil)
	}

	pay := HelperPay{
		Hours:           int(math.Round(hours)),
		BirthdayRevenue: revenue,
		Planned:         planned.Int(),
	}
	pay.Base = float64(pay.Hours * HelperHourlyRate)
	pay.Bonus = pay.BirthdayRevenue * HelperBonusRate
	pay.Total = pay.Base + pay.Bonus
	if pay.Planned != pay.Hours {
		pay.Note = MismatchNote(pay.Planned, pay.Hours)
	}
	return pay
}

// MismatchNote formats the planned-versus-actual helper hours warning.
func MismatchNote(planned, actual int) string {
	return fmt.Sprintf("Assigned %d h, actually %d h per birthday bookings", planned, actual)
}
