// Package revenue computes booking amounts, day revenue and per-shift staff pay.
// Every function is a pure transformation of its inputs.
package revenue

import (
	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
)

// Amount is a booking's price before and after its discount.
type Amount struct {
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
}

// BookingAmount prices a single booking against the table.
func BookingAmount(b *model.Booking, prices *pricing.Table) (Amount, model.Anomalies) {
	var anomalies model.Anomalies
	duration := bookingDuration(b, &anomalies)

	gross := 0.0
	for _, service := range b.SelectedServices {
		switch service {
		case model.ServiceBirthday:
			gross += prices.BirthdayTotal(duration)
		case model.ServiceHostess:
			gross += prices.HostessPrice()
		default:
			rate, ok := prices.HourlyRate(service)
			if !ok {
				anomalies = append(anomalies, model.Anomaly{
					Kind:      model.AnomalyUnknownService,
					Date:      b.Date,
					BookingID: b.ID,
					Field:     "selected_services",
					Value:     service,
				})
				continue
			}
			gross += rate * duration
		}
	}

	return Amount{Gross: gross, Net: applyDiscount(gross, b, &anomalies)}, anomalies
}

// ApplyDiscount applies the booking's discount to amount. A positive percent
// wins over a flat amount; a flat discount never takes the amount below zero.
func ApplyDiscount(amount float64, b *model.Booking) float64 {
	return applyDiscount(amount, b, nil)
}

func applyDiscount(amount float64, b *model.Booking, anomalies *model.Anomalies) float64 {
	percent := numberField(b, "discount_percent", b.DiscountPercent, anomalies)
	flat := numberField(b, "discount_amount", b.DiscountAmount, anomalies)

	switch {
	case percent > 0:
		return amount * (1 - percent/100)
	case flat > 0:
		return max(0, amount-flat)
	default:
		return amount
	}
}

// ComputeDayRevenue sums the net amounts of one day's bookings. Birthday
// revenue is the part of the total that came from birthday bookings.
func ComputeDayRevenue(bookings []model.Booking, prices *pricing.Table) model.DayRevenue {
	var day model.DayRevenue
	for i := range bookings {
		b := &bookings[i]
		amount, anomalies := BookingAmount(b, prices)
		day.Anomalies = append(day.Anomalies, anomalies...)

		day.Total += amount.Net
		if b.IsBirthday() {
			day.Birthday += amount.Net
		}
	}
	return day
}

// MaxDuration is the longest booking in hours the lounge can host in one day.
const MaxDuration = 24

// bookingDuration reads the duration in hours; malformed, negative and
// implausibly long values count as zero.
func bookingDuration(b *model.Booking, anomalies *model.Anomalies) float64 {
	d := numberField(b, "duration", b.Duration, anomalies)
	if d < 0 || d > MaxDuration {
		if anomalies != nil {
			*anomalies = append(*anomalies, model.Anomaly{
				Kind:      model.AnomalyInvalidNumber,
				Date:      b.Date,
				BookingID: b.ID,
				Field:     "duration",
				Value:     b.Duration.Raw(),
			})
		}
		return 0
	}
	return d
}

func numberField(b *model.Booking, field string, n model.Number, anomalies *model.Anomalies) float64 {
	if !n.Valid() && anomalies != nil {
		*anomalies = append(*anomalies, model.Anomaly{
			Kind:      model.AnomalyInvalidNumber,
			Date:      b.Date,
			BookingID: b.ID,
			Field:     field,
			Value:     n.Raw(),
		})
	}
	return n.Float()
}
