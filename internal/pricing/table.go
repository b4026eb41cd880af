// Package pricing holds the lounge's service price table and the per-hour
// birthday tariff.
package pricing

import (
	"fmt"
	"math"

	"vrlounge/internal/model"
)

const (
	// DefaultHostessPrice applies when the table leaves the hostess price unset.
	DefaultHostessPrice = 1000
	// FallbackTierPrice applies to birthday hours missing from the tier table.
	FallbackTierPrice = 3000
	// ShortHalfHourPrice is charged for the half hour of a birthday shorter than two hours.
	ShortHalfHourPrice = 2000

	// MaxTierHour is the last hour index the tier table may define.
	MaxTierHour = 12
	// clampTierHour is the tier every hour past the table falls back to.
	clampTierHour = 4
	// halfHourTier is the tier whose half is charged for a trailing half hour.
	halfHourTier = 3
)

// Policy names how unknown price keys and malformed input are treated.
type Policy string

const (
	// Lenient prices unknown services at zero and keeps going.
	Lenient Policy = "lenient"
	// Strict computes the same figures but reports anomalies as an error.
	Strict Policy = "strict"
)

// Table is an immutable service price table.
type Table struct {
	// Hostess is the flat per-booking price of the party host.
	Hostess float64
	// Hourly maps equipment and activity keys to a price per hour.
	Hourly map[string]float64
	// Birthday maps hour-of-occupancy (1..12) to the price of that hour.
	Birthday map[int]float64
	// Policy is the resolution policy; empty means Lenient.
	Policy Policy
	// Version identifies the table revision, used in cache keys.
	Version string
}

// HostessPrice returns the flat hostess price, defaulting when unset.
func (t *Table) HostessPrice() float64 {
	if t.Hostess == 0 {
		return DefaultHostessPrice
	}
	return t.Hostess
}

// HourlyRate returns the rate for key; ok is false for unknown keys.
func (t *Table) HourlyRate(key string) (rate float64, ok bool) {
	rate, ok = t.Hourly[key]
	return rate, ok
}

// TierPrice returns the price of the given birthday hour. Hours without an
// entry use the hour-4 tier, then FallbackTierPrice. Zero entries count as unset.
func (t *Table) TierPrice(hour int) float64 {
	if p := t.Birthday[hour]; p != 0 {
		return p
	}
	if p := t.Birthday[clampTierHour]; p != 0 {
		return p
	}
	return FallbackTierPrice
}

// BirthdayTotal prices a birthday party of the given duration in hours. Every
// full hour is charged at its own tier; a trailing partial hour costs a flat
// ShortHalfHourPrice for parties under two hours, otherwise half the hour-3 tier.
// Hours past MaxTierHour share one price, so the cost does not grow with the
// duration.
func (t *Table) BirthdayTotal(duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	fullHours := math.Floor(duration)
	hasHalfHour := duration != fullHours

	total := 0.0
	for hour := 1; hour <= MaxTierHour && float64(hour) <= fullHours; hour++ {
		total += t.TierPrice(hour)
	}
	if fullHours > MaxTierHour {
		total += (fullHours - MaxTierHour) * t.TierPrice(MaxTierHour+1)
	}
	if hasHalfHour {
		if fullHours <= 1 {
			total += ShortHalfHourPrice
		} else {
			third := t.Birthday[halfHourTier]
			if third == 0 {
				third = FallbackTierPrice
			}
			total += third / 2
		}
	}
	return total
}

// IsStrict reports whether anomalies should fail a calculation.
func (t *Table) IsStrict() bool {
	return t.Policy == Strict
}

// Validate checks the table for impossible values.
func (t *Table) Validate() error {
	if t.Hostess < 0 {
		return fmt.Errorf("hostess price cannot be negative")
	}
	for key, rate := range t.Hourly {
		if key == "" {
			return fmt.Errorf("hourly: empty service key")
		}
		if key == model.ServiceBirthday || key == model.ServiceHostess {
			return fmt.Errorf("hourly[%s]: reserved key, configure it in its own section", key)
		}
		if rate < 0 {
			return fmt.Errorf("hourly[%s]: rate cannot be negative", key)
		}
	}
	for hour, price := range t.Birthday {
		if hour < 1 || hour > MaxTierHour {
			return fmt.Errorf("birthday[%d]: hour must be 1-%d", hour, MaxTierHour)
		}
		if price < 0 {
			return fmt.Errorf("birthday[%d]: price cannot be negative", hour)
		}
	}
	switch t.Policy {
	case "", Lenient, Strict:
	default:
		return fmt.Errorf("unknown policy %q, expected %q or %q", t.Policy, Lenient, Strict)
	}
	return nil
}

// Default returns the lounge's current price list.
func Default() *Table {
	return &Table{
		Hostess: 2000,
		Hourly: map[string]float64{
			"weekday_ps1":  150,
			"weekday_ps2":  300,
			"weekday_vr1":  500,
			"weekday_vr2":  1000,
			"weekday_vr3":  1500,
			"weekday_vr4":  2000,
			"weekend_vr1":  750,
			"weekend_vr2":  1500,
			"weekend_vr3":  2250,
			"weekend_vr4":  3000,
			"xbox_kinnect": 500,
			"xbox1":        250,
			"xbox2":        500,
			"xbox3":        750,
			"xbox4":        1000,
			"karaoke":      1000,
			"board_games":  500,
		},
		Birthday: map[int]float64{
			1: 4000, 2: 3500, 3: 3000, 4: 3000, 5: 3000, 6: 3000,
			7: 3000, 8: 3000, 9: 3000, 10: 3000, 11: 3000, 12: 3000,
		},
		Policy:  Lenient,
		Version: "default",
	}
}
