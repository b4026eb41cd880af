package revenue

import (
	"math"

	"vrlounge/internal/model"
	"vrlounge/internal/pricing"
)

// Quote is the rounded price of a booking as shown to staff and clients.
type Quote struct {
	Total      int64 `json:"total"`
	FinalTotal int64 `json:"final_total"`
	Discounted bool  `json:"discounted"`
}

// QuoteBooking prices a booking for notifications. It uses the same rules as
// the revenue calculator and rounds to whole currency units.
func QuoteBooking(b *model.Booking, prices *pricing.Table) Quote {
	amount, _ := BookingAmount(b, prices)
	return Quote{
		Total:      int64(math.Round(amount.Gross)),
		FinalTotal: int64(math.Round(amount.Net)),
		Discounted: b.DiscountPercent.Float() > 0 || b.DiscountAmount.Float() > 0,
	}
}
