package model

import (
	"errors"
	"fmt"
)

// AnomalyKind classifies suspicious input the calculators tolerated.
type AnomalyKind string

const (
	AnomalyUnknownService AnomalyKind = "unknown_service"
	AnomalyInvalidNumber  AnomalyKind = "invalid_number"
	AnomalyOrphanAdmin    AnomalyKind = "orphan_admin"
	AnomalyInvalidDate    AnomalyKind = "invalid_date"
)

// Anomaly describes one piece of input that was priced or counted as zero.
type Anomaly struct {
	Kind      AnomalyKind `json:"kind"`
	Date      string      `json:"date,omitempty"`
	BookingID string      `json:"booking_id,omitempty"`
	Field     string      `json:"field,omitempty"`
	Value     string      `json:"value,omitempty"`
}

func (a Anomaly) Error() string {
	switch a.Kind {
	case AnomalyUnknownService:
		return fmt.Sprintf("booking %s on %s: unknown service %q", a.BookingID, a.Date, a.Value)
	case AnomalyInvalidNumber:
		if a.BookingID == "" {
			return fmt.Sprintf("%s: invalid %s %q", a.Date, a.Field, a.Value)
		}
		return fmt.Sprintf("booking %s on %s: invalid %s %q", a.BookingID, a.Date, a.Field, a.Value)
	case AnomalyOrphanAdmin:
		return fmt.Sprintf("%s: %s %q is not in the admin roster", a.Date, a.Field, a.Value)
	case AnomalyInvalidDate:
		return fmt.Sprintf("booking %s: invalid date %q", a.BookingID, a.Value)
	default:
		return fmt.Sprintf("%s: %s", a.Kind, a.Value)
	}
}

// Anomalies is the diagnostics list attached to every calculation result.
type Anomalies []Anomaly

// Join returns all anomalies as a single error, or nil when there are none.
func (as Anomalies) Join() error {
	if len(as) == 0 {
		return nil
	}
	errs := make([]error, len(as))
	for i := range as {
		errs[i] = as[i]
	}
	return errors.Join(errs...)
}

// CountByKind groups anomalies for metrics and summaries.
func (as Anomalies) CountByKind() map[AnomalyKind]int {
	counts := make(map[AnomalyKind]int)
	for _, a := range as {
		counts[a.Kind]++
	}
	return counts
}
