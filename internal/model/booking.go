package model

import (
	"slices"
	"time"
)

const (
	ServiceBirthday = "birthday"
	ServiceHostess  = "hostess"
)

// DateLayout is the calendar-day key shared by bookings and shift assignments.
const DateLayout = "2006-01-02"

// Booking is a single client visit. It is produced by the booking calendar and
// never mutated by the calculators.
type Booking struct {
	ID               string    `json:"id"`
	Date             string    `json:"booking_date"` // YYYY-MM-DD
	StartTime        string    `json:"start_time"`   // HH:MM
	Duration         Number    `json:"duration"`     // hours, fractional
	SelectedServices []string  `json:"selected_services"`
	ServiceType      string    `json:"service_type,omitempty"` // legacy single-service tag
	DiscountPercent  Number    `json:"discount_percent"`
	DiscountAmount   Number    `json:"discount_amount"`
	ClientName       string    `json:"client_name"`
	ClientPhone      string    `json:"client_phone"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasService reports whether key is among the selected services.
func (b *Booking) HasService(key string) bool {
	return slices.Contains(b.SelectedServices, key)
}

// IsBirthday reports whether the booking counts as a birthday party, either
// through its selected services or the legacy service type.
func (b *Booking) IsBirthday() bool {
	return b.HasService(ServiceBirthday) || b.ServiceType == ServiceBirthday
}

// Day parses the booking date. ok is false for an empty or malformed date.
func (b *Booking) Day() (time.Time, bool) {
	return parseDay(b.Date)
}

// ShiftAssignment staffs one calendar day with a main admin and an optional
// helper.
type ShiftAssignment struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	MainAdminID   string    `json:"main_admin_id"`
	HelperAdminID string    `json:"helper_admin_id,omitempty"`
	HelperHours   Number    `json:"helper_hours"` // planned, staff estimate
	CreatedAt     time.Time `json:"created_at"`
}

// HasHelper reports whether a helper was scheduled.
func (a *ShiftAssignment) HasHelper() bool {
	return a.HelperAdminID != ""
}

// Admin is a staff member who can work a shift.
type Admin struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidDate reports whether s is a YYYY-MM-DD calendar day.
func ValidDate(s string) bool {
	_, ok := parseDay(s)
	return ok
}
