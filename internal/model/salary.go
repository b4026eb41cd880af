package model

// ShiftType labels a payroll detail entry.
type ShiftType string

const (
	ShiftMain   ShiftType = "main"
	ShiftHelper ShiftType = "helper"
)

// Label returns the staff-facing name of the shift type.
func (t ShiftType) Label() string {
	switch t {
	case ShiftMain:
		return "Основная смена"
	case ShiftHelper:
		return "Помощь на смене"
	default:
		return string(t)
	}
}

// DayRevenue is the revenue of one calendar day.
type DayRevenue struct {
	Total     float64   `json:"total_revenue"`
	Birthday  float64   `json:"birthday_revenue"`
	Anomalies Anomalies `json:"anomalies,omitempty"`
}

// ShiftDetail is one paid shift inside a salary record.
type ShiftDetail struct {
	Date    string    `json:"date"`
	Type    ShiftType `json:"type"`
	Base    float64   `json:"base"`
	Bonus   float64   `json:"bonus"`
	Revenue float64   `json:"revenue"`
	Hours   int       `json:"hours"`
	Note    string    `json:"note,omitempty"`
}

// SalaryRecord accumulates one admin's pay for a period.
type SalaryRecord struct {
	AdminID     string        `json:"admin_id"`
	Name        string        `json:"name"`
	BaseSalary  float64       `json:"base_salary"`
	BonusSalary float64       `json:"bonus_salary"`
	TotalSalary float64       `json:"total_salary"`
	DaysWorked  int           `json:"days_worked"`
	HoursWorked int           `json:"hours_worked"`
	Details     []ShiftDetail `json:"details"`
}

// Add books one shift into the record.
func (r *SalaryRecord) Add(d ShiftDetail) {
	r.BaseSalary += d.Base
	r.BonusSalary += d.Bonus
	r.TotalSalary += d.Base + d.Bonus
	r.Details = append(r.Details, d)
}
