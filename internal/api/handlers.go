package api

import (
	"errors"
	"net/http"

	"vrlounge/internal/model"
	"vrlounge/internal/payroll"
	"vrlounge/internal/report"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Status    int             `json:"status"`
	Message   string          `json:"message"`
	Anomalies model.Anomalies `json:"anomalies,omitempty"`
}

// MonthlyResponse is the body of GET /api/v1/payroll/monthly.
type MonthlyResponse struct {
	Period       string               `json:"period"`
	From         string               `json:"from"`
	To           string               `json:"to"`
	TotalRevenue float64              `json:"total_revenue"`
	Payout       float64              `json:"payout"`
	Salaries     []model.SalaryRecord `json:"salaries"`
	Anomalies    model.Anomalies      `json:"anomalies,omitempty"`
}

// WeeklyResponse is the body of GET /api/v1/payroll/weekly.
type WeeklyResponse struct {
	Period       string                 `json:"period"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	TotalRevenue float64                `json:"total_revenue"`
	Totals       []*payroll.WeeklyTotal `json:"totals"`
	Anomalies    model.Anomalies        `json:"anomalies,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	result := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			result[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		result[c.Name] = "ok"
	}
	writeJSON(w, status, result)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	p, err := report.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter date must be YYYY-MM-DD")
		return
	}
	d, err := s.reports.Day(r.Context(), p)
	if err != nil {
		var as model.Anomalies
		if d != nil {
			as = d.Anomalies
		}
		s.writeReportError(w, r, err, as)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	p, err := report.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter month must be YYYY-MM")
		return
	}
	m, err := s.reports.Monthly(r.Context(), p)
	if err != nil {
		var as model.Anomalies
		if m != nil {
			as = m.Anomalies
		}
		s.writeReportError(w, r, err, as)
		return
	}

	resp := MonthlyResponse{
		Period:       p.Key(),
		From:         p.From(),
		To:           p.To(),
		TotalRevenue: m.TotalRevenue,
		Payout:       m.Payout(),
		Salaries:     make([]model.SalaryRecord, 0, len(m.Salaries)),
		Anomalies:    m.Anomalies,
	}
	for _, rec := range m.Records() {
		resp.Salaries = append(resp.Salaries, *rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	p, err := report.WeekOf(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter date must be YYYY-MM-DD")
		return
	}
	wk, err := s.reports.Weekly(r.Context(), p)
	if err != nil {
		var as model.Anomalies
		if wk != nil {
			as = wk.Anomalies
		}
		s.writeReportError(w, r, err, as)
		return
	}

	resp := WeeklyResponse{
		Period:       p.Key(),
		From:         p.From(),
		To:           p.To(),
		TotalRevenue: wk.TotalRevenue,
		Totals:       wk.Records(),
		Anomalies:    wk.Anomalies,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeReportError(w http.ResponseWriter, r *http.Request, err error, as model.Anomalies) {
	if errors.Is(err, report.ErrAnomalies) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Status:    http.StatusUnprocessableEntity,
			Message:   "input data has anomalies and the price table is strict",
			Anomalies: as,
		})
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Report failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: status, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
