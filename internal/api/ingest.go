package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"vrlounge/internal/db"
	"vrlounge/internal/model"
	"vrlounge/internal/report"
	"vrlounge/internal/revenue"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Store persists what the booking calendar and the staff schedule send in.
type Store interface {
	UpsertBooking(ctx context.Context, b *model.Booking) error
	SaveAssignment(ctx context.Context, a *model.ShiftAssignment) error
	GetAssignmentByDate(ctx context.Context, date string) (*model.ShiftAssignment, error)
	UpsertAdmin(ctx context.Context, a model.Admin) error
}

// Notifier tells managers about new bookings.
type Notifier interface {
	NotifyManagers(ctx context.Context, text string) error
}

// Ingest enables the write endpoints. An empty APIKey leaves them open;
// Notifier may be nil.
type Ingest struct {
	Store    Store
	Notifier Notifier
	APIKey   string
}

// BookingResponse is the body of a stored booking with its price.
type BookingResponse struct {
	Booking   model.Booking   `json:"booking"`
	Quote     revenue.Quote   `json:"quote"`
	Anomalies model.Anomalies `json:"anomalies,omitempty"`
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.ingest.APIKey
		if key != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Api-Key")), []byte(key)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleCreateBooking stores a new booking and announces it to managers.
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var b model.Booking
	if !decodeBody(w, r, &b) {
		return
	}
	b.ID = ""
	if !validBooking(w, &b) {
		return
	}
	if err := s.ingest.Store.UpsertBooking(r.Context(), &b); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	resp := s.bookingStored(r.Context(), &b)

	if s.ingest.Notifier != nil {
		if err := s.ingest.Notifier.NotifyManagers(r.Context(), report.FormatNewBooking(&b, resp.Quote)); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("booking_id", b.ID).Msg("New booking notice failed")
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleUpdateBooking replaces a booking without notifying anyone.
func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var b model.Booking
	if !decodeBody(w, r, &b) {
		return
	}
	b.ID = chi.URLParam(r, "id")
	if !validBooking(w, &b) {
		return
	}
	if err := s.ingest.Store.UpsertBooking(r.Context(), &b); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.bookingStored(r.Context(), &b))
}

func (s *Server) bookingStored(ctx context.Context, b *model.Booking) BookingResponse {
	s.invalidate(ctx)
	prices := s.reports.Prices()
	_, anomalies := revenue.BookingAmount(b, prices)
	return BookingResponse{
		Booking:   *b,
		Quote:     revenue.QuoteBooking(b, prices),
		Anomalies: anomalies,
	}
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !model.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	a, err := s.ingest.Store.GetAssignmentByDate(r.Context(), date)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleSaveAssignment sets the staffing of a day, replacing any earlier one.
func (s *Server) handleSaveAssignment(w http.ResponseWriter, r *http.Request) {
	var a model.ShiftAssignment
	if !decodeBody(w, r, &a) {
		return
	}
	a.Date = chi.URLParam(r, "date")
	switch {
	case !model.ValidDate(a.Date):
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	case a.MainAdminID == "":
		writeError(w, http.StatusBadRequest, "main_admin_id is required")
		return
	case a.HelperAdminID == "" && !a.HelperHours.IsZero():
		writeError(w, http.StatusBadRequest, "helper_hours needs helper_admin_id")
		return
	}
	if err := s.ingest.Store.SaveAssignment(r.Context(), &a); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.invalidate(r.Context())

	stored, err := s.ingest.Store.GetAssignmentByDate(r.Context(), a.Date)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleSaveAdmin adds an admin to the roster or renames one.
func (s *Server) handleSaveAdmin(w http.ResponseWriter, r *http.Request) {
	var a model.Admin
	if !decodeBody(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")
	if a.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.ingest.Store.UpsertAdmin(r.Context(), a); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusOK, a)
}

// invalidate drops cached reports; a failure only leaves them stale until their TTL.
func (s *Server) invalidate(ctx context.Context) {
	if err := s.reports.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Report cache invalidation failed")
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Store failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// validBooking rejects bookings the reports could never place on a day.
// Malformed numbers are kept and surface as anomalies instead.
func validBooking(w http.ResponseWriter, b *model.Booking) bool {
	if !model.ValidDate(b.Date) {
		writeError(w, http.StatusBadRequest, "booking_date must be YYYY-MM-DD")
		return false
	}
	return true
}
