package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/elite42/gudbro-verticals-sub027/internal/app"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

type Handlers struct{ B *app.BookingService }

// Wire envelopes: success is {"data": ...}, failure is {"error": "<kind>"}.
type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error domain.ErrorKind `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings/{code}", h.getBooking)
	s.mux.Get("/v1/properties/{slug}/rooms/{roomID}/quote", h.quote)
}

func writeKind(w http.ResponseWriter, kind domain.ErrorKind) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPStatus())
	if err := json.NewEncoder(w).Encode(errorEnvelope{Error: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// writeErr classifies err once and logs full detail only for internals;
// clients never see constraint names or driver messages.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeKind(w, kind)
}

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: v}); err != nil {
		log.Error().Err(err).Msg("write JSON data response failed")
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req app.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, domain.KindValidation)
		return
	}
	res, err := h.B.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, res)
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	roomID := chi.URLParam(r, "roomID")
	checkIn := r.URL.Query().Get("checkIn")
	checkOut := r.URL.Query().Get("checkOut")
	if checkIn == "" || checkOut == "" {
		writeKind(w, domain.KindValidation)
		return
	}
	bd, err := h.B.Quote(r.Context(), slug, roomID, checkIn, checkOut)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, bd)
}

// bookingView is the guest-facing projection of a persisted booking.
type bookingView struct {
	BookingCode     string                `json:"bookingCode"`
	Status          domain.BookingStatus  `json:"status"`
	CheckIn         string                `json:"checkIn"`
	CheckOut        string                `json:"checkOut"`
	GuestCount      int                   `json:"guestCount"`
	GuestName       string                `json:"guestName"`
	SpecialRequests *string               `json:"specialRequests"`
	ExpiresAt       *time.Time            `json:"expiresAt"`
	PriceBreakdown  domain.PriceBreakdown `json:"priceBreakdown"`
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeKind(w, domain.KindSessionExpired)
		return
	}
	b, err := h.B.GetByCode(r.Context(), token, chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	view := bookingView{
		BookingCode:     b.Code,
		Status:          b.Status,
		CheckIn:         b.CheckIn.Format("2006-01-02"),
		CheckOut:        b.CheckOut.Format("2006-01-02"),
		GuestCount:      b.GuestCount,
		GuestName:       b.GuestFirstName + " " + b.GuestLastName,
		SpecialRequests: b.SpecialRequests,
		ExpiresAt:       b.ExpiresAt,
		PriceBreakdown:  b.Price,
	}

	etag, body := calcETagAndBody(dataEnvelope{Data: view})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getBooking body")
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}
