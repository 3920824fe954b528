package domain

import (
	"errors"
	"net/http"
)

// Sentinels returned by repositories and services. Handlers translate them
// to an ErrorKind exactly once; nothing below the HTTP layer knows about
// status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrDatesUnavailable = errors.New("dates unavailable")
)

// ErrorKind is the closed set of machine-readable error codes shared by all
// booking endpoints. The wire shape is `{"error": "<kind>"}`.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindInvalidDates     ErrorKind = "invalid_dates"
	KindPropertyNotFound ErrorKind = "property_not_found"
	KindPropertyDisabled ErrorKind = "property_disabled"
	KindMinNightsNotMet  ErrorKind = "min_nights_not_met"
	KindMaxNightsExceed  ErrorKind = "max_nights_exceeded"
	KindRoomNotFound     ErrorKind = "room_not_found"
	KindMaxGuestsExceed  ErrorKind = "max_guests_exceeded"
	KindDatesUnavailable ErrorKind = "dates_unavailable"
	KindSessionExpired   ErrorKind = "session_expired"
	KindBookingNotFound  ErrorKind = "booking_not_found"
	KindInternal         ErrorKind = "internal_error"
)

// HTTPStatus maps each kind to its status code in one place instead of
// per call site.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidDates, KindMinNightsNotMet, KindMaxNightsExceed, KindMaxGuestsExceed:
		return http.StatusBadRequest
	case KindSessionExpired:
		return http.StatusUnauthorized
	case KindPropertyDisabled:
		return http.StatusForbidden
	case KindPropertyNotFound, KindRoomNotFound, KindBookingNotFound:
		return http.StatusNotFound
	case KindDatesUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindError attaches an ErrorKind to an error so services can reject a
// request with a specific kind while callers keep using errors.Is/As.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *KindError) Unwrap() error { return e.Err }

func Reject(kind ErrorKind) error { return &KindError{Kind: kind} }

// KindOf classifies any error into the kind a handler should report.
// Unknown errors are internal by definition; their detail stays in the logs.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	if errors.Is(err, ErrDatesUnavailable) {
		return KindDatesUnavailable
	}
	return KindInternal
}
