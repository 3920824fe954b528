package domain

import (
	"context"
	"time"
)

type BookingRepository interface {
	// Read paths
	GetPropertyBySlug(ctx context.Context, slug string) (Property, error)
	GetRoom(ctx context.Context, roomID, propertyID string) (Room, error)
	GetBookingByCode(ctx context.Context, code string) (Booking, error)

	// CreateBooking inserts atomically; the overlap invariant lives in the
	// store's exclusion constraint, surfaced as ErrDatesUnavailable. Fills
	// ID and CreatedAt on the passed record.
	CreateBooking(ctx context.Context, b *Booking) error

	// Expiry sweep
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error)
	CancelExpiredPending(ctx context.Context, id string, now time.Time) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// GuestClaims is the consumed contract of the guest-access credential; the
// token format itself belongs to the token adapter.
type GuestClaims struct {
	BookingID  string
	PropertyID string
	Checkout   time.Time
}

type TokenIssuer interface {
	IssueGuestToken(b Booking) (string, error)
	VerifyGuestToken(raw string) (GuestClaims, error)
}

// Notifier delivers best-effort events. Implementations must never block a
// booking response on delivery.
type Notifier interface {
	BookingCreated(ctx context.Context, b Booking)
	BookingExpired(ctx context.Context, b Booking)
}
