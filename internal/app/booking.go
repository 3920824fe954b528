package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/observability"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
	"github.com/elite42/gudbro-verticals-sub027/internal/pricing"
)

const dateLayout = "2006-01-02"

// BookingRequest is the JSON body accepted by POST /v1/bookings.
type BookingRequest struct {
	PropertySlug    string `json:"propertySlug"`
	RoomID          string `json:"roomId"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	GuestCount      int    `json:"guestCount"`
	CheckIn         string `json:"checkIn"`
	CheckOut        string `json:"checkOut"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// BookingResult is what a successful booking returns to the guest.
type BookingResult struct {
	BookingCode  string                `json:"bookingCode"`
	Token        string                `json:"token"`
	Status       domain.BookingStatus  `json:"status"`
	ExpiresAt    *time.Time            `json:"expiresAt"`
	Price        domain.PriceBreakdown `json:"priceBreakdown"`
	PropertyName string                `json:"propertyName"`
	HostPhone    *string               `json:"hostPhone"`
	HostWhatsapp *string               `json:"hostWhatsapp"`
}

type BookingService struct {
	repo     domain.BookingRepository
	cache    domain.Cache
	tokens   domain.TokenIssuer
	notifier domain.Notifier
	cacheTTL time.Duration
}

func NewBookingService(r domain.BookingRepository, c domain.Cache, t domain.TokenIssuer, n domain.Notifier, ttl time.Duration) *BookingService {
	return &BookingService{repo: r, cache: c, tokens: t, notifier: n, cacheTTL: ttl}
}

// Create runs the full booking flow: validation, policy checks, pricing,
// the constrained insert, token issuance. Pricing is computed here, never
// trusted from the client. Availability is decided solely by the insert;
// a pre-check would be a check-then-act race.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (BookingResult, error) {
	if err := req.validate(); err != nil {
		return BookingResult{}, err
	}
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return BookingResult{}, err
	}

	prop, err := s.propertyBySlug(ctx, req.PropertySlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return BookingResult{}, domain.Reject(domain.KindPropertyNotFound)
		}
		return BookingResult{}, fmt.Errorf("fetch property %q: %w", req.PropertySlug, err)
	}
	if prop.BookingMode == domain.ModeDisabled {
		return BookingResult{}, domain.Reject(domain.KindPropertyDisabled)
	}

	nights := pricing.Nights(checkIn, checkOut)
	if nights < prop.MinNights {
		return BookingResult{}, domain.Reject(domain.KindMinNightsNotMet)
	}
	if prop.MaxNights != nil && nights > *prop.MaxNights {
		return BookingResult{}, domain.Reject(domain.KindMaxNightsExceed)
	}

	room, err := s.room(ctx, req.RoomID, prop.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return BookingResult{}, domain.Reject(domain.KindRoomNotFound)
		}
		return BookingResult{}, fmt.Errorf("fetch room %q: %w", req.RoomID, err)
	}
	if req.GuestCount > room.Capacity {
		return BookingResult{}, domain.Reject(domain.KindMaxGuestsExceed)
	}

	breakdown, err := pricing.Quote(
		room.BasePricePerNight, checkIn, checkOut,
		prop.CleaningFee, prop.WeeklyDiscountPercent, prop.MonthlyDiscountPercent,
		room.Currency,
	)
	if err != nil {
		// Dates and the rate were validated above; reaching here is a bug.
		return BookingResult{}, fmt.Errorf("quote: %w", err)
	}

	booking := domain.Booking{
		Code:           newBookingCode(),
		PropertyID:     prop.ID,
		RoomID:         room.ID,
		GuestFirstName: req.FirstName,
		GuestLastName:  req.LastName,
		GuestEmail:     req.Email,
		GuestPhone:     req.Phone,
		GuestCount:     req.GuestCount,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Status:         domain.StatusConfirmed,
		Price:          breakdown,
	}
	if sr := strings.TrimSpace(req.SpecialRequests); sr != "" {
		booking.SpecialRequests = &sr
	}
	if prop.BookingMode != domain.ModeInstant {
		booking.Status = domain.StatusPending
		exp := time.Now().UTC().Add(time.Duration(prop.InquiryTimeoutHours) * time.Hour)
		booking.ExpiresAt = &exp
	}

	if err := s.repo.CreateBooking(ctx, &booking); err != nil {
		if errors.Is(err, domain.ErrDatesUnavailable) {
			observability.ObserveBooking("conflict")
			return BookingResult{}, err
		}
		observability.ObserveBooking("error")
		return BookingResult{}, fmt.Errorf("insert booking: %w", err)
	}
	observability.ObserveBooking(string(booking.Status))

	token, err := s.tokens.IssueGuestToken(booking)
	if err != nil {
		// The row exists; a missing token must not orphan the booking.
		log.Error().Err(err).Str("code", booking.Code).Msg("guest token issuance failed")
	}

	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booking)
	}

	return BookingResult{
		BookingCode:  booking.Code,
		Token:        token,
		Status:       booking.Status,
		ExpiresAt:    booking.ExpiresAt,
		Price:        breakdown,
		PropertyName: prop.Name,
		HostPhone:    prop.ContactPhone,
		HostWhatsapp: prop.ContactWhatsapp,
	}, nil
}

// Quote prices a prospective stay without persisting anything. Same policy
// checks as Create so the preview can never show a price the booking call
// would then reject.
func (s *BookingService) Quote(ctx context.Context, slug, roomID, checkInStr, checkOutStr string) (domain.PriceBreakdown, error) {
	checkIn, checkOut, err := parseStayDates(checkInStr, checkOutStr)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	prop, err := s.propertyBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PriceBreakdown{}, domain.Reject(domain.KindPropertyNotFound)
		}
		return domain.PriceBreakdown{}, fmt.Errorf("fetch property %q: %w", slug, err)
	}
	if prop.BookingMode == domain.ModeDisabled {
		return domain.PriceBreakdown{}, domain.Reject(domain.KindPropertyDisabled)
	}

	nights := pricing.Nights(checkIn, checkOut)
	if nights < prop.MinNights {
		return domain.PriceBreakdown{}, domain.Reject(domain.KindMinNightsNotMet)
	}
	if prop.MaxNights != nil && nights > *prop.MaxNights {
		return domain.PriceBreakdown{}, domain.Reject(domain.KindMaxNightsExceed)
	}

	room, err := s.room(ctx, roomID, prop.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PriceBreakdown{}, domain.Reject(domain.KindRoomNotFound)
		}
		return domain.PriceBreakdown{}, fmt.Errorf("fetch room %q: %w", roomID, err)
	}

	return pricing.Quote(
		room.BasePricePerNight, checkIn, checkOut,
		prop.CleaningFee, prop.WeeklyDiscountPercent, prop.MonthlyDiscountPercent,
		room.Currency,
	)
}

// GetByCode returns the guest's own booking. The bearer token scopes access
// to exactly one booking; a valid token for another booking gets the same
// not-found as a wrong code.
func (s *BookingService) GetByCode(ctx context.Context, rawToken, code string) (domain.Booking, error) {
	claims, err := s.tokens.VerifyGuestToken(rawToken)
	if err != nil {
		return domain.Booking{}, domain.Reject(domain.KindSessionExpired)
	}
	b, err := s.repo.GetBookingByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, domain.Reject(domain.KindBookingNotFound)
		}
		return domain.Booking{}, fmt.Errorf("fetch booking %q: %w", code, err)
	}
	if b.ID != claims.BookingID {
		return domain.Booking{}, domain.Reject(domain.KindBookingNotFound)
	}
	return b, nil
}

// ---- cached reads (read-through) ----

func (s *BookingService) propertyBySlug(ctx context.Context, slug string) (domain.Property, error) {
	key := "prop:" + slug
	var p domain.Property
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.repo.GetPropertyBySlug(ctx, slug)
	if err != nil {
		return domain.Property{}, err
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}

func (s *BookingService) room(ctx context.Context, roomID, propertyID string) (domain.Room, error) {
	key := fmt.Sprintf("room:%s:%s", propertyID, roomID)
	var r domain.Room
	if ok, _ := s.cache.Get(ctx, key, &r); ok {
		return r, nil
	}
	r, err := s.repo.GetRoom(ctx, roomID, propertyID)
	if err != nil {
		return domain.Room{}, err
	}
	_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	return r, nil
}

// ---- validation helpers ----

func (r BookingRequest) validate() error {
	for _, f := range []string{r.PropertySlug, r.RoomID, r.FirstName, r.LastName, r.Email, r.Phone, r.CheckIn, r.CheckOut} {
		if strings.TrimSpace(f) == "" {
			return domain.Reject(domain.KindValidation)
		}
	}
	if r.GuestCount < 1 {
		return domain.Reject(domain.KindValidation)
	}
	return nil
}

// parseStayDates parses YYYY-MM-DD dates and enforces checkIn >= today and
// checkIn < checkOut. Dates come back normalized to UTC midnight.
func parseStayDates(inStr, outStr string) (time.Time, time.Time, error) {
	checkIn, err := time.ParseInLocation(dateLayout, inStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Reject(domain.KindInvalidDates)
	}
	checkOut, err := time.ParseInLocation(dateLayout, outStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Reject(domain.KindInvalidDates)
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) || !checkIn.Before(checkOut) {
		return time.Time{}, time.Time{}, domain.Reject(domain.KindInvalidDates)
	}
	return checkIn, checkOut, nil
}

// newBookingCode returns the human-facing code, e.g. "BK-3F9A21C4".
func newBookingCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK-" + raw[:8]
}
