// Package pricing computes the server-authoritative price breakdown for a
// stay. The quote is pure and deterministic: integer arithmetic on minor
// currency units, no clock, no I/O.
package pricing

import (
	"errors"
	"time"

	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

// Contract violations: these indicate a caller bug (dates not validated
// upstream, corrupt rate config), not a user-facing condition.
var (
	ErrInvalidDateRange = errors.New("pricing: check-out must be after check-in")
	ErrInvalidRate      = errors.New("pricing: negative base price per night")
)

const (
	weeklyThresholdNights  = 7
	monthlyThresholdNights = 28
)

// Nights returns the whole calendar days between two dates. Both are
// normalized to UTC midnight first so DST transitions or time-of-day noise
// never change the count.
func Nights(checkIn, checkOut time.Time) int {
	return int(midnightUTC(checkOut).Sub(midnightUTC(checkIn)) / (24 * time.Hour))
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Quote computes the breakdown for one room over [checkIn, checkOut).
// Discount tiers: stays of 28+ nights use the monthly percent (monthly wins
// even though the weekly threshold is also met), 7+ nights the weekly
// percent, shorter stays none. The discount is rounded half-up and clamped
// so it can never exceed the subtotal.
func Quote(basePricePerNight int64, checkIn, checkOut time.Time, cleaningFee int64, weeklyDiscountPercent, monthlyDiscountPercent int, currency string) (domain.PriceBreakdown, error) {
	if basePricePerNight < 0 {
		return domain.PriceBreakdown{}, ErrInvalidRate
	}
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return domain.PriceBreakdown{}, ErrInvalidDateRange
	}

	subtotal := basePricePerNight * int64(nights)

	pct := 0
	switch {
	case nights >= monthlyThresholdNights && monthlyDiscountPercent > 0:
		pct = monthlyDiscountPercent
	case nights >= weeklyThresholdNights && weeklyDiscountPercent > 0:
		pct = weeklyDiscountPercent
	}

	discount := roundHalfUp(subtotal*int64(pct), 100)
	if discount > subtotal {
		discount = subtotal
	}

	return domain.PriceBreakdown{
		PricePerNight:  basePricePerNight,
		Nights:         nights,
		Subtotal:       subtotal,
		CleaningFee:    cleaningFee,
		DiscountAmount: discount,
		TotalPrice:     subtotal + cleaningFee - discount,
		Currency:       currency,
	}, nil
}

// roundHalfUp divides num by den rounding halves away from zero.
// num is non-negative here (subtotal * percent).
func roundHalfUp(num, den int64) int64 {
	return (num + den/2) / den
}
