// Package token issues and verifies the guest-access credential handed out
// with a booking. The token is an HS256 JWT scoped to exactly one booking
// and expires after the guest checks out.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

// checkoutGrace keeps the token alive through the checkout day itself so a
// guest can still reach their booking on the morning they leave.
const checkoutGrace = 24 * time.Hour

var ErrInvalidToken = errors.New("token: invalid or expired")

type guestClaims struct {
	PropertyID string `json:"pid"`
	Checkout   string `json:"checkout"` // YYYY-MM-DD
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
}

func New(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	return &Issuer{secret: []byte(secret)}, nil
}

func (i *Issuer) IssueGuestToken(b domain.Booking) (string, error) {
	now := time.Now().UTC()
	claims := guestClaims{
		PropertyID: b.PropertyID,
		Checkout:   b.CheckOut.Format("2006-01-02"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   b.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(b.CheckOut.Add(checkoutGrace)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign guest token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) VerifyGuestToken(raw string) (domain.GuestClaims, error) {
	var claims guestClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return domain.GuestClaims{}, ErrInvalidToken
	}
	checkout, err := time.ParseInLocation("2006-01-02", claims.Checkout, time.UTC)
	if err != nil {
		return domain.GuestClaims{}, ErrInvalidToken
	}
	return domain.GuestClaims{
		BookingID:  claims.Subject,
		PropertyID: claims.PropertyID,
		Checkout:   checkout,
	}, nil
}
