package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

// exclusionViolation is PostgreSQL's class-23 code for a row rejected by an
// exclusion constraint; for accom_bookings that means an overlapping stay.
const exclusionViolation = "23P01"

type Repo struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetPropertyBySlug(ctx context.Context, slug string) (domain.Property, error) {
	var p domain.Property
	err := r.pool.QueryRow(ctx, getPropertySQL, slug).Scan(
		&p.ID, &p.Slug, &p.Name, &p.BookingMode, &p.MinNights, &p.MaxNights,
		&p.CleaningFee, &p.WeeklyDiscountPercent, &p.MonthlyDiscountPercent,
		&p.InquiryTimeoutHours, &p.ContactPhone, &p.ContactWhatsapp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *Repo) GetRoom(ctx context.Context, roomID, propertyID string) (domain.Room, error) {
	var rm domain.Room
	err := r.pool.QueryRow(ctx, getRoomSQL, roomID, propertyID).Scan(
		&rm.ID, &rm.PropertyID, &rm.Name, &rm.BasePricePerNight, &rm.Currency, &rm.Capacity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return rm, nil
}

// CreateBooking is the single atomic insert the availability argument rests
// on. There is deliberately no availability pre-check here: the exclusion
// constraint decides, and exactly one of any set of concurrent overlapping
// inserts wins.
func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	err := r.pool.QueryRow(ctx, insertBookingSQL,
		b.Code, b.PropertyID, b.RoomID,
		b.GuestFirstName, b.GuestLastName, b.GuestEmail, b.GuestPhone, b.GuestCount,
		b.CheckIn, b.CheckOut, b.SpecialRequests,
		b.Status, b.ExpiresAt,
		b.Price.PricePerNight, b.Price.Nights, b.Price.Subtotal,
		b.Price.CleaningFee, b.Price.DiscountAmount, b.Price.TotalPrice, b.Price.Currency,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return domain.ErrDatesUnavailable
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *Repo) GetBookingByCode(ctx context.Context, code string) (domain.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, getBookingByCodeSQL, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking by code: %w", err)
	}
	return b, nil
}

func (r *Repo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, listExpiredPendingSQL, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired pending: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) CancelExpiredPending(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, cancelExpiredPendingSQL, id, now)
	if err != nil {
		return false, fmt.Errorf("cancel expired pending: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Code, &b.PropertyID, &b.RoomID,
		&b.GuestFirstName, &b.GuestLastName, &b.GuestEmail, &b.GuestPhone, &b.GuestCount,
		&b.CheckIn, &b.CheckOut, &b.SpecialRequests,
		&b.Status, &b.ExpiresAt,
		&b.Price.PricePerNight, &b.Price.Nights, &b.Price.Subtotal,
		&b.Price.CleaningFee, &b.Price.DiscountAmount, &b.Price.TotalPrice, &b.Price.Currency,
		&b.CreatedAt,
	)
	return b, err
}
