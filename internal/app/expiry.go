package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

// ExpiryService cancels pending bookings whose inquiry deadline passed.
// Cancellation frees the date range: the exclusion constraint only covers
// confirmed and pending rows, so the room becomes bookable again the moment
// the status flips.
type ExpiryService struct {
	repo     domain.BookingRepository
	notifier domain.Notifier
	workers  int64
	batch    int
}

func NewExpiryService(r domain.BookingRepository, n domain.Notifier, workers, batch int) *ExpiryService {
	if workers < 1 {
		workers = 1
	}
	if batch < 1 {
		batch = 100
	}
	return &ExpiryService{repo: r, notifier: n, workers: int64(workers), batch: batch}
}

// Sweep runs one pass and returns how many bookings it cancelled.
// CancelExpiredPending re-checks status and deadline inside the UPDATE, so
// a booking confirmed between the list and the cancel is left alone.
func (s *ExpiryService) Sweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	expired, err := s.repo.ListExpiredPending(ctx, now, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list expired pending: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	cancelled := 0

	for _, b := range expired {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(b domain.Booking) {
			defer wg.Done()
			defer sem.Release(1)

			ok, err := s.repo.CancelExpiredPending(ctx, b.ID, now)
			if err != nil {
				log.Warn().Err(err).Str("code", b.Code).Msg("expiry cancel failed")
				return
			}
			if !ok {
				return // confirmed or already cancelled in the meantime
			}
			log.Info().Str("code", b.Code).Time("expired_at", *b.ExpiresAt).Msg("pending booking expired")
			if s.notifier != nil {
				s.notifier.BookingExpired(ctx, b)
			}
			mu.Lock()
			cancelled++
			mu.Unlock()
		}(b)
	}

	wg.Wait()
	return cancelled, nil
}
