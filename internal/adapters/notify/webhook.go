// Package notify posts booking events to the notification webhook (the
// service behind it fans out email/WhatsApp). Delivery is fire-and-forget:
// a booking response never waits on it and a dead webhook never fails a
// booking.
package notify

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/observability"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

type Webhook struct {
	url string
	hc  *http.Client
	rl  *rate.Limiter
}

// New returns a webhook notifier, or nil when no URL is configured so
// callers can wire it unconditionally.
func New(url string, rps int) *Webhook {
	if url == "" {
		return nil
	}
	if rps <= 0 {
		rps = 5
	}
	return &Webhook{
		url: url,
		hc:  &http.Client{Timeout: 10 * time.Second},
		rl:  rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type event struct {
	Event       string     `json:"event"`
	BookingCode string     `json:"bookingCode"`
	PropertyID  string     `json:"propertyId"`
	Status      string     `json:"status"`
	GuestEmail  string     `json:"guestEmail"`
	CheckIn     string     `json:"checkIn"`
	CheckOut    string     `json:"checkOut"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

func (w *Webhook) BookingCreated(ctx context.Context, b domain.Booking) {
	w.dispatch("booking.created", b)
}

func (w *Webhook) BookingExpired(ctx context.Context, b domain.Booking) {
	w.dispatch("booking.expired", b)
}

// dispatch runs delivery on its own goroutine with a detached deadline so
// cancellation of the originating request doesn't kill the notification.
func (w *Webhook) dispatch(name string, b domain.Booking) {
	ev := event{
		Event:       name,
		BookingCode: b.Code,
		PropertyID:  b.PropertyID,
		Status:      string(b.Status),
		GuestEmail:  b.GuestEmail,
		CheckIn:     b.CheckIn.Format("2006-01-02"),
		CheckOut:    b.CheckOut.Format("2006-01-02"),
		ExpiresAt:   b.ExpiresAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := w.post(ctx, ev); err != nil {
			log.Warn().Err(err).Str("event", name).Str("code", b.Code).Msg("webhook delivery failed")
		}
	}()
}

// post sends one event with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (w *Webhook) post(ctx context.Context, ev event) error {
	if err := w.rl.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := w.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("notify", ev.Event, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("webhook %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to +50%
// random jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
