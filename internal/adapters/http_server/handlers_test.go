package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "github.com/elite42/gudbro-verticals-sub027/internal/adapters/http_server"
	"github.com/elite42/gudbro-verticals-sub027/internal/app"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

// ---- minimal fakes behind a real BookingService ----

type stubRepo struct {
	prop      domain.Property
	room      domain.Room
	booking   domain.Booking
	createErr error
}

func (s *stubRepo) GetPropertyBySlug(ctx context.Context, slug string) (domain.Property, error) {
	if slug != s.prop.Slug {
		return domain.Property{}, domain.ErrNotFound
	}
	return s.prop, nil
}

func (s *stubRepo) GetRoom(ctx context.Context, roomID, propertyID string) (domain.Room, error) {
	if roomID != s.room.ID || propertyID != s.room.PropertyID {
		return domain.Room{}, domain.ErrNotFound
	}
	return s.room, nil
}

func (s *stubRepo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	b.ID = "id-1"
	b.CreatedAt = time.Now().UTC()
	s.booking = *b
	return nil
}

func (s *stubRepo) GetBookingByCode(ctx context.Context, code string) (domain.Booking, error) {
	if code != s.booking.Code {
		return domain.Booking{}, domain.ErrNotFound
	}
	return s.booking, nil
}

func (s *stubRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	return nil, nil
}

func (s *stubRepo) CancelExpiredPending(ctx context.Context, id string, now time.Time) (bool, error) {
	return false, nil
}

type nullCache struct{}

func (nullCache) Get(ctx context.Context, key string, dst any) (bool, error) { return false, nil }
func (nullCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return nil
}
func (nullCache) Del(ctx context.Context, key string) error { return nil }

type stubTokens struct{}

func (stubTokens) IssueGuestToken(b domain.Booking) (string, error) { return "tok-" + b.ID, nil }
func (stubTokens) VerifyGuestToken(raw string) (domain.GuestClaims, error) {
	if !strings.HasPrefix(raw, "tok-") {
		return domain.GuestClaims{}, errors.New("bad token")
	}
	return domain.GuestClaims{BookingID: strings.TrimPrefix(raw, "tok-")}, nil
}

func newTestServer(repo *stubRepo) *httptest.Server {
	svc := app.NewBookingService(repo, nullCache{}, stubTokens{}, nil, time.Minute)
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{B: svc})
	return httptest.NewServer(srv.Mux())
}

func fixtureStub() *stubRepo {
	return &stubRepo{
		prop: domain.Property{
			ID: "p1", Slug: "villa-mia", Name: "Villa Mia",
			BookingMode: domain.ModeInstant, MinNights: 1,
			CleaningFee: 200000, WeeklyDiscountPercent: 10, MonthlyDiscountPercent: 20,
			InquiryTimeoutHours: 24,
		},
		room: domain.Room{ID: "r1", PropertyID: "p1", Name: "Garden", BasePricePerNight: 500000, Currency: "VND", Capacity: 2},
	}
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func bookingBody() string {
	b, _ := json.Marshal(map[string]any{
		"propertySlug": "villa-mia",
		"roomId":       "r1",
		"firstName":    "Linh",
		"lastName":     "Tran",
		"email":        "linh@example.com",
		"phone":        "+84 900 000 000",
		"guestCount":   2,
		"checkIn":      futureDate(30),
		"checkOut":     futureDate(37),
	})
	return string(b)
}

func postBooking(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url+"/v1/bookings", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return res
}

func decodeError(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Error
}

// ---- tests ----

func TestPostBooking_Success(t *testing.T) {
	ts := newTestServer(fixtureStub())
	defer ts.Close()

	res := postBooking(t, ts.URL, bookingBody())
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}

	var out struct {
		Data struct {
			BookingCode    string                `json:"bookingCode"`
			Token          string                `json:"token"`
			Status         string                `json:"status"`
			ExpiresAt      *string               `json:"expiresAt"`
			PriceBreakdown domain.PriceBreakdown `json:"priceBreakdown"`
			PropertyName   string                `json:"propertyName"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Data.Status != "confirmed" || out.Data.ExpiresAt != nil {
		t.Fatalf("unexpected status: %+v", out.Data)
	}
	if out.Data.PriceBreakdown.TotalPrice != 3350000 {
		t.Fatalf("total: %d", out.Data.PriceBreakdown.TotalPrice)
	}
	if out.Data.BookingCode == "" || out.Data.Token == "" || out.Data.PropertyName != "Villa Mia" {
		t.Fatalf("unexpected data: %+v", out.Data)
	}
}

func TestPostBooking_MalformedJSON(t *testing.T) {
	ts := newTestServer(fixtureStub())
	defer ts.Close()

	res := postBooking(t, ts.URL, "{not json")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
	if kind := decodeError(t, res); kind != "validation_error" {
		t.Fatalf("kind: %s", kind)
	}
}

func TestPostBooking_ErrorKindStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		repo       *stubRepo
		mutate     func(map[string]any)
		wantStatus int
		wantKind   string
	}{
		{
			name:       "conflict",
			repo:       func() *stubRepo { r := fixtureStub(); r.createErr = domain.ErrDatesUnavailable; return r }(),
			wantStatus: http.StatusConflict,
			wantKind:   "dates_unavailable",
		},
		{
			name:       "internal",
			repo:       func() *stubRepo { r := fixtureStub(); r.createErr = errors.New("socket closed"); return r }(),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "internal_error",
		},
		{
			name:       "disabled",
			repo:       func() *stubRepo { r := fixtureStub(); r.prop.BookingMode = domain.ModeDisabled; return r }(),
			wantStatus: http.StatusForbidden,
			wantKind:   "property_disabled",
		},
		{
			name:       "unknown property",
			repo:       fixtureStub(),
			mutate:     func(m map[string]any) { m["propertySlug"] = "ghost" },
			wantStatus: http.StatusNotFound,
			wantKind:   "property_not_found",
		},
		{
			name:       "over capacity",
			repo:       fixtureStub(),
			mutate:     func(m map[string]any) { m["guestCount"] = 5 },
			wantStatus: http.StatusBadRequest,
			wantKind:   "max_guests_exceeded",
		},
		{
			name:       "past dates",
			repo:       fixtureStub(),
			mutate:     func(m map[string]any) { m["checkIn"] = "2020-01-01"; m["checkOut"] = "2020-01-05" },
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_dates",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(tc.repo)
			defer ts.Close()

			var body map[string]any
			_ = json.Unmarshal([]byte(bookingBody()), &body)
			if tc.mutate != nil {
				tc.mutate(body)
			}
			raw, _ := json.Marshal(body)

			res := postBooking(t, ts.URL, string(raw))
			if res.StatusCode != tc.wantStatus {
				t.Fatalf("status %d, want %d", res.StatusCode, tc.wantStatus)
			}
			if kind := decodeError(t, res); kind != tc.wantKind {
				t.Fatalf("kind %s, want %s", kind, tc.wantKind)
			}
		})
	}
}

func TestQuoteEndpoint(t *testing.T) {
	ts := newTestServer(fixtureStub())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/properties/villa-mia/rooms/r1/quote?checkIn=" + futureDate(30) + "&checkOut=" + futureDate(37))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var out struct {
		Data domain.PriceBreakdown `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Data.Nights != 7 || out.Data.Subtotal != 3500000 || out.Data.DiscountAmount != 350000 {
		t.Fatalf("breakdown: %+v", out.Data)
	}

	// missing params are a validation error, not a panic or a 500
	res2, err := http.Get(ts.URL + "/v1/properties/villa-mia/rooms/r1/quote")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if res2.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res2.StatusCode)
	}
	if kind := decodeError(t, res2); kind != "validation_error" {
		t.Fatalf("kind: %s", kind)
	}
}

func TestGetBooking_AuthAndETag(t *testing.T) {
	repo := fixtureStub()
	ts := newTestServer(repo)
	defer ts.Close()

	res := postBooking(t, ts.URL, bookingBody())
	var created struct {
		Data struct {
			BookingCode string `json:"bookingCode"`
			Token       string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	res.Body.Close()

	url := ts.URL + "/v1/bookings/" + created.Data.BookingCode

	// no token
	noAuth, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if noAuth.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d", noAuth.StatusCode)
	}
	if kind := decodeError(t, noAuth); kind != "session_expired" {
		t.Fatalf("kind: %s", kind)
	}

	// with token
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+created.Data.Token)
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("status %d", authed.StatusCode)
	}
	etag := authed.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	var got struct {
		Data struct {
			BookingCode string `json:"bookingCode"`
			Status      string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(authed.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	authed.Body.Close()
	if got.Data.BookingCode != created.Data.BookingCode || got.Data.Status != "confirmed" {
		t.Fatalf("unexpected body: %+v", got.Data)
	}

	// conditional revalidation short-circuits
	req2, _ := http.NewRequest(http.MethodGet, url, nil)
	req2.Header.Set("Authorization", "Bearer "+created.Data.Token)
	req2.Header.Set("If-None-Match", etag)
	cached, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer cached.Body.Close()
	if cached.StatusCode != http.StatusNotModified {
		t.Fatalf("status %d, want 304", cached.StatusCode)
	}
}
