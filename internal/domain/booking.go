package domain

import "time"

type BookingMode string

const (
	ModeInstant  BookingMode = "instant"
	ModeInquiry  BookingMode = "inquiry"
	ModeDisabled BookingMode = "disabled"
)

type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusPending    BookingStatus = "pending"
	StatusCancelled  BookingStatus = "cancelled"
	StatusCheckedOut BookingStatus = "checked_out"
)

// Property carries the booking policy for one accommodation listing.
// All money fields are integers in minor currency units.
type Property struct {
	ID                     string
	Slug                   string
	Name                   string
	BookingMode            BookingMode
	MinNights              int
	MaxNights              *int // nil means no upper bound
	CleaningFee            int64
	WeeklyDiscountPercent  int
	MonthlyDiscountPercent int
	InquiryTimeoutHours    int
	ContactPhone           *string
	ContactWhatsapp        *string
}

type Room struct {
	ID                string
	PropertyID        string
	Name              string
	BasePricePerNight int64
	Currency          string
	Capacity          int
}

// PriceBreakdown is the server-authoritative price for a stay.
type PriceBreakdown struct {
	PricePerNight  int64  `json:"pricePerNight"`
	Nights         int    `json:"nights"`
	Subtotal       int64  `json:"subtotal"`
	CleaningFee    int64  `json:"cleaningFee"`
	DiscountAmount int64  `json:"discountAmount"`
	TotalPrice     int64  `json:"totalPrice"`
	Currency       string `json:"currency"`
}

// Booking is the persisted record. Status transitions beyond the initial
// confirmed/pending state (expiry cancellation, checkout) are driven by the
// expirer and staff tooling, which only touch status and expires_at.
type Booking struct {
	ID              string
	Code            string
	PropertyID      string
	RoomID          string
	GuestFirstName  string
	GuestLastName   string
	GuestEmail      string
	GuestPhone      string
	GuestCount      int
	CheckIn         time.Time // date, UTC midnight
	CheckOut        time.Time // date, UTC midnight
	SpecialRequests *string
	Status          BookingStatus
	ExpiresAt       *time.Time // set while status is pending
	Price           PriceBreakdown
	CreatedAt       time.Time
}
