package postgres

const getPropertySQL = `
SELECT
  id, slug, name, booking_mode, min_nights, max_nights,
  cleaning_fee, weekly_discount_percent, monthly_discount_percent,
  inquiry_timeout_hours, contact_phone, contact_whatsapp
FROM accom_properties
WHERE slug = $1 AND is_active
`

const getRoomSQL = `
SELECT id, property_id, name, base_price_per_night, currency, capacity
FROM accom_rooms
WHERE id = $1 AND property_id = $2 AND is_active
`

const insertBookingSQL = `
INSERT INTO accom_bookings (
  booking_code, property_id, room_id,
  guest_name, guest_last_name, guest_email, guest_phone, guest_count,
  check_in_date, check_out_date, special_requests,
  status, expires_at,
  price_per_night, num_nights, subtotal, cleaning_fee, discount_amount, total_price, currency
) VALUES (
  $1, $2, $3,
  $4, $5, $6, $7, $8,
  $9, $10, $11,
  $12, $13,
  $14, $15, $16, $17, $18, $19, $20
)
RETURNING id, created_at
`

const bookingColumns = `
  id, booking_code, property_id, room_id,
  guest_name, guest_last_name, guest_email, guest_phone, guest_count,
  check_in_date, check_out_date, special_requests,
  status, expires_at,
  price_per_night, num_nights, subtotal, cleaning_fee, discount_amount, total_price, currency,
  created_at
`

const getBookingByCodeSQL = `
SELECT ` + bookingColumns + `
FROM accom_bookings
WHERE booking_code = $1
`

const listExpiredPendingSQL = `
SELECT ` + bookingColumns + `
FROM accom_bookings
WHERE status = 'pending' AND expires_at <= $1
ORDER BY expires_at
LIMIT $2
`

// Status and deadline are re-checked inside the UPDATE so a booking that got
// confirmed after being listed is never cancelled.
const cancelExpiredPendingSQL = `
UPDATE accom_bookings
SET status = 'cancelled'
WHERE id = $1 AND status = 'pending' AND expires_at <= $2
`
