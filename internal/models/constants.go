package models

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCancelled  = "cancelled"
	StatusCheckedIn  = "checked-in"
	StatusCheckedOut = "checked-out"
	StatusNoShow     = "no-show"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DateLayout is the calendar-date format used on the wire and in URLs.
const DateLayout = "2006-01-02"

const (
	// DefaultGuests is used when a search query or API payload omits the guest count
	DefaultGuests = 1

	// DefaultCountdownSeconds before redirecting to the bookings list after payment
	DefaultCountdownSeconds = 5

	// DefaultFlowTTL abandonment timeout for a booking flow, in seconds
	DefaultFlowTTL = 30 * 60

	// DefaultCacheTTL lifetime of cached hotel lookups, in seconds
	DefaultCacheTTL = 5 * 60

	// DefaultCurrency for payment intents
	DefaultCurrency = "inr"
)

// Route names handed to the Navigator.
const (
	RouteBookings     = "bookings"
	RouteLogin        = "login"
	RouteConfirmation = "confirmation"
)
