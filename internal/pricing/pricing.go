// Package pricing computes stay length and price for a booking draft.
package pricing

import (
	"errors"
	"math"
	"strings"
	"time"

	"staybook/internal/models"
)

// ErrInvalidRange is returned by QuoteFor when a date is missing or check-out is not after check-in.
var ErrInvalidRange = errors.New("check-out must be after check-in")

// Quote is what the review step shows before submission.
type Quote struct {
	Nights int   `json:"nights"`
	Total  int64 `json:"total"`
}

// NightsBetween returns the ceiling of the absolute difference in whole days.
// Either date being zero yields 0. Ordering is not checked here.
func NightsBetween(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	diff := checkOut.Sub(checkIn)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// TotalPrice is basePrice x nights with no rounding or conversion.
func TotalPrice(basePrice int64, nights int) int64 {
	return basePrice * int64(nights)
}

// QuoteFor validates ordering and returns nights and total.
func QuoteFor(basePrice int64, checkIn, checkOut time.Time) (Quote, error) {
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return Quote{}, ErrInvalidRange
	}
	nights := NightsBetween(checkIn, checkOut)
	return Quote{Nights: nights, Total: TotalPrice(basePrice, nights)}, nil
}

// ParseDate parses YYYY-MM-DD into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a calendar date, empty for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
