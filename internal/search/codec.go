// Package search round-trips a hotel search through URL query strings.
package search

import (
	"net/url"
	"strconv"
	"strings"

	"staybook/internal/models"
)

const (
	keyDestination = "destination"
	keyCity        = "city"
	keyCheckIn     = "checkIn"
	keyCheckOut    = "checkOut"
	keyGuests      = "guests"
)

// Encode serializes q as a URL query string (without the leading '?').
func Encode(q models.SearchQuery) string {
	return Values(q).Encode()
}

// Values is Encode before serialization, for callers that add their own keys.
func Values(q models.SearchQuery) url.Values {
	v := url.Values{}
	v.Set(keyDestination, q.Destination)
	v.Set(keyCheckIn, q.CheckIn)
	v.Set(keyCheckOut, q.CheckOut)
	v.Set(keyGuests, strconv.Itoa(q.Guests))
	return v
}

// Decode parses a query string. Missing keys fall back to empty strings and one guest.
// Dates pass through unvalidated.
func Decode(raw string) models.SearchQuery {
	// ParseQuery keeps the pairs it could parse
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return FromValues(v)
}

func FromValues(v url.Values) models.SearchQuery {
	q := models.SearchQuery{
		Destination: v.Get(keyDestination),
		CheckIn:     v.Get(keyCheckIn),
		CheckOut:    v.Get(keyCheckOut),
		Guests:      models.DefaultGuests,
	}
	if q.Destination == "" {
		q.Destination = v.Get(keyCity)
	}
	if g, err := strconv.Atoi(strings.TrimSpace(v.Get(keyGuests))); err == nil && g > 0 {
		q.Guests = g
	}
	return q
}
