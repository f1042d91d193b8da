package models

// SearchQuery drives hotel search and is round-tripped through the URL query string.
type SearchQuery struct {
	Destination string
	CheckIn     string // YYYY-MM-DD, not validated
	CheckOut    string
	Guests      int
}
