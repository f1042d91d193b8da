package models

// PaymentIntent is the provider-side pending charge obtained through the backend.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	BookingID    string `json:"booking_id"`
}
