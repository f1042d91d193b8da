package domain

import (
	"context"

	"staybook/internal/models"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

type BookingAPI interface {
	CreateBooking(ctx context.Context, draft models.BookingDraft) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id, reason string) (*models.Booking, error)
	ListMyBookings(ctx context.Context) ([]models.Booking, error)
}

type HotelAPI interface {
	SearchHotels(ctx context.Context, q models.SearchQuery) ([]models.Hotel, error)
	GetHotel(ctx context.Context, id string) (*models.Hotel, error)
	Recommendations(ctx context.Context, limit int) ([]models.Recommendation, error)
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, phone, password string) (string, error)
	Profile(ctx context.Context) (*models.User, error)
}

type PaymentAPI interface {
	CreatePaymentIntent(ctx context.Context, bookingID string, amount int64) (*models.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, bookingID, intentID string) (*models.Booking, error)
}

// PaymentProvider renders the provider widget for an intent and reports the final status.
type PaymentProvider interface {
	Await(ctx context.Context, intent *models.PaymentIntent) (*PaymentResult, error)
}

// PaymentResult is the provider callback: Status is the payment-intent status string.
type PaymentResult struct {
	IntentID string
	Status   string
	Message  string
}

type Navigator interface {
	Navigate(ctx context.Context, route string, params map[string]string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
