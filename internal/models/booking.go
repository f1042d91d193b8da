package models

import "time"

// Booking is the server-owned reservation record. The client only keeps a copy for display.
type Booking struct {
	ID                 string    `json:"id"`
	HotelID            string    `json:"hotel_id"`
	RoomType           string    `json:"room_type"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Guests             int       `json:"guests"`
	TotalAmount        int64     `json:"total_amount"`
	Status             string    `json:"status"`         // pending, confirmed, cancelled, checked-in, checked-out, no-show
	PaymentStatus      string    `json:"payment_status"` // pending, paid, failed, refunded
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// IsPaid reports whether the backend has recorded a settled payment.
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}
