package models

import "time"

// BookingDraft is the client-local reservation before submission.
type BookingDraft struct {
	HotelID    string       `json:"hotel_id" validate:"required"`
	RoomType   string       `json:"room_type" validate:"required"`
	BasePrice  int64        `json:"base_price" validate:"gte=0"`
	CheckIn    time.Time    `json:"check_in"`
	CheckOut   time.Time    `json:"check_out"`
	GuestCount int          `json:"guest_count" validate:"gte=1"`
	Guest      GuestDetails `json:"guest"`
}

type GuestDetails struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}
