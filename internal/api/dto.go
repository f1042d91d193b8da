package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"staybook/internal/models"
	"staybook/internal/pricing"
)

// refID accepts either a plain id string or a populated object carrying id/_id.
type refID string

func (r *refID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = refID(s)
		return nil
	}
	var obj struct {
		ID    string `json:"id"`
		OID   string `json:"_id"`
		Value string `json:"$oid"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = refID(firstNonEmpty(obj.ID, obj.OID, obj.Value))
	return nil
}

type bookingDTO struct {
	ID                 string  `json:"id"`
	OID                string  `json:"_id"`
	Hotel              refID   `json:"hotel"`
	HotelID            refID   `json:"hotelId"`
	RoomType           string  `json:"roomType"`
	CheckIn            string  `json:"checkIn"`
	CheckInDate        string  `json:"checkInDate"`
	CheckOut           string  `json:"checkOut"`
	CheckOutDate       string  `json:"checkOutDate"`
	Guests             *int    `json:"guests"`
	TotalAmount        *int64  `json:"totalAmount"`
	TotalPrice         *int64  `json:"totalPrice"`
	Status             *string `json:"status"`
	PaymentStatus      *string `json:"paymentStatus"`
	CancellationReason string  `json:"cancellationReason"`
	CreatedAt          string  `json:"createdAt"`
}

func (d bookingDTO) toModel() models.Booking {
	b := models.Booking{
		ID:                 firstNonEmpty(d.ID, d.OID),
		HotelID:            firstNonEmpty(string(d.HotelID), string(d.Hotel)),
		RoomType:           d.RoomType,
		CheckIn:            parseLenient(firstNonEmpty(d.CheckIn, d.CheckInDate)),
		CheckOut:           parseLenient(firstNonEmpty(d.CheckOut, d.CheckOutDate)),
		Guests:             models.DefaultGuests,
		Status:             models.StatusPending,
		PaymentStatus:      models.PaymentStatusPending,
		CancellationReason: d.CancellationReason,
		CreatedAt:          parseLenient(d.CreatedAt),
	}
	if d.Guests != nil && *d.Guests > 0 {
		b.Guests = *d.Guests
	}
	switch {
	case d.TotalAmount != nil:
		b.TotalAmount = *d.TotalAmount
	case d.TotalPrice != nil:
		b.TotalAmount = *d.TotalPrice
	}
	if d.Status != nil && *d.Status != "" {
		b.Status = strings.ToLower(*d.Status)
	}
	if d.PaymentStatus != nil && *d.PaymentStatus != "" {
		b.PaymentStatus = strings.ToLower(*d.PaymentStatus)
	}
	return b
}

type guestDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type createBookingRequest struct {
	HotelID      string   `json:"hotelId"`
	RoomType     string   `json:"roomType"`
	CheckIn      string   `json:"checkIn"`
	CheckOut     string   `json:"checkOut"`
	Guests       int      `json:"guests"`
	TotalAmount  int64    `json:"totalAmount"`
	GuestDetails guestDTO `json:"guestDetails"`
}

func newCreateBookingRequest(d models.BookingDraft) createBookingRequest {
	nights := pricing.NightsBetween(d.CheckIn, d.CheckOut)
	return createBookingRequest{
		HotelID:     d.HotelID,
		RoomType:    d.RoomType,
		CheckIn:     pricing.FormatDate(d.CheckIn),
		CheckOut:    pricing.FormatDate(d.CheckOut),
		Guests:      d.GuestCount,
		TotalAmount: pricing.TotalPrice(d.BasePrice, nights),
		GuestDetails: guestDTO{
			FirstName: d.Guest.FirstName,
			LastName:  d.Guest.LastName,
			Email:     d.Guest.Email,
			Phone:     d.Guest.Phone,
		},
	}
}

type roomDTO struct {
	Type      string `json:"type"`
	RoomType  string `json:"roomType"`
	BasePrice *int64 `json:"basePrice"`
	Price     *int64 `json:"price"`
	Capacity  *int   `json:"capacity"`
	Available *int   `json:"available"`
}

func (d roomDTO) toModel() models.Room {
	r := models.Room{
		Type:     firstNonEmpty(d.Type, d.RoomType),
		Capacity: models.DefaultGuests,
	}
	switch {
	case d.BasePrice != nil:
		r.BasePrice = *d.BasePrice
	case d.Price != nil:
		r.BasePrice = *d.Price
	}
	if d.Capacity != nil && *d.Capacity > 0 {
		r.Capacity = *d.Capacity
	}
	if d.Available != nil {
		r.Available = *d.Available
	}
	return r
}

type locationDTO struct {
	City    string `json:"city"`
	Address string `json:"address"`
}

type hotelDTO struct {
	ID          string       `json:"id"`
	OID         string       `json:"_id"`
	Name        string       `json:"name"`
	City        string       `json:"city"`
	Address     string       `json:"address"`
	Location    *locationDTO `json:"location"`
	Rating      *float64     `json:"rating"`
	Amenities   []string     `json:"amenities"`
	Rooms       []roomDTO    `json:"rooms"`
	Description string       `json:"description"`
}

func (d hotelDTO) toModel() models.Hotel {
	h := models.Hotel{
		ID:          firstNonEmpty(d.ID, d.OID),
		Name:        d.Name,
		City:        d.City,
		Address:     d.Address,
		Amenities:   d.Amenities,
		Description: d.Description,
	}
	if d.Location != nil {
		h.City = firstNonEmpty(h.City, d.Location.City)
		h.Address = firstNonEmpty(h.Address, d.Location.Address)
	}
	if d.Rating != nil {
		h.Rating = *d.Rating
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	h.Rooms = make([]models.Room, 0, len(d.Rooms))
	for _, r := range d.Rooms {
		h.Rooms = append(h.Rooms, r.toModel())
	}
	return h
}

type userDTO struct {
	ID    string  `json:"id"`
	OID   string  `json:"_id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone string  `json:"phone"`
	Role  *string `json:"role"`
}

func (d userDTO) toModel() models.User {
	u := models.User{
		ID:    firstNonEmpty(d.ID, d.OID),
		Name:  d.Name,
		Email: d.Email,
		Phone: d.Phone,
		Role:  models.RoleUser,
	}
	if d.Role != nil && *d.Role != "" {
		u.Role = *d.Role
	}
	return u
}

type recommendationDTO struct {
	Hotel  hotelDTO `json:"hotel"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
}

func (d recommendationDTO) toModel() models.Recommendation {
	r := models.Recommendation{Hotel: d.Hotel.toModel(), Reason: d.Reason}
	if d.Score != nil {
		r.Score = *d.Score
	}
	return r
}

type paymentIntentDTO struct {
	ID              string `json:"id"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          *int64 `json:"amount"`
	Currency        string `json:"currency"`
}

// layouts accepted on the read side, most specific first
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", models.DateLayout}

// parseLenient returns the zero time for absent or unparseable values.
func parseLenient(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
