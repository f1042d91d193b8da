package api

import (
	"context"
	"net/url"

	"staybook/internal/models"
)

// CreateBooking submits a draft. The total is derived from the nightly rate and nights.
// Repeating the call after a failure may create a duplicate server-side.
func (c *Client) CreateBooking(ctx context.Context, draft models.BookingDraft) (*models.Booking, error) {
	var dto bookingDTO
	if err := c.doPost(ctx, "create_booking", "/bookings", newCreateBookingRequest(draft), &dto); err != nil {
		return nil, err
	}
	b := dto.toModel()
	return &b, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var dto bookingDTO
	if err := c.doGet(ctx, "get_booking", "/bookings/"+url.PathEscape(id), &dto); err != nil {
		return nil, err
	}
	b := dto.toModel()
	return &b, nil
}

// CancelBooking requests the cancelled transition. The server decides whether it is allowed.
func (c *Client) CancelBooking(ctx context.Context, id, reason string) (*models.Booking, error) {
	body := map[string]string{"reason": reason}
	var dto bookingDTO
	if err := c.doPut(ctx, "cancel_booking", "/bookings/"+url.PathEscape(id)+"/cancel", body, &dto); err != nil {
		return nil, err
	}
	b := dto.toModel()
	return &b, nil
}

func (c *Client) ListMyBookings(ctx context.Context) ([]models.Booking, error) {
	var dtos []bookingDTO
	if err := c.doGet(ctx, "list_bookings", "/bookings/my-bookings", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Booking, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}
