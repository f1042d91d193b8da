package api

import (
	"context"

	"staybook/internal/models"
)

// CreatePaymentIntent asks the backend for a provider intent. bookingID must already exist.
func (c *Client) CreatePaymentIntent(ctx context.Context, bookingID string, amount int64) (*models.PaymentIntent, error) {
	body := map[string]any{"bookingId": bookingID, "amount": amount}
	var dto paymentIntentDTO
	if err := c.doPost(ctx, "create_payment_intent", "/payments/create-intent", body, &dto); err != nil {
		return nil, err
	}
	intent := &models.PaymentIntent{
		ID:           firstNonEmpty(dto.PaymentIntentID, dto.ID),
		ClientSecret: dto.ClientSecret,
		Amount:       amount,
		Currency:     dto.Currency,
		BookingID:    bookingID,
	}
	if dto.Amount != nil {
		intent.Amount = *dto.Amount
	}
	return intent, nil
}

// ConfirmPayment tells the backend the provider reported success and returns the updated booking.
func (c *Client) ConfirmPayment(ctx context.Context, bookingID, intentID string) (*models.Booking, error) {
	body := map[string]string{"bookingId": bookingID, "paymentIntentId": intentID}
	var dto bookingDTO
	if err := c.doPost(ctx, "confirm_payment", "/payments/confirm", body, &dto); err != nil {
		return nil, err
	}
	b := dto.toModel()
	return &b, nil
}
