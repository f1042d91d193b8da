// Package payment hands a created booking to the payment provider, confirms the
// result with the backend and counts down to the bookings list.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain"
	"staybook/internal/metrics"
	"staybook/internal/models"

	"github.com/rs/zerolog"
)

// StatusSucceeded is the only provider status treated as success.
const StatusSucceeded = "succeeded"

// Outcome of a successful handoff.
type Outcome struct {
	Intent    *models.PaymentIntent
	Result    *domain.PaymentResult
	Booking   *models.Booking
	Navigated bool
}

type Handoff struct {
	payments domain.PaymentAPI
	provider domain.PaymentProvider
	nav      domain.Navigator
	logger   *zerolog.Logger

	countdown int
	tick      time.Duration

	// OnTick receives every countdown value, starting at the configured seconds and ending at 0.
	OnTick func(remaining int)
}

func NewHandoff(payments domain.PaymentAPI, provider domain.PaymentProvider, nav domain.Navigator, countdown int, logger *zerolog.Logger) *Handoff {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if countdown < 0 {
		countdown = models.DefaultCountdownSeconds
	}
	return &Handoff{
		payments:  payments,
		provider:  provider,
		nav:       nav,
		logger:    logger,
		countdown: countdown,
		tick:      time.Second,
	}
}

// WithTick overrides the countdown step.
func (h *Handoff) WithTick(d time.Duration) *Handoff {
	if d > 0 {
		h.tick = d
	}
	return h
}

// Pay runs one payment attempt for an existing booking. A provider failure returns
// *domain.PaymentError with the provider message and nothing is retried; the caller
// may call Pay again. A signal on manual skips the rest of the countdown. Cancelling
// ctx during the countdown returns the outcome without navigating.
func (h *Handoff) Pay(ctx context.Context, bookingID string, amount int64, manual <-chan struct{}) (*Outcome, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}
	if amount <= 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}

	logger := h.logger.With().Str("booking_id", bookingID).Int64("amount", amount).Logger()

	intent, err := h.payments.CreatePaymentIntent(ctx, bookingID, amount)
	if err != nil {
		metrics.IncPaymentOutcome("intent_error")
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if intent.BookingID == "" {
		intent.BookingID = bookingID
	}

	result, err := h.provider.Await(ctx, intent)
	if err != nil {
		metrics.IncPaymentOutcome("provider_error")
		return nil, fmt.Errorf("await payment: %w", err)
	}
	if result.Status != StatusSucceeded {
		metrics.IncPaymentOutcome("failed")
		logger.Warn().Str("intent_id", intent.ID).Str("status", result.Status).Str("message", result.Message).Msg("Payment not completed")
		return nil, &domain.PaymentError{Status: result.Status, Message: result.Message}
	}

	intentID := result.IntentID
	if intentID == "" {
		intentID = intent.ID
	}
	booking, err := h.payments.ConfirmPayment(ctx, bookingID, intentID)
	if err != nil {
		metrics.IncPaymentOutcome("confirm_error")
		logger.Error().Err(err).Str("intent_id", intentID).Msg("Payment succeeded but backend confirmation failed")
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	metrics.IncPaymentOutcome("succeeded")
	logger.Info().Str("intent_id", intentID).Msg("Payment succeeded")

	out := &Outcome{Intent: intent, Result: result, Booking: booking}
	navigated, err := h.countdownAndNavigate(ctx, bookingID, manual)
	out.Navigated = navigated
	if err != nil {
		return out, fmt.Errorf("navigate to bookings: %w", err)
	}
	return out, nil
}

func (h *Handoff) countdownAndNavigate(ctx context.Context, bookingID string, manual <-chan struct{}) (bool, error) {
	remaining := h.countdown
	h.report(remaining)
	if remaining == 0 {
		return true, h.navigate(ctx, bookingID)
	}

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case <-manual:
			return true, h.navigate(ctx, bookingID)
		case <-ticker.C:
			remaining--
			h.report(remaining)
			if remaining <= 0 {
				return true, h.navigate(ctx, bookingID)
			}
		}
	}
}

func (h *Handoff) report(remaining int) {
	if h.OnTick != nil {
		h.OnTick(remaining)
	}
}

func (h *Handoff) navigate(ctx context.Context, bookingID string) error {
	if h.nav == nil {
		return nil
	}
	return h.nav.Navigate(ctx, models.RouteBookings, map[string]string{"booking_id": bookingID})
}
