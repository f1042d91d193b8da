package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain"
	"staybook/internal/events"
	"staybook/internal/flow"
	"staybook/internal/metrics"
	"staybook/internal/models"
	"staybook/internal/payment"
	"staybook/internal/pricing"
	"staybook/internal/search"

	"github.com/rs/zerolog"
)

// Payer runs the payment handoff for a created booking.
type Payer interface {
	Pay(ctx context.Context, bookingID string, amount int64, manual <-chan struct{}) (*payment.Outcome, error)
}

// FunnelService drives one booking funnel: search, room selection, guest
// details, review, submission, payment and confirmation.
type FunnelService struct {
	sessions *SessionService
	hotels   domain.HotelAPI
	bookings domain.BookingAPI
	payer    Payer
	events   domain.EventPublisher
	logger   *zerolog.Logger
}

func NewFunnelService(
	sessions *SessionService,
	hotels domain.HotelAPI,
	bookings domain.BookingAPI,
	payer Payer,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *FunnelService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FunnelService{
		sessions: sessions,
		hotels:   hotels,
		bookings: bookings,
		payer:    payer,
		events:   eventBus,
		logger:   logger,
	}
}

// Search returns hotels for q and the encoded query for the caller to keep.
func (s *FunnelService) Search(ctx context.Context, q models.SearchQuery) ([]models.Hotel, string, error) {
	q.Destination = strings.TrimSpace(q.Destination)
	if q.Guests < 1 {
		q.Guests = models.DefaultGuests
	}
	hotels, err := s.hotels.SearchHotels(ctx, q)
	if err != nil {
		return nil, "", err
	}
	return hotels, search.Encode(q), nil
}

// SelectRoom starts a flow for a room and stay. A zero basePrice is resolved
// from the hotel's room list.
func (s *FunnelService) SelectRoom(ctx context.Context, hotelID, roomType string, basePrice int64, checkIn, checkOut time.Time, guests int) (*flow.Flow, error) {
	if basePrice == 0 && hotelID != "" {
		hotel, err := s.hotels.GetHotel(ctx, hotelID)
		if err != nil {
			return nil, fmt.Errorf("load hotel: %w", err)
		}
		room := hotel.RoomByType(roomType)
		if room == nil {
			return nil, domain.ValidationError{Field: "room_type", Msg: "is not offered by this hotel"}
		}
		basePrice = room.BasePrice
	}

	f, err := s.sessions.Begin(ctx, models.BookingDraft{
		HotelID:    hotelID,
		RoomType:   roomType,
		BasePrice:  basePrice,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: guests,
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.EventFlowStarted, f, nil)
	return f, nil
}

func (s *FunnelService) UpdateGuest(ctx context.Context, flowID string, guest models.GuestDetails) (*flow.Flow, error) {
	return s.update(ctx, flowID, func(f *flow.Flow) error {
		return f.SetGuestDetails(guest)
	})
}

// UpdateStay changes dates and guest count. The flow goes back to selecting.
func (s *FunnelService) UpdateStay(ctx context.Context, flowID string, checkIn, checkOut time.Time, guests int) (*flow.Flow, error) {
	return s.update(ctx, flowID, func(f *flow.Flow) error {
		if err := f.SetDates(checkIn, checkOut); err != nil {
			return err
		}
		return f.SetGuestCount(guests)
	})
}

func (s *FunnelService) update(ctx context.Context, flowID string, apply func(*flow.Flow) error) (*flow.Flow, error) {
	f, err := s.sessions.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := apply(f); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Review validates the draft and quotes it. Validation failures never reach the network.
func (s *FunnelService) Review(ctx context.Context, flowID string) (pricing.Quote, error) {
	f, err := s.sessions.Get(ctx, flowID)
	if err != nil {
		return pricing.Quote{}, err
	}

	if err := f.MarkReady(); err != nil {
		if domain.IsValidation(err) {
			if saveErr := s.sessions.Save(ctx, f); saveErr != nil {
				return pricing.Quote{}, saveErr
			}
		}
		return pricing.Quote{}, err
	}

	quote, err := f.Quote()
	if err != nil {
		return pricing.Quote{}, err
	}
	if err := s.sessions.Save(ctx, f); err != nil {
		return pricing.Quote{}, err
	}

	metrics.IncFlowTransition(string(f.State))
	s.publish(events.EventFlowReady, f, func(p *events.FlowEventPayload) {
		p.Amount = quote.Total
		p.Nights = quote.Nights
	})
	return quote, nil
}

// Submit creates the booking. On failure the flow returns to ready_to_submit so the
// user can retry; a retry may create a duplicate booking server-side. On success the
// draft is discarded.
func (s *FunnelService) Submit(ctx context.Context, flowID string) (*models.Booking, error) {
	f, err := s.sessions.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := f.BeginSubmit(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, err
	}
	metrics.IncFlowTransition(string(f.State))

	logger := s.logger.With().Str("flow_id", f.ID).Str("hotel_id", f.Draft.HotelID).Logger()

	booking, err := s.bookings.CreateBooking(ctx, f.Draft)
	if err == nil && (booking == nil || booking.ID == "") {
		err = errors.New("create booking: response carried no booking id")
	}
	if err != nil {
		logger.Error().Err(err).Msg("Booking submission failed")
		if failErr := f.Fail(); failErr == nil {
			metrics.IncFlowTransition(string(f.State))
			if saveErr := s.sessions.Save(context.WithoutCancel(ctx), f); saveErr != nil {
				logger.Error().Err(saveErr).Msg("failed to restore flow after submission error")
			}
		}
		s.publish(events.EventBookingSubmitFailed, f, func(p *events.FlowEventPayload) {
			p.Error = err.Error()
		})
		return nil, err
	}

	if err := f.Complete(booking.ID); err != nil {
		return nil, err
	}
	metrics.IncFlowTransition(string(f.State))
	if err := s.sessions.End(ctx, f.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to discard submitted draft")
	}

	logger.Info().Str("booking_id", booking.ID).Int64("total", booking.TotalAmount).Msg("Booking created")
	s.publish(events.EventBookingSubmitted, f, func(p *events.FlowEventPayload) {
		p.BookingID = booking.ID
		p.Amount = booking.TotalAmount
	})
	return booking, nil
}

// Pay hands a created booking to the payment handoff.
func (s *FunnelService) Pay(ctx context.Context, booking *models.Booking, manual <-chan struct{}) (*payment.Outcome, error) {
	if booking == nil || booking.ID == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}

	payload := events.FlowEventPayload{
		BookingID: booking.ID,
		HotelID:   booking.HotelID,
		RoomType:  booking.RoomType,
		Amount:    booking.TotalAmount,
	}

	out, err := s.payer.Pay(ctx, booking.ID, booking.TotalAmount, manual)
	if err != nil {
		payload.Error = err.Error()
		s.emit(events.EventPaymentFailed, payload)
		return nil, err
	}
	s.emit(events.EventPaymentSucceeded, payload)
	return out, nil
}

// Confirmation reads the persisted booking back from the server.
func (s *FunnelService) Confirmation(ctx context.Context, bookingID string) (*models.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}
	return s.bookings.GetBooking(ctx, bookingID)
}

func (s *FunnelService) MyBookings(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListMyBookings(ctx)
}

// CancelBooking asks the server to cancel. Whether it may is the server's decision.
func (s *FunnelService) CancelBooking(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}
	b, err := s.bookings.CancelBooking(ctx, bookingID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	s.emit(events.EventBookingCancelled, events.FlowEventPayload{BookingID: b.ID, HotelID: b.HotelID})
	return b, nil
}

// Abandon clears the flow.
func (s *FunnelService) Abandon(ctx context.Context, flowID string) error {
	if err := s.sessions.End(ctx, flowID); err != nil {
		return err
	}
	s.emit(events.EventFlowAbandoned, events.FlowEventPayload{FlowID: flowID})
	return nil
}

func (s *FunnelService) publish(eventType string, f *flow.Flow, fill func(*events.FlowEventPayload)) {
	payload := events.FlowEventPayload{
		FlowID:   f.ID,
		HotelID:  f.Draft.HotelID,
		RoomType: f.Draft.RoomType,
		State:    string(f.State),
	}
	if fill != nil {
		fill(&payload)
	}
	s.emit(eventType, payload)
}

func (s *FunnelService) emit(eventType string, payload events.FlowEventPayload) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
