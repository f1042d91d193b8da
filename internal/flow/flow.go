// Package flow holds the booking draft state machine: selecting, ready to submit,
// submitting, submitted. A submitted flow never moves again.
package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/models"
	"staybook/internal/pricing"
)

type State string

const (
	StateSelecting     State = "selecting"
	StateReadyToSubmit State = "ready_to_submit"
	StateSubmitting    State = "submitting"
	StateSubmitted     State = "submitted"
)

var (
	ErrNotReady       = errors.New("booking draft is not ready to submit")
	ErrSubmitInFlight = errors.New("booking submission already in flight")
	ErrFlowSubmitted  = errors.New("booking flow already submitted")
)

// Repository stores flows keyed by id. GetFlow returns (nil, nil) for a missing or expired flow.
type Repository interface {
	GetFlow(ctx context.Context, flowID string) (*Flow, error)
	SaveFlow(ctx context.Context, f *Flow) error
	DeleteFlow(ctx context.Context, flowID string) error
}

type Flow struct {
	ID        string              `json:"id"`
	State     State               `json:"state"`
	Draft     models.BookingDraft `json:"draft"`
	BookingID string              `json:"booking_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	clock func() time.Time
}

// New starts a flow in selecting. Dates are truncated to whole days and guest
// fields trimmed. now stamps CreatedAt and UpdatedAt.
func New(id string, draft models.BookingDraft, now time.Time) *Flow {
	draft.CheckIn = pricing.Day(draft.CheckIn)
	draft.CheckOut = pricing.Day(draft.CheckOut)
	draft.Guest = trimGuest(draft.Guest)
	return &Flow{
		ID:        id,
		State:     StateSelecting,
		Draft:     draft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetClock sets the time source for UpdatedAt. A flow loaded from a repository
// has none and falls back to time.Now.
func (f *Flow) SetClock(now func() time.Time) {
	f.clock = now
}

// SetRoom records the chosen room and moves the flow back to selecting.
func (f *Flow) SetRoom(hotelID, roomType string, basePrice int64) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.Draft.HotelID = strings.TrimSpace(hotelID)
	f.Draft.RoomType = strings.TrimSpace(roomType)
	f.Draft.BasePrice = basePrice
	f.reselect()
	return nil
}

// SetDates truncates both dates to whole days. Ordering is checked by MarkReady.
func (f *Flow) SetDates(checkIn, checkOut time.Time) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.Draft.CheckIn = pricing.Day(checkIn)
	f.Draft.CheckOut = pricing.Day(checkOut)
	f.reselect()
	return nil
}

func (f *Flow) SetGuestCount(n int) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.Draft.GuestCount = n
	f.reselect()
	return nil
}

func (f *Flow) SetGuestDetails(g models.GuestDetails) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.Draft.Guest = trimGuest(g)
	f.reselect()
	return nil
}

// MarkReady moves selecting -> ready_to_submit when the draft validates.
// On failure the flow stays in selecting and the error lists every offending field.
func (f *Flow) MarkReady() error {
	if err := f.editable(); err != nil {
		return err
	}
	if err := Validate(f.Draft); err != nil {
		f.reselect()
		return err
	}
	f.State = StateReadyToSubmit
	f.touch()
	return nil
}

// BeginSubmit guards against double submission: it succeeds only from
// ready_to_submit and reports ErrSubmitInFlight while a submit is outstanding.
func (f *Flow) BeginSubmit() error {
	switch f.State {
	case StateReadyToSubmit:
		f.State = StateSubmitting
		f.touch()
		return nil
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrFlowSubmitted
	default:
		return ErrNotReady
	}
}

// Fail reverts a failed submission so the user can retry.
func (f *Flow) Fail() error {
	if f.State != StateSubmitting {
		return ErrNotReady
	}
	f.State = StateReadyToSubmit
	f.touch()
	return nil
}

// Complete records the created booking. No transition leaves submitted.
func (f *Flow) Complete(bookingID string) error {
	if f.State != StateSubmitting {
		return ErrNotReady
	}
	f.State = StateSubmitted
	f.BookingID = bookingID
	f.touch()
	return nil
}

// Quote prices the current draft.
func (f *Flow) Quote() (pricing.Quote, error) {
	return pricing.QuoteFor(f.Draft.BasePrice, f.Draft.CheckIn, f.Draft.CheckOut)
}

func (f *Flow) editable() error {
	switch f.State {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrFlowSubmitted
	}
	return nil
}

func (f *Flow) reselect() {
	f.State = StateSelecting
	f.touch()
}

func (f *Flow) touch() {
	now := time.Now
	if f.clock != nil {
		now = f.clock
	}
	f.UpdatedAt = now().UTC()
}

func trimGuest(g models.GuestDetails) models.GuestDetails {
	return models.GuestDetails{
		FirstName: strings.TrimSpace(g.FirstName),
		LastName:  strings.TrimSpace(g.LastName),
		Email:     strings.TrimSpace(g.Email),
		Phone:     strings.TrimSpace(g.Phone),
	}
}
