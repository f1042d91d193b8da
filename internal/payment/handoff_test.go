package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain"
	"staybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPaymentAPI struct {
	mock.Mock
}

func (m *mockPaymentAPI) CreatePaymentIntent(ctx context.Context, bookingID string, amount int64) (*models.PaymentIntent, error) {
	args := m.Called(ctx, bookingID, amount)
	if v := args.Get(0); v != nil {
		return v.(*models.PaymentIntent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentAPI) ConfirmPayment(ctx context.Context, bookingID, intentID string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, intentID)
	if v := args.Get(0); v != nil {
		return v.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Await(ctx context.Context, intent *models.PaymentIntent) (*domain.PaymentResult, error) {
	args := m.Called(ctx, intent)
	if v := args.Get(0); v != nil {
		return v.(*domain.PaymentResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) Navigate(ctx context.Context, route string, params map[string]string) error {
	return m.Called(ctx, route, params).Error(0)
}

func TestHandoff_PaySucceeded(t *testing.T) {
	ctx := context.Background()
	intent := &models.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: 7500, BookingID: "B123"}

	payments := new(mockPaymentAPI)
	payments.On("CreatePaymentIntent", ctx, "B123", int64(7500)).Return(intent, nil).Once()
	payments.On("ConfirmPayment", ctx, "B123", "pi_1").
		Return(&models.Booking{ID: "B123", PaymentStatus: models.PaymentStatusPaid}, nil).Once()

	provider := new(mockProvider)
	provider.On("Await", ctx, intent).Return(&domain.PaymentResult{IntentID: "pi_1", Status: "succeeded"}, nil)

	nav := new(mockNavigator)
	nav.On("Navigate", ctx, models.RouteBookings, map[string]string{"booking_id": "B123"}).Return(nil).Once()

	var ticks []int
	h := NewHandoff(payments, provider, nav, 5, nil).WithTick(time.Millisecond)
	h.OnTick = func(remaining int) { ticks = append(ticks, remaining) }

	out, err := h.Pay(ctx, "B123", 7500, nil)
	require.NoError(t, err)
	assert.True(t, out.Navigated)
	assert.True(t, out.Booking.IsPaid())
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, ticks)

	payments.AssertExpectations(t)
	nav.AssertExpectations(t)
}

func TestHandoff_PayFailed(t *testing.T) {
	ctx := context.Background()
	intent := &models.PaymentIntent{ID: "pi_2", ClientSecret: "s"}

	payments := new(mockPaymentAPI)
	payments.On("CreatePaymentIntent", ctx, "B123", int64(7500)).Return(intent, nil)

	provider := new(mockProvider)
	provider.On("Await", ctx, intent).Return(&domain.PaymentResult{
		IntentID: "pi_2",
		Status:   "requires_payment_method",
		Message:  "Your card was declined.",
	}, nil)

	nav := new(mockNavigator)
	h := NewHandoff(payments, provider, nav, 5, nil).WithTick(time.Millisecond)
	h.OnTick = func(int) { t.Fatal("countdown must not start after a failed payment") }

	_, err := h.Pay(ctx, "B123", 7500, nil)
	require.Error(t, err)
	assert.True(t, domain.IsPayment(err))
	assert.Equal(t, "Your card was declined.", err.Error())

	payments.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
	nav.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNumberOfCalls(t, "CreatePaymentIntent", 1)
}

func TestHandoff_ManualNavigation(t *testing.T) {
	ctx := context.Background()
	intent := &models.PaymentIntent{ID: "pi_3", BookingID: "B9"}

	payments := new(mockPaymentAPI)
	payments.On("CreatePaymentIntent", ctx, "B9", int64(100)).Return(intent, nil)
	payments.On("ConfirmPayment", ctx, "B9", "pi_3").Return(&models.Booking{ID: "B9"}, nil)
	provider := new(mockProvider)
	provider.On("Await", ctx, intent).Return(&domain.PaymentResult{Status: "succeeded"}, nil)
	nav := new(mockNavigator)
	nav.On("Navigate", ctx, models.RouteBookings, mock.Anything).Return(nil).Once()

	manual := make(chan struct{}, 1)
	manual <- struct{}{}

	var ticks []int
	h := NewHandoff(payments, provider, nav, 5, nil).WithTick(time.Hour)
	h.OnTick = func(remaining int) { ticks = append(ticks, remaining) }

	out, err := h.Pay(ctx, "B9", 100, manual)
	require.NoError(t, err)
	assert.True(t, out.Navigated)
	assert.Equal(t, []int{5}, ticks)
	nav.AssertExpectations(t)
}

func TestHandoff_CancelStopsCountdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	intent := &models.PaymentIntent{ID: "pi_4"}

	payments := new(mockPaymentAPI)
	payments.On("CreatePaymentIntent", ctx, "B1", int64(100)).Return(intent, nil)
	payments.On("ConfirmPayment", ctx, "B1", "pi_4").Return(&models.Booking{ID: "B1"}, nil)
	provider := new(mockProvider)
	provider.On("Await", ctx, intent).Return(&domain.PaymentResult{IntentID: "pi_4", Status: "succeeded"}, nil)
	nav := new(mockNavigator)

	h := NewHandoff(payments, provider, nav, 5, nil).WithTick(time.Hour)
	h.OnTick = func(int) { cancel() }

	out, err := h.Pay(ctx, "B1", 100, nil)
	require.NoError(t, err)
	assert.False(t, out.Navigated)
	nav.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandoff_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Validation", func(t *testing.T) {
		h := NewHandoff(new(mockPaymentAPI), new(mockProvider), nil, 5, nil)
		_, err := h.Pay(ctx, " ", 100, nil)
		assert.True(t, domain.IsValidation(err))
		_, err = h.Pay(ctx, "B1", 0, nil)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("IntentError", func(t *testing.T) {
		payments := new(mockPaymentAPI)
		apiErr := &domain.APIError{Op: "create_payment_intent", Status: 500, Message: "boom"}
		payments.On("CreatePaymentIntent", ctx, "B1", int64(100)).Return(nil, apiErr)
		provider := new(mockProvider)

		h := NewHandoff(payments, provider, nil, 5, nil)
		_, err := h.Pay(ctx, "B1", 100, nil)
		var target *domain.APIError
		assert.ErrorAs(t, err, &target)
		provider.AssertNotCalled(t, "Await", mock.Anything, mock.Anything)
	})

	t.Run("ProviderError", func(t *testing.T) {
		payments := new(mockPaymentAPI)
		intent := &models.PaymentIntent{ID: "pi_5"}
		payments.On("CreatePaymentIntent", ctx, "B1", int64(100)).Return(intent, nil)
		provider := new(mockProvider)
		provider.On("Await", ctx, intent).Return(nil, errors.New("listener closed"))

		h := NewHandoff(payments, provider, nil, 5, nil)
		_, err := h.Pay(ctx, "B1", 100, nil)
		require.Error(t, err)
		assert.False(t, domain.IsPayment(err))
	})

	t.Run("ZeroCountdownNavigatesImmediately", func(t *testing.T) {
		payments := new(mockPaymentAPI)
		intent := &models.PaymentIntent{ID: "pi_6"}
		payments.On("CreatePaymentIntent", ctx, "B1", int64(100)).Return(intent, nil)
		payments.On("ConfirmPayment", ctx, "B1", "pi_6").Return(&models.Booking{ID: "B1"}, nil)
		provider := new(mockProvider)
		provider.On("Await", ctx, intent).Return(&domain.PaymentResult{Status: "succeeded"}, nil)
		nav := new(mockNavigator)
		nav.On("Navigate", ctx, models.RouteBookings, mock.Anything).Return(nil)

		var ticks []int
		h := NewHandoff(payments, provider, nav, 0, nil)
		h.OnTick = func(r int) { ticks = append(ticks, r) }

		out, err := h.Pay(ctx, "B1", 100, nil)
		require.NoError(t, err)
		assert.True(t, out.Navigated)
		assert.Equal(t, []int{0}, ticks)
	})
}
