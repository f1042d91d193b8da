package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectProvider_DeliversToWaiter(t *testing.T) {
	p := NewRedirectProvider("127.0.0.1:0", nil)
	ts := httptest.NewServer(p.Handler())
	t.Cleanup(ts.Close)

	p.OnPending = func(intent *models.PaymentIntent, returnURL string) {
		assert.Contains(t, returnURL, returnPath)
		go func() {
			resp, err := http.Get(ts.URL + returnPath + "?payment_intent=" + intent.ID + "&redirect_status=succeeded")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := p.Await(ctx, &models.PaymentIntent{ID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", res.IntentID)
	assert.Equal(t, StatusSucceeded, res.Status)
}

func TestRedirectProvider_EarlyRedirect(t *testing.T) {
	p := NewRedirectProvider("127.0.0.1:0", nil)
	ts := httptest.NewServer(p.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + returnPath + "?payment_intent=pi_2&redirect_status=failed&message=Card+declined")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res, err := p.Await(context.Background(), &models.PaymentIntent{ID: "pi_2"})
	require.NoError(t, err)
	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, "Card declined", res.Message)
}

func TestRedirectProvider_BadRequests(t *testing.T) {
	p := NewRedirectProvider("127.0.0.1:0", nil)
	h := p.Handler()

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing intent", http.MethodGet, returnPath + "?redirect_status=succeeded", http.StatusBadRequest},
		{"missing status", http.MethodGet, returnPath + "?payment_intent=pi_1", http.StatusBadRequest},
		{"wrong method", http.MethodPost, returnPath, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRedirectProvider_StartAndCancel(t *testing.T) {
	p := NewRedirectProvider("127.0.0.1:0", nil)
	require.NoError(t, p.Start())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.NotContains(t, p.ReturnURL(), ":0/")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Await(ctx, &models.PaymentIntent{ID: "pi_3"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	resp, err := http.Get(p.ReturnURL() + "?payment_intent=pi_4&redirect_status=succeeded")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRedirectProvider_UnclaimedResultsAreBounded(t *testing.T) {
	p := NewRedirectProvider("127.0.0.1:0", nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	h := p.Handler()

	get := func(intentID string) int {
		rec := httptest.NewRecorder()
		target := returnPath + "?payment_intent=" + intentID + "&redirect_status=succeeded"
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec.Code
	}

	for i := 0; i < maxEarlyResults; i++ {
		require.Equal(t, http.StatusOK, get(fmt.Sprintf("pi_unknown_%d", i)))
	}
	assert.Equal(t, http.StatusTooManyRequests, get("pi_one_more"))
	// a repeated redirect for a buffered intent replaces it
	assert.Equal(t, http.StatusOK, get("pi_unknown_0"))
	assert.Len(t, p.early, maxEarlyResults)

	now = now.Add(earlyResultTTL + time.Second)
	assert.Equal(t, http.StatusOK, get("pi_late"))
	assert.Len(t, p.early, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Await(ctx, &models.PaymentIntent{ID: "pi_unknown_1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := p.Await(context.Background(), &models.PaymentIntent{ID: "pi_late"})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
}
