package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"staybook/internal/domain"
	"staybook/internal/models"

	"github.com/rs/zerolog"
)

const (
	returnPath = "/payment/return"

	// unclaimed redirects are kept at most this long, and at most this many at once
	earlyResultTTL  = 10 * time.Minute
	maxEarlyResults = 16
)

type earlyResult struct {
	result     domain.PaymentResult
	receivedAt time.Time
}

// RedirectProvider listens for the provider's return_url redirect after a hosted
// checkout and hands the reported status to the matching Await call.
type RedirectProvider struct {
	addr   string
	logger *zerolog.Logger
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	waiters  map[string]chan domain.PaymentResult
	early    map[string]earlyResult
	now      func() time.Time

	// OnPending is called with the intent and the return URL the provider must redirect to.
	OnPending func(intent *models.PaymentIntent, returnURL string)
}

func NewRedirectProvider(addr string, logger *zerolog.Logger) *RedirectProvider {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	p := &RedirectProvider{
		addr:    addr,
		logger:  logger,
		waiters: make(map[string]chan domain.PaymentResult),
		early:   make(map[string]earlyResult),
		now:     time.Now,
	}
	p.server = &http.Server{
		Handler:           p.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return p
}

func (p *RedirectProvider) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(returnPath, p.handleReturn)
	return loggingMiddleware(p.logger, mux)
}

// Start binds the listener and serves in the background.
func (p *RedirectProvider) Start() error {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.addr, err)
	}
	p.mu.Lock()
	p.listener = ln
	p.mu.Unlock()

	p.logger.Info().Str("addr", ln.Addr().String()).Msg("Payment return listener started")
	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error().Err(err).Msg("Payment return listener failed")
		}
	}()
	return nil
}

func (p *RedirectProvider) Shutdown(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}

// ReturnURL is the URL to pass to the provider as return_url.
func (p *RedirectProvider) ReturnURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	addr := p.addr
	if p.listener != nil {
		addr = p.listener.Addr().String()
	}
	return "http://" + addr + returnPath
}

func (p *RedirectProvider) Await(ctx context.Context, intent *models.PaymentIntent) (*domain.PaymentResult, error) {
	if intent == nil || intent.ID == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}

	p.mu.Lock()
	p.pruneEarly()
	if early, ok := p.early[intent.ID]; ok {
		delete(p.early, intent.ID)
		p.mu.Unlock()
		return &early.result, nil
	}
	ch := make(chan domain.PaymentResult, 1)
	p.waiters[intent.ID] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.waiters, intent.ID)
		p.mu.Unlock()
	}()

	if p.OnPending != nil {
		p.OnPending(intent, p.ReturnURL())
	}

	select {
	case res := <-ch:
		return &res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *RedirectProvider) handleReturn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	intentID := strings.TrimSpace(q.Get("payment_intent"))
	if intentID == "" {
		writeError(w, http.StatusBadRequest, "payment_intent is required")
		return
	}
	status := strings.TrimSpace(q.Get("redirect_status"))
	if status == "" {
		writeError(w, http.StatusBadRequest, "redirect_status is required")
		return
	}

	accepted := p.deliver(domain.PaymentResult{
		IntentID: intentID,
		Status:   status,
		Message:  strings.TrimSpace(q.Get("message")),
	})
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "too many unclaimed payment results")
		return
	}

	msg := "Payment received, you can return to the terminal."
	if status != StatusSucceeded {
		msg = "Payment was not completed, return to the terminal to try again."
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "message": msg})
}

// deliver hands res to its waiter or buffers it. It reports false when the buffer is full.
func (p *RedirectProvider) deliver(res domain.PaymentResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.waiters[res.IntentID]; ok {
		select {
		case ch <- res:
		default:
		}
		return true
	}

	// redirect can beat Await when the user pays quickly
	p.pruneEarly()
	if _, ok := p.early[res.IntentID]; !ok && len(p.early) >= maxEarlyResults {
		p.logger.Warn().Str("intent_id", res.IntentID).Msg("Dropping unclaimed payment result")
		return false
	}
	p.early[res.IntentID] = earlyResult{result: res, receivedAt: p.now()}
	return true
}

// pruneEarly drops stale buffered results. Callers hold p.mu.
func (p *RedirectProvider) pruneEarly() {
	cutoff := p.now().Add(-earlyResultTTL)
	for id, early := range p.early {
		if early.receivedAt.Before(cutoff) {
			delete(p.early, id)
		}
	}
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Msg("http")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
