package payment

import (
	"context"
	"fmt"
	"time"

	"staybook/internal/config"
	"staybook/internal/domain"
	"staybook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider follows an intent confirmed in the Stripe hosted page or widget.
// It only holds the publishable key, so it can read the intent but never charge it.
type StripeProvider struct {
	sc       *client.API
	interval time.Duration
	logger   *zerolog.Logger

	// OnPending is called once before polling starts, e.g. to show where to pay.
	OnPending func(intent *models.PaymentIntent)
}

func NewStripeProvider(cfg config.PaymentConfig, logger *zerolog.Logger) *StripeProvider {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     stripeLogger{logger: logger},
	}
	if cfg.StripeAPIURL != "" {
		backendCfg.URL = stripe.String(cfg.StripeAPIURL)
	}

	sc := &client.API{}
	sc.Init(cfg.StripePublishableKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
	})

	return &StripeProvider{sc: sc, interval: 2 * time.Second, logger: logger}
}

// WithPollInterval overrides how often the intent is re-read.
func (p *StripeProvider) WithPollInterval(d time.Duration) *StripeProvider {
	if d > 0 {
		p.interval = d
	}
	return p
}

func (p *StripeProvider) Await(ctx context.Context, intent *models.PaymentIntent) (*domain.PaymentResult, error) {
	if intent == nil || intent.ID == "" || intent.ClientSecret == "" {
		return nil, fmt.Errorf("payment intent id and client secret are required")
	}
	if p.OnPending != nil {
		p.OnPending(intent)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		pi, err := p.retrieve(ctx, intent)
		if err != nil {
			return nil, err
		}
		if result, done := resultFromIntent(pi); done {
			return result, nil
		}
		p.logger.Debug().Str("intent_id", pi.ID).Str("status", string(pi.Status)).Msg("payment still pending")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *StripeProvider) retrieve(ctx context.Context, intent *models.PaymentIntent) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{ClientSecret: stripe.String(intent.ClientSecret)}
	params.Context = ctx
	pi, err := p.sc.PaymentIntents.Get(intent.ID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", intent.ID, err)
	}
	return pi, nil
}

// resultFromIntent reports whether the intent reached a final state for this attempt.
func resultFromIntent(pi *stripe.PaymentIntent) (*domain.PaymentResult, bool) {
	result := &domain.PaymentResult{IntentID: pi.ID, Status: string(pi.Status)}
	if pi.LastPaymentError != nil {
		result.Message = pi.LastPaymentError.Msg
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return result, true
	case stripe.PaymentIntentStatusCanceled:
		if result.Message == "" {
			result.Message = "payment was canceled"
		}
		return result, true
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// a declined attempt puts the intent back here with last_payment_error set
		return result, pi.LastPaymentError != nil
	default:
		return result, false
	}
}

// stripeLogger routes stripe-go logging into zerolog.
type stripeLogger struct {
	logger *zerolog.Logger
}

func (l stripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l stripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l stripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Str("component", "stripe").Msgf(format, v...)
}

func (l stripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Str("component", "stripe").Msgf(format, v...)
}
