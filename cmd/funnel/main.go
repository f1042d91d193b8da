package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staybook/internal/api"
	"staybook/internal/auth"
	"staybook/internal/config"
	"staybook/internal/domain"
	"staybook/internal/events"
	"staybook/internal/flow"
	"staybook/internal/logging"
	"staybook/internal/metrics"
	"staybook/internal/models"
	"staybook/internal/payment"
	"staybook/internal/repository"
	"staybook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || isHelp(args[0]) {
		usage(os.Stdout)
		return nil
	}

	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	a := newApp(cfg, &logger, redisClient, os.Stdout, os.Stdin)
	defer a.close()

	return a.dispatch(ctx, args)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "funnel-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Debug().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// app holds everything one CLI invocation needs.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	out    io.Writer
	in     io.Reader

	client   *api.Client
	auth     *auth.AppContext
	nav      domain.Navigator
	funnel   *service.FunnelService
	handoff  *payment.Handoff
	redirect *payment.RedirectProvider
	started  bool
}

func newApp(cfg *config.Config, logger *zerolog.Logger, redisClient *redis.Client, out io.Writer, in io.Reader) *app {
	a := &app{cfg: cfg, logger: logger, out: out, in: in}
	a.nav = &cliNavigator{app: a}

	var (
		tokens domain.TokenStore
		flows  flow.Repository
	)
	memoryFlows := repository.NewMemoryFlowRepository(cfg.Session.FlowTTL)
	if redisClient != nil {
		tokens = repository.NewRedisTokenStore(redisClient, cfg.Session.Profile)
		flows = repository.NewFailoverFlowRepository(
			repository.NewRedisFlowRepository(redisClient, cfg.Session.FlowTTL),
			memoryFlows,
			logging.Component(logger, "flow-store"),
		)
	} else {
		tokens = repository.NewFileTokenStore(cfg.Session.TokenFile)
		flows = memoryFlows
	}

	a.client = api.NewClient(cfg.API, tokens, logging.Component(logger, "api"))
	if redisClient != nil {
		a.client.UseRedisCache(redisClient, cfg.API.CacheTTL)
	}
	a.auth = auth.NewAppContext(tokens, a.client, logging.Component(logger, "auth"))

	bus := events.NewEventBus()
	eventLogger := logging.Component(logger, "events")
	bus.Subscribe(events.AllEvents, func(e *events.Event) error {
		eventLogger.Debug().Str("event", e.Type).RawJSON("payload", e.Payload).Msg("funnel event")
		return nil
	})

	var provider domain.PaymentProvider
	switch cfg.Payment.Provider {
	case config.PaymentProviderRedirect:
		a.redirect = payment.NewRedirectProvider(cfg.Payment.ReturnAddr, logging.Component(logger, "payment-return"))
		a.redirect.OnPending = func(intent *models.PaymentIntent, returnURL string) {
			fmt.Fprintf(a.out, "Complete the payment in the checkout page, return URL: %s\nWaiting for the provider (intent %s)...\n", returnURL, intent.ID)
		}
		provider = a.redirect
	default:
		stripeProvider := payment.NewStripeProvider(cfg.Payment, logging.Component(logger, "stripe"))
		stripeProvider.OnPending = func(intent *models.PaymentIntent) {
			fmt.Fprintf(a.out, "Complete the payment in the checkout page (intent %s).\nWaiting for confirmation...\n", intent.ID)
		}
		provider = stripeProvider
	}

	a.handoff = payment.NewHandoff(a.client, provider, a.nav, cfg.Payment.CountdownSeconds, logging.Component(logger, "payment"))
	a.handoff.OnTick = func(remaining int) {
		if remaining > 0 {
			fmt.Fprintf(a.out, "Redirecting to your bookings in %d... (press Enter to go now)\n", remaining)
		}
	}

	sessions := service.NewSessionService(flows, logging.Component(logger, "sessions"))
	a.funnel = service.NewFunnelService(sessions, a.client, a.client, a.handoff, bus, logging.Component(logger, "funnel"))
	return a
}

// startProvider checks the payment settings and binds the return listener on first use.
func (a *app) startProvider() error {
	if err := a.cfg.Payment.Validate(); err != nil {
		return err
	}
	if a.redirect == nil || a.started {
		return nil
	}
	if err := a.redirect.Start(); err != nil {
		return err
	}
	a.started = true
	return nil
}

func (a *app) close() {
	if a.redirect == nil || !a.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = a.redirect.Shutdown(ctx)
}
