package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"staybook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Payment    PaymentConfig    `yaml:"payment"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	BaseURL   string             `yaml:"base_url"`
	Timeout   time.Duration      `yaml:"timeout"`
	CacheTTL  time.Duration      `yaml:"cache_ttl"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	// FlowTTL abandons a booking flow that was not touched for this long
	FlowTTL time.Duration `yaml:"flow_ttl"`
	Profile string        `yaml:"profile"`
	// TokenFile stores the bearer token when Redis is not configured
	TokenFile string `yaml:"token_file"`
}

type PaymentConfig struct {
	Provider             string `yaml:"provider"` // stripe, redirect
	StripePublishableKey string `yaml:"stripe_publishable_key"`
	StripeAPIURL         string `yaml:"stripe_api_url"`
	ReturnAddr           string `yaml:"return_addr"`
	CountdownSeconds     int    `yaml:"countdown_seconds"`
	Currency             string `yaml:"currency"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

const (
	PaymentProviderStripe   = "stripe"
	PaymentProviderRedirect = "redirect"
)

func Load(configPath string) (*Config, error) {
	// .env is optional for a client install
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base_url %q is not an absolute URL", c.API.BaseURL)
	}

	switch c.Payment.Provider {
	case PaymentProviderStripe, PaymentProviderRedirect:
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	if c.Payment.CountdownSeconds < 0 {
		return errors.New("payment countdown_seconds must not be negative")
	}
	return nil
}

// Validate checks the provider settings. Only commands that take a payment call it,
// so browsing and login work without payment keys.
func (c PaymentConfig) Validate() error {
	switch c.Provider {
	case PaymentProviderStripe:
		if c.StripePublishableKey == "" {
			return errors.New("payment stripe_publishable_key is required for the stripe provider")
		}
	case PaymentProviderRedirect:
		if c.ReturnAddr == "" {
			return errors.New("payment return_addr is required for the redirect provider")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Provider)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.CacheTTL == 0 {
		c.API.CacheTTL = models.DefaultCacheTTL * time.Second
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.Session.FlowTTL == 0 {
		c.Session.FlowTTL = models.DefaultFlowTTL * time.Second
	}
	if c.Session.Profile == "" {
		c.Session.Profile = "default"
	}
	if c.Session.TokenFile == "" {
		c.Session.TokenFile = defaultTokenFile(c.Session.Profile)
	}
	if c.Payment.Provider == "" {
		c.Payment.Provider = PaymentProviderStripe
	}
	if c.Payment.CountdownSeconds == 0 {
		c.Payment.CountdownSeconds = models.DefaultCountdownSeconds
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = models.DefaultCurrency
	}
	if c.Payment.Provider == PaymentProviderRedirect && c.Payment.ReturnAddr == "" {
		c.Payment.ReturnAddr = "127.0.0.1:8787"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.App.Name == "" {
		c.App.Name = "staybook"
	}
}

func defaultTokenFile(profile string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".staybook-" + profile + ".token"
	}
	return filepath.Join(dir, "staybook", profile+".token")
}
