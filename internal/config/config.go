package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Loan API
	Upstream UpstreamConfig

	// Business rules
	Policy PolicyConfig

	// Collection endpoint rate limiting, per staff member
	CollectRatePerMinute int
	CollectBurst         int

	// Collection journal housekeeping
	Journal JournalConfig
}

// UpstreamConfig holds the loan API connection settings
type UpstreamConfig struct {
	BaseURL  string
	Timeout  time.Duration
	APIToken string // Optional bearer token
}

// PolicyConfig holds the product and penalty rules
type PolicyConfig struct {
	PenaltyDailyRate     decimal.Decimal
	PublicCalculatorRate decimal.Decimal
	FileChargeRate       decimal.Decimal
	Location             *time.Location
	AccountCacheTTL      time.Duration
}

// JournalConfig holds the journal worker settings
type JournalConfig struct {
	SweepInterval time.Duration
	StaleAfter    time.Duration
	Retention     time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:           getEnv("ENV", "development"),
		Upstream: UpstreamConfig{
			BaseURL:  strings.TrimRight(getEnv("UPSTREAM_BASE_URL", ""), "/"),
			Timeout:  p.duration("UPSTREAM_TIMEOUT", "30s"),
			APIToken: getEnv("UPSTREAM_API_TOKEN", ""),
		},
		Policy: PolicyConfig{
			PenaltyDailyRate:     p.decimal("PENALTY_DAILY_RATE", "0.03"),
			PublicCalculatorRate: p.decimal("PUBLIC_CALCULATOR_RATE", "3"),
			FileChargeRate:       p.decimal("FILE_CHARGE_RATE", "0.05"),
			Location:             p.location("BUSINESS_TIMEZONE", "Asia/Kolkata"),
			AccountCacheTTL:      p.duration("ACCOUNT_CACHE_TTL", "30s"),
		},
		CollectRatePerMinute: p.integer("COLLECT_RATE_PER_MINUTE", "30"),
		CollectBurst:         p.integer("COLLECT_BURST", "5"),
		Journal: JournalConfig{
			SweepInterval: p.duration("JOURNAL_SWEEP_INTERVAL", "5m"),
			StaleAfter:    p.duration("JOURNAL_STALE_AFTER", "10m"),
			Retention:     p.duration("JOURNAL_RETENTION", "2160h"),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an http(s) URL")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Policy.PenaltyDailyRate.IsNegative() {
		return fmt.Errorf("PENALTY_DAILY_RATE must not be negative")
	}
	if c.Policy.PublicCalculatorRate.IsNegative() {
		return fmt.Errorf("PUBLIC_CALCULATOR_RATE must not be negative")
	}
	if c.Policy.FileChargeRate.IsNegative() || c.Policy.FileChargeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("FILE_CHARGE_RATE must be in [0, 1)")
	}
	if c.CollectRatePerMinute <= 0 || c.CollectBurst <= 0 {
		return fmt.Errorf("COLLECT_RATE_PER_MINUTE and COLLECT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parser collects the first typed-parse error so Load can report it once
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) duration(key, def string) time.Duration {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
	}
	return d
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	raw := getEnv(key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key, raw, err)
	}
	return d
}

func (p *parser) integer(key, def string) int {
	raw := getEnv(key, def)
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
	}
	return n
}

func (p *parser) location(key, def string) *time.Location {
	raw := getEnv(key, def)
	loc, err := time.LoadLocation(raw)
	if err != nil {
		p.fail(key, raw, err)
		return time.UTC
	}
	return loc
}
