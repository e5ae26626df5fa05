package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// =============================================================================
// Engine config types
// =============================================================================

// EngineConfig tunes the reservation and billing engine.
type EngineConfig struct {
	DefaultFee      FeeDefaults
	BillingLocation *time.Location // weekends are judged in this zone
	TxRetry         RetryConfig
	Breaker         BreakerConfig
}

// FeeDefaults is the rate schedule used when an area has no active fee
// configuration.
type FeeDefaults struct {
	HourlyRate        decimal.Decimal
	MinHours          decimal.Decimal
	OvertimeRate      decimal.Decimal
	HolidayMultiplier decimal.Decimal
	WeekendMultiplier decimal.Decimal
}

// RetryConfig bounds the retries of a transaction that failed with a
// serialization error.  Backoff is the first delay; it doubles per attempt.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// BreakerConfig configures the circuit breaker around the message broker.
type BreakerConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type rawEngineConfig struct {
	DefaultFee struct {
		HourlyRate        string `mapstructure:"hourly_rate"`
		MinHours          string `mapstructure:"min_hours"`
		OvertimeRate      string `mapstructure:"overtime_rate"`
		HolidayMultiplier string `mapstructure:"holiday_multiplier"`
		WeekendMultiplier string `mapstructure:"weekend_multiplier"`
	} `mapstructure:"default_fee"`
	BillingTimezone string        `mapstructure:"billing_timezone"`
	TxRetry         RetryConfig   `mapstructure:"tx_retry"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

// DefaultEngineConfig returns the built-in engine settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultFee: FeeDefaults{
			HourlyRate:        decimal.NewFromInt(100),
			MinHours:          decimal.NewFromInt(1),
			OvertimeRate:      decimal.Zero,
			HolidayMultiplier: decimal.NewFromInt(1),
			WeekendMultiplier: decimal.NewFromInt(1),
		},
		BillingLocation: time.UTC,
		TxRetry:         RetryConfig{MaxAttempts: 3, Backoff: 20 * time.Millisecond},
		Breaker:         BreakerConfig{Threshold: 0.5, Timeout: 30 * time.Second},
	}
}

// =============================================================================
// Loading
// =============================================================================

// LoadEngineConfig reads the engine settings from an optional YAML file and
// VENUE_* environment variables (VENUE_DEFAULT_FEE_HOURLY_RATE,
// VENUE_TX_RETRY_MAX_ATTEMPTS, ...).  A missing file falls back to the
// defaults; a malformed one is an error.
func LoadEngineConfig(configPath string) (EngineConfig, error) {
	v := viper.New()

	v.SetDefault("default_fee.hourly_rate", "100")
	v.SetDefault("default_fee.min_hours", "1")
	v.SetDefault("default_fee.overtime_rate", "0")
	v.SetDefault("default_fee.holiday_multiplier", "1")
	v.SetDefault("default_fee.weekend_multiplier", "1")
	v.SetDefault("billing_timezone", "UTC")
	v.SetDefault("tx_retry.max_attempts", 3)
	v.SetDefault("tx_retry.backoff", "20ms")
	v.SetDefault("breaker.threshold", 0.5)
	v.SetDefault("breaker.timeout", "30s")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EngineConfig{}, fmt.Errorf("failed to read engine config: %w", err)
		}
	}

	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var raw rawEngineConfig
	if err := v.Unmarshal(&raw); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to unmarshal engine config: %w", err)
	}
	return raw.resolve()
}

func (raw rawEngineConfig) resolve() (EngineConfig, error) {
	var cfg EngineConfig
	fields := []struct {
		name string
		in   string
		out  *decimal.Decimal
	}{
		{"hourly_rate", raw.DefaultFee.HourlyRate, &cfg.DefaultFee.HourlyRate},
		{"min_hours", raw.DefaultFee.MinHours, &cfg.DefaultFee.MinHours},
		{"overtime_rate", raw.DefaultFee.OvertimeRate, &cfg.DefaultFee.OvertimeRate},
		{"holiday_multiplier", raw.DefaultFee.HolidayMultiplier, &cfg.DefaultFee.HolidayMultiplier},
		{"weekend_multiplier", raw.DefaultFee.WeekendMultiplier, &cfg.DefaultFee.WeekendMultiplier},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.in)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("default_fee.%s: %w", f.name, err)
		}
		if d.IsNegative() {
			return EngineConfig{}, fmt.Errorf("default_fee.%s must not be negative", f.name)
		}
		*f.out = d
	}

	loc, err := time.LoadLocation(raw.BillingTimezone)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("billing_timezone: %w", err)
	}
	cfg.BillingLocation = loc

	cfg.TxRetry = raw.TxRetry
	if cfg.TxRetry.MaxAttempts < 1 {
		cfg.TxRetry.MaxAttempts = 1
	}
	if cfg.TxRetry.Backoff < 0 {
		cfg.TxRetry.Backoff = 0
	}
	cfg.Breaker = raw.Breaker
	if cfg.Breaker.Threshold <= 0 || cfg.Breaker.Threshold > 1 {
		return EngineConfig{}, fmt.Errorf("breaker.threshold must be in (0, 1]")
	}
	return cfg, nil
}
