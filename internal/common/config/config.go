package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Wizard        WizardConfig       `mapstructure:"wizard"`
	Pricing       PricingConfig      `mapstructure:"pricing"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	CustomerIndex string   `mapstructure:"customer_index"`
}

// BackendConfig points at the REST backend serving the catalog, coupon,
// plan-generation, and subscription-creation endpoints.
type BackendConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, for slow-moving catalogs
}

// WizardConfig holds the draft-persistence policy knobs.
type WizardConfig struct {
	DraftKeyPrefix string `mapstructure:"draft_key_prefix"`
	DraftTTLHours  int    `mapstructure:"draft_ttl_hours"`
	DebounceMillis int    `mapstructure:"debounce_millis"`
}

func (w WizardConfig) DraftTTL() time.Duration {
	return time.Duration(w.DraftTTLHours) * time.Hour
}

func (w WizardConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMillis) * time.Millisecond
}

// PricingConfig carries the default tax settings used when the backend
// settings endpoint is unreachable.
type PricingConfig struct {
	TaxActive              bool    `mapstructure:"tax_active"`
	TaxIncludedInPrice     bool    `mapstructure:"tax_included_in_price"`
	TaxPercent             float64 `mapstructure:"tax_percent"`
	RecomputeAfterDiscount bool    `mapstructure:"recompute_after_discount"`
}

// NotificationConfig holds settings for the post-submission confirmation.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
