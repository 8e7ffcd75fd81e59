package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	// Currency is the fixed settlement currency sent to the payment gateway,
	// independent of the storefront's display currency.
	Currency string `default:"USD" usage:"Settlement currency for the payment gateway"`

	PayPal    PayPalConfig
	Reconcile ReconcileConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// PayPalConfig holds the payment gateway credentials and redirect URLs.
type PayPalConfig struct {
	BaseURL      string        `default:"https://api-m.sandbox.paypal.com" usage:"PayPal REST API base URL" flag:"paypal-base-url"`
	ClientID     string        `usage:"PayPal client id (CHECKOUT_PAYPAL_CLIENT_ID)" flag:"paypal-client-id"`
	ClientSecret string        `usage:"PayPal client secret (CHECKOUT_PAYPAL_CLIENT_SECRET)" flag:"paypal-client-secret"`
	ReturnURL    string        `usage:"Redirect after the customer approves payment" flag:"paypal-return-url"`
	CancelURL    string        `usage:"Redirect after the customer cancels payment" flag:"paypal-cancel-url"`
	Description  string        `default:"Rabbit Store Purchase" usage:"Transaction description shown at the gateway"`
	Timeout      time.Duration `default:"15s" usage:"Gateway request timeout" flag:"paypal-timeout"`
}

// ReconcileConfig controls the oversell sweeper.
type ReconcileConfig struct {
	Interval time.Duration `default:"1m" usage:"How often to scan for unreconciled oversells" flag:"reconcile-interval"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the CHECKOUT_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
