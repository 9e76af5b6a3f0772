package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete checkout server configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"Checkout server listen address"`
	Collaborators CollaboratorConfig
	Orders        OrderConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// CollaboratorConfig holds the base URLs of the services the checkout flow
// talks to.
type CollaboratorConfig struct {
	CartURL     string `usage:"Cart service base URL" flag:"cart-url"`
	CatalogURL  string `usage:"Product catalog service base URL" flag:"catalog-url"`
	CurrencyURL string `usage:"Currency conversion service base URL" flag:"currency-url"`
	ShippingURL string `usage:"Shipping service base URL" flag:"shipping-url"`
	PaymentURL  string `usage:"Payment service base URL" flag:"payment-url"`
	EmailURL    string `usage:"Email service base URL" flag:"email-url"`
}

// OrderConfig controls order placement behavior.
type OrderConfig struct {
	CallTimeout        time.Duration `default:"5s" usage:"Per-call timeout for collaborator requests" flag:"call-timeout"`
	PricingConcurrency int           `default:"4"  usage:"Concurrent catalog lookups while pricing a cart" flag:"pricing-concurrency"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
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

	if err := cfg.Collaborators.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c CollaboratorConfig) validate() error {
	required := []struct {
		name string
		url  string
	}{
		{"CHECKOUT_COLLABORATORS_CART_URL", c.CartURL},
		{"CHECKOUT_COLLABORATORS_CATALOG_URL", c.CatalogURL},
		{"CHECKOUT_COLLABORATORS_CURRENCY_URL", c.CurrencyURL},
		{"CHECKOUT_COLLABORATORS_SHIPPING_URL", c.ShippingURL},
		{"CHECKOUT_COLLABORATORS_PAYMENT_URL", c.PaymentURL},
		{"CHECKOUT_COLLABORATORS_EMAIL_URL", c.EmailURL},
	}
	for _, r := range required {
		if r.url == "" {
			return errors.Errorf("collaborator URL is required: set %s", r.name)
		}
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like PORT to the CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
