package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/env"
)

const (
	defaultPagarmeAPIBaseURL  = "https://api.pagar.me/core/v5"
	defaultPagarmeLinkBaseURL = "https://payment-link-v3.pagar.me"
	defaultMetaGraphBaseURL   = "https://graph.facebook.com"
	defaultMetaAPIVersion     = "v18.0"
	defaultConversionEvents   = "order.paid,charge.paid,checkout.closed"
)

const (
	LinkStoreFile  = "file"
	LinkStoreRedis = "redis"
)

// Config is the typed view of the environment, resolved once at startup.
type Config struct {
	Host      string
	Port      string
	Namespace string
	DataDir   string

	LinkStore        string
	RateLimitStorage string

	PagarmeAPIKey      string
	PagarmeAPIBaseURL  string
	PagarmeLinkBaseURL string
	WebhookSecret      string
	ProviderTimeout    time.Duration

	// PrecreatedLinks holds raw operator values (id or URL) keyed by plan id.
	PrecreatedLinks map[string]string

	MetaPixelID       string
	MetaAccessToken   string
	MetaAPIVersion    string
	MetaGraphBaseURL  string
	MetaTestEventCode string

	ConversionEvents   []string
	ConversionCurrency string
	ShippingCarrier    string

	CORSOrigins     string
	MonitorUser     string
	MonitorPassword string
}

// Load reads configuration for the given plan ids from the environment.
func Load(planIDs []string) *Config {
	cfg := &Config{
		Host:               env.GetEnv("APP_HOST", "0.0.0.0"),
		Port:               env.GetEnv("APP_PORT", env.GetEnv("PORT", "4000")),
		Namespace:          env.GetEnv("APP_NAMESPACE", "sejamais2"),
		DataDir:            env.GetEnv("DATA_DIR", "./data"),
		LinkStore:          strings.ToLower(env.GetEnv("LINK_STORE", LinkStoreFile)),
		RateLimitStorage:   strings.ToLower(env.GetEnv("RATE_LIMIT_STORAGE", "memory")),
		PagarmeAPIKey:      strings.TrimSpace(env.GetEnv("PAGARME_API_KEY", "")),
		PagarmeAPIBaseURL:  strings.TrimRight(env.GetEnv("PAGARME_API_BASE_URL", defaultPagarmeAPIBaseURL), "/"),
		PagarmeLinkBaseURL: strings.TrimRight(env.GetEnv("PAGARME_LINK_BASE_URL", defaultPagarmeLinkBaseURL), "/"),
		WebhookSecret:      strings.TrimSpace(env.GetEnv("PAGARME_WEBHOOK_SECRET", "")),
		ProviderTimeout:    parseDuration(env.GetEnv("PROVIDER_TIMEOUT", "10s"), 10*time.Second),
		PrecreatedLinks:    make(map[string]string, len(planIDs)),
		MetaPixelID:        strings.TrimSpace(env.GetEnv("META_PIXEL_ID", "")),
		MetaAccessToken:    strings.TrimSpace(env.GetEnv("META_ACCESS_TOKEN", "")),
		MetaAPIVersion:     env.GetEnv("META_API_VERSION", defaultMetaAPIVersion),
		MetaGraphBaseURL:   strings.TrimRight(env.GetEnv("META_GRAPH_BASE_URL", defaultMetaGraphBaseURL), "/"),
		MetaTestEventCode:  strings.TrimSpace(env.GetEnv("META_TEST_EVENT_CODE", "")),
		ConversionEvents:   SplitList(env.GetEnv("CONVERSION_EVENTS", defaultConversionEvents)),
		ConversionCurrency: env.GetEnv("CONVERSION_CURRENCY", "BRL"),
		ShippingCarrier:    strings.TrimSpace(env.GetEnv("SHIPPING_CARRIER", "")),
		CORSOrigins:        env.GetEnv("CORS_ORIGINS", "*"),
		MonitorUser:        env.GetEnv("MONITOR_USER", ""),
		MonitorPassword:    env.GetEnv("MONITOR_PASSWORD", ""),
	}

	for _, id := range planIDs {
		suffix := strings.ToUpper(id)
		if v := env.FirstEnv("PAYMENTLINK_"+suffix, "PAGARME_PAYMENTLINK_"+suffix); v != "" {
			cfg.PrecreatedLinks[id] = v
		}
	}
	return cfg
}

// ProviderConfigured reports whether outbound payment-provider calls are possible.
func (c *Config) ProviderConfigured() bool {
	return c.PagarmeAPIKey != ""
}

// MetaConfigured reports whether conversion delivery is possible.
func (c *Config) MetaConfigured() bool {
	return c.MetaPixelID != "" && c.MetaAccessToken != ""
}

func (c *Config) LinkMappingPath() string {
	return filepath.Join(c.DataDir, "paymentlinks.json")
}

func (c *Config) WebhookLogPath() string {
	return filepath.Join(c.DataDir, "webhooks.json")
}

func (c *Config) ConversionLogPath() string {
	return filepath.Join(c.DataDir, "conversions.json")
}

// Preflight logs the production settings that are commonly forgotten.
func (c *Config) Preflight(planIDs []string) []string {
	var missing []string
	if !c.ProviderConfigured() {
		missing = append(missing, "PAGARME_API_KEY")
	}
	for _, id := range planIDs {
		if _, ok := c.PrecreatedLinks[id]; !ok {
			missing = append(missing, "PAYMENTLINK_"+strings.ToUpper(id))
		}
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "PAGARME_WEBHOOK_SECRET")
	}
	if len(missing) > 0 && env.IsProd() {
		log.Warnf("[Config] Possibly missing production variables: %s", strings.Join(missing, ", "))
	}
	return missing
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
