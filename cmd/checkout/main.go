package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/sejamais-checkout/app/controllers"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/auditlog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/billing"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/cache"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/checkout"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/config"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/conversion"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/env"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/router"
)

const startupVerifyTimeout = 30 * time.Second

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	if env.IsDev() {
		log.SetLevel(log.LevelDebug)
	}

	cat := catalog.Default()
	cfg := config.Load(cat.IDs())
	cfg.Preflight(cat.IDs())

	provider := pagarme.NewClient(cfg.PagarmeAPIKey, cfg.PagarmeAPIBaseURL, cfg.ProviderTimeout)
	links := resolveLinks(cat, cfg, provider)

	store := newLinkStore(cfg)
	provisioner := checkout.NewProvisioner(cat, links, provider, store, cfg.Namespace)

	meta := conversion.NewMetaClient(cfg.MetaPixelID, cfg.MetaAccessToken, cfg.MetaAPIVersion,
		cfg.MetaGraphBaseURL, cfg.MetaTestEventCode, cfg.ProviderTimeout)
	reporter := conversion.NewReporter(auditlog.New(cfg.ConversionLogPath(), auditlog.ConversionLogLimit), meta, cfg.ConversionCurrency)
	webhooks := billing.NewService(
		billing.NewRepository(auditlog.New(cfg.WebhookLogPath(), auditlog.WebhookLogLimit)),
		billing.NewCorrelator(store),
		reporter,
		cfg.WebhookSecret,
		cfg.ConversionEvents,
	)

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "sejamais-checkout",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber monitor, only when credentials are configured
	if cfg.MonitorUser != "" && cfg.MonitorPassword != "" {
		app.Get("/monitor", basicauth.New(basicauth.Config{
			Users: map[string]string{
				cfg.MonitorUser: cfg.MonitorPassword,
			},
		}), monitor.New())
	}

	// prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// SWAGGER / OPENAPI
	if path := findOpenAPIFile(); path != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: path,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Checkout:       controllers.NewCheckoutController(cat, links, provisioner, store, cfg.ShippingCarrier),
		Webhook:        controllers.NewWebhookController(map[string]*billing.Service{"pagarme": webhooks}),
		CORSOrigins:    cfg.CORSOrigins,
		LimiterStorage: newLimiterStorage(cfg),
	})

	log.Infof("[Checkout] Application ready (provider configured: %t, conversion delivery: %t, link store: %s)",
		cfg.ProviderConfigured(), cfg.MetaConfigured(), cfg.LinkStore)
	return app, cfg
}

// resolveLinks freezes the pre-provisioned link table, verifying amounts
// against the provider when a credential is configured.
func resolveLinks(cat *catalog.Catalog, cfg *config.Config, provider *pagarme.Client) *catalog.Links {
	var lookup catalog.AmountLookup
	if provider.Configured() {
		lookup = func(ctx context.Context, linkID string) (int64, error) {
			link, err := provider.GetLink(ctx, linkID)
			if err != nil {
				return 0, err
			}
			return link.Amount, nil
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupVerifyTimeout)
	defer cancel()
	return catalog.ResolveLinks(ctx, cat, cfg.PrecreatedLinks, cfg.PagarmeLinkBaseURL, lookup)
}

func newLinkStore(cfg *config.Config) linkstore.Store {
	if cfg.LinkStore == config.LinkStoreRedis {
		cache.SetupCache()
		return linkstore.NewRedisStore(cache.GetClient(), linkstore.DefaultRedisHashKey)
	}
	return linkstore.NewFileStore(cfg.LinkMappingPath())
}

func newLimiterStorage(cfg *config.Config) fiber.Storage {
	if cfg.RateLimitStorage != "redis" {
		return nil
	}
	host, port := cache.HostPort()
	// Separate database for limiter counters (cache uses DB 0)
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: cache.Password(),
		Database: 1,
		Reset:    false,
	})
}

func findOpenAPIFile() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/checkout to project root
		"../../../", // Fallback
	}
	for _, base := range basePaths {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	log.Warn("[Checkout] OpenAPI document not found, /docs/api/v1 disabled")
	return ""
}
