package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	apiRateLimit       = 60
	apiRateLimitWindow = time.Minute
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	origins := h.deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	api := app.Group("/api",
		cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept",
		}),
		limiter.New(limiter.Config{
			Max:        apiRateLimit,
			Expiration: apiRateLimitWindow,
			Storage:    h.deps.LimiterStorage,
			// Provider notifications are not rate limited.
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/api/webhook/")
			},
		}),
	)

	api.Get("/plans", h.deps.Checkout.HandlePlans)
	api.Post("/checkout", h.deps.Checkout.HandleCheckout)
	api.Get("/paymentlink-lookup", h.deps.Checkout.HandleLookup)
	api.Post("/webhook/:provider", h.deps.Webhook.HandleWebhook)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
