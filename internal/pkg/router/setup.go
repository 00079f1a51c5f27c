package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/sejamais-checkout/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the wired controllers and settings the routers mount.
type Dependencies struct {
	Checkout    *controllers.CheckoutController
	Webhook     *controllers.WebhookController
	CORSOrigins string
	// LimiterStorage backs the API rate limiter; nil keeps it in memory.
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
