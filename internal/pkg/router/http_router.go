package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/sejamais-checkout/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
