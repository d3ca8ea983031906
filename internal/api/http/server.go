package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const appName = "bio-photo"

// NewApp builds the Fiber app with the error handler, middleware and all
// routes installed.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          NewErrorHandler(deps.Logger),
	})

	app.Use(RequestID())
	app.Use(RequestLogger(deps.Logger.With().Str("component", "http").Logger()))
	app.Use(Recover())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"mode":    deps.Weather.ResolveMode(""),
		})
	})

	RegisterRoutes(app, deps)
	return app
}
