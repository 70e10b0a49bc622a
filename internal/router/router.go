package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/escrivo/escrivo-go-api/internal/config"
	"github.com/escrivo/escrivo-go-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EssayHandler      *handler.EssayHandler
	AnnotationHandler *handler.AnnotationHandler
	GradingHandler    *handler.GradingHandler
	OmrHandler        *handler.OmrHandler
	SuggestionHandler *handler.SuggestionHandler
	MetricsHandler    fiber.Handler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	essays := api.Group("/essays", jwtMiddleware)

	if deps.EssayHandler != nil {
		deps.EssayHandler.Register(essays)
	}
	if deps.AnnotationHandler != nil {
		deps.AnnotationHandler.Register(essays)
	}
	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(essays)
	}
	if deps.OmrHandler != nil {
		deps.OmrHandler.Register(essays)
	}
	if deps.SuggestionHandler != nil {
		deps.SuggestionHandler.Register(essays)
	}
}
