// Package server assembles the Fiber application.
package server

import (
	"errors"

	"albumportal/internal/handlers"
	"albumportal/internal/logging"
	"albumportal/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Handlers groups the route handlers.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Albums *handlers.AlbumHandler
	Health *handlers.HealthHandler
}

// Options tunes the app.
type Options struct {
	AppName string
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// New builds the Fiber app with middleware and routes.
func New(session *middleware.Session, h Handlers, log logging.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	h.Health.RegisterRoutes(app)
	app.Use(session.Load())
	h.Auth.RegisterRoutes(app)
	h.Albums.RegisterRoutes(app)
	return app
}

func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong. Please try again later."
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code = ferr.Code
			message = ferr.Message
		} else {
			log.Error(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
