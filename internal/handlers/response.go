package handlers

import (
	"errors"

	"albumportal/internal/database"
	"albumportal/internal/logging"
	"albumportal/internal/middleware"
	"albumportal/internal/services"

	"github.com/gofiber/fiber/v2"
)

const msgUnavailable = "Database connection error. Please try again later."

// respond writes body as JSON together with the flashed notices and any
// extra ones.
func respond(c *fiber.Ctx, status int, body fiber.Map, extra ...middleware.Notice) error {
	if body == nil {
		body = fiber.Map{}
	}
	body["notices"] = append(middleware.TakeFlash(c), extra...)
	return c.Status(status).JSON(body)
}

func danger(messages ...string) []middleware.Notice {
	notices := make([]middleware.Notice, len(messages))
	for i, m := range messages {
		notices[i] = middleware.Notice{Level: middleware.LevelDanger, Message: m}
	}
	return notices
}

// fail maps a service error onto a status code and user-facing message.
// Infrastructure details only go to the log.
func fail(c *fiber.Ctx, log logging.Logger, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return respond(c, fiber.StatusBadRequest, fiber.Map{"message": "Validation failed"}, danger(verr.Problems...)...)
	}

	status, message := classify(err)
	switch status {
	case fiber.StatusServiceUnavailable:
		log.Error(c.UserContext(), "datastore unavailable", "path", c.Path(), "error", err)
	case fiber.StatusInternalServerError:
		log.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	return respond(c, status, fiber.Map{"message": message}, danger(message)...)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, services.ErrUsernameTaken):
		return fiber.StatusConflict, "Username already taken."
	case errors.Is(err, services.ErrIncorrectAnswer):
		return fiber.StatusForbidden, "Wrong answer to security question."
	case errors.Is(err, services.ErrNoHint):
		return fiber.StatusNotFound, "No hint found for that username (or user doesn't exist)."
	case errors.Is(err, services.ErrNoMatchingAccount):
		return fiber.StatusNotFound, "No matching account found. Please check your details (city/state are matched using first 3 letters)."
	case errors.Is(err, database.ErrUnavailable):
		return fiber.StatusServiceUnavailable, msgUnavailable
	default:
		return fiber.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}
