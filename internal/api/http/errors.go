package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/apperr"
)

// errorBody is the JSON shape of every failed API response.
type errorBody struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusForKind maps an error kind to the HTTP status reported to clients.
func statusForKind(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalidArgument:
		return fiber.StatusBadRequest
	case apperr.KindLocationNotFound:
		return fiber.StatusNotFound
	case apperr.KindInvalidAPIKey:
		return fiber.StatusBadGateway
	case apperr.KindProviderUnavailable, apperr.KindRateLimited:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// kindForStatus labels errors raised by fiber itself (unknown route, bad method).
func kindForStatus(code int) string {
	switch {
	case code == fiber.StatusNotFound:
		return "not_found"
	case code == fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case code >= 400 && code < 500:
		return string(apperr.KindInvalidArgument)
	default:
		return string(apperr.KindInternal)
	}
}

// describeError resolves the status and body for err.
func describeError(err error) (int, errorBody) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, errorBody{Error: true, Kind: kindForStatus(fe.Code), Message: fe.Message}
	}

	kind := apperr.KindOf(err)
	code := statusForKind(kind)
	msg := err.Error()
	if kind == apperr.KindInternal || kind == apperr.KindConfig {
		msg = "internal server error"
	}
	return code, errorBody{Error: true, Kind: string(kind), Message: msg}
}

// NewErrorHandler returns the centralized fiber error handler.
func NewErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, body := describeError(err)
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
		}
		return c.Status(code).JSON(body)
	}
}
