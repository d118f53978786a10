package server

import (
	"errors"
	"log/slog"
	"strings"

	"rupl/internal/media"
	"rupl/internal/models"
	"rupl/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// respondError answers with the status mapped from err. Errors that are not
// AppErrors are logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		observability.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			&models.AppError{Code: models.CodeInternal, Message: "Internal server error"})
	}
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// remoteOrInline reports whether ref can be stored as sent: an http(s) URL
// or an inline image data URI. Local paths are never read over HTTP.
func remoteOrInline(ref string) bool {
	ref = strings.TrimSpace(ref)
	return media.IsRemote(ref) || strings.HasPrefix(strings.ToLower(ref), "data:image/")
}
