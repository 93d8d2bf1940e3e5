package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/middleware"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
		if operator := middleware.OperatorID(c); operator != "" {
			logger = logger.With().Str("operator_id", operator).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are logged and hidden.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	switch {
	case errors.Is(err, service.ErrPersonNotFound),
		errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidClassification),
		errors.Is(err, service.ErrClassNotResolved),
		errors.Is(err, service.ErrEmptyAfterSanitize),
		errors.Is(err, service.ErrAvatarTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAvatarTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrAvatarStorageDisabled),
		errors.Is(err, service.ErrSuggestionsDisabled):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
