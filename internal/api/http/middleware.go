package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/observability"
	apperrors "github.com/spec-kit/intake-assistant/pkg/util"
)

// RegisterMiddlewares wires the shared middleware chain.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(errorHandling(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeout(timeout))
	}
}

func requestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandling converts handler errors into the JSON error envelope and
// recovers panics into a 500.
func errorHandling(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Path()))
					err = apperrors.NewInternalError(fmt.Errorf("%v", r))
				}
			}()
			err = c.Next()
		}()

		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			metrics.RecordError(c.Path(), c.Method(), http.StatusText(fiberErr.Code))
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    http.StatusText(fiberErr.Code),
					"message": fiberErr.Message,
				},
			})
		}

		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
				"details": domainErr.Details,
			},
		})
	}
}
