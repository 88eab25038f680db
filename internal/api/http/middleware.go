package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/api/flash"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/service"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Flash texts for requests that end in an error.
const (
	MsgPageNotFound  = "Page not found"
	MsgInternalError = "Internal server error"
)

// MiddlewareConfig bundles what the global middlewares need.
type MiddlewareConfig struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Flashes flash.Store
	Timeout time.Duration
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestid.New(requestid.Config{ContextKey: observability.RequestIDLocal}))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(requestContextMiddleware(cfg.Timeout))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics, cfg.Flashes))
}

func requestContextMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := service.WithRequestID(c.UserContext(), observability.RequestID(c))
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware turns unmatched routes, unexpected errors and panics into a flash
// message and a redirect to the listing.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, flashes flash.Store) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("request_id", observability.RequestID(c)),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			message := MsgInternalError
			code := apperrors.CodeInternal
			status := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) && (fiberErr.Code == fiber.StatusNotFound || fiberErr.Code == fiber.StatusMethodNotAllowed) {
				message = MsgPageNotFound
				code = apperrors.CodeNotFound
				status = fiber.StatusNotFound
			} else {
				domainErr := apperrors.ToDomainError(err)
				code = domainErr.Code
				if domainErr.HTTPStatus == fiber.StatusNotFound {
					message = MsgPageNotFound
					status = fiber.StatusNotFound
				}
				logger.Error("request failed",
					zap.String("request_id", observability.RequestID(c)),
					zap.String("path", c.Path()),
					zap.Error(domainErr),
				)
			}
			metrics.RecordError(c.Route().Path, c.Method(), code)

			// The listing is the redirect target, so it cannot redirect to itself.
			if c.Path() == "/" {
				err = c.Status(status).SendString(message)
				return
			}
			if flashErr := flashes.Add(c, flash.Error(message)); flashErr != nil {
				logger.Warn("flash write failed", zap.Error(flashErr))
			}
			err = c.Redirect("/", fiber.StatusSeeOther)
		}()
		return c.Next()
	}
}
