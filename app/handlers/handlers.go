// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/tailwind-mail/app/dto"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/amirphl/tailwind-mail/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// baseHandler holds what every handler needs to talk HTTP
type baseHandler struct {
	validator      *validator.Validate
	logger         *zap.Logger
	requestTimeout time.Duration
}

func newBaseHandler(logger *zap.Logger, requestTimeout time.Duration) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTimeout <= 0 {
		requestTimeout = utils.DefaultRequestTimeout
	}
	return baseHandler{
		validator:      validator.New(),
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ResultResponse writes a command result. Expected negative outcomes keep a 200 status.
func (h *baseHandler) ResultResponse(c fiber.Ctx, statusCode int, message string, result *businessflow.CommandResult) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: result.Success,
		Message: message,
		Data: dto.CommandResponse{
			Success:  result.Success,
			Inserted: result.Inserted,
			Updated:  result.Updated,
			Data:     result.Data,
		},
	})
}

// FlowErrorResponse maps a command error onto a status: validation 400, transient store failure 503, anything else 500
func (h *baseHandler) FlowErrorResponse(c fiber.Ctx, err error, fallbackMessage string) error {
	code := "INTERNAL_ERROR"
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		code = be.Code
	}

	switch {
	case businessflow.IsBroadcastSlugExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "A broadcast with this slug already exists", code, nil)
	case businessflow.IsValidationError(err):
		message := err.Error()
		var details any
		if be != nil {
			message = be.Message
			if be.Err != nil {
				details = be.Err.Error()
			}
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, message, code, details)
	case businessflow.IsRetryable(err):
		h.logger.Warn("transient store failure", zap.String("path", c.Path()), zap.Error(err))
		c.Set(fiber.HeaderRetryAfter, "1")
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Temporarily unavailable, retry later", code, nil)
	default:
		h.logger.Error("command failed", zap.String("path", c.Path()), zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, code, nil)
	}
}

// ValidationResponse reports struct validation failures
func (h *baseHandler) ValidationResponse(c fiber.Ctx, err error) error {
	var validationErrors []string
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(fe))
		}
	} else {
		validationErrors = append(validationErrors, err.Error())
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

// createRequestContext derives a context bounded by the request timeout and carrying request-scoped values.
// The caller must invoke the returned cancel function.
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), h.requestTimeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.GetRespHeader(fiber.HeaderXRequestID))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.ClientIPKey, c.IP())

	return ctx, cancel
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must have at least " + err.Param() + " items"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " long"
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}
