package handlers

import (
	"time"

	"github.com/amirphl/tailwind-mail/app/dto"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// PublicHandlerInterface defines the contract for unauthenticated contact endpoints
type PublicHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Unsubscribe(c fiber.Ctx) error
	OptIn(c fiber.Ctx) error
	LinkClicked(c fiber.Ctx) error
}

// PublicHandler handles signup and subscription links
type PublicHandler struct {
	baseHandler
	contactFlow businessflow.ContactFlow
}

// NewPublicHandler creates a new public handler instance
func NewPublicHandler(contactFlow businessflow.ContactFlow, logger *zap.Logger, requestTimeout time.Duration) *PublicHandler {
	return &PublicHandler{
		baseHandler: newBaseHandler(logger, requestTimeout),
		contactFlow: contactFlow,
	}
}

// Signup registers a new contact
// @Router /api/v1/signup [post]
func (h *PublicHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ValidationResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/signup")
	defer cancel()

	result, err := h.contactFlow.Signup(ctx, req.Name, req.Email)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Signup failed")
	}

	if !result.Success {
		return h.ResultResponse(c, fiber.StatusOK, "Contact already exists", result)
	}
	return h.ResultResponse(c, fiber.StatusCreated, "Signup successful", result)
}

// Unsubscribe opts a contact out by key
// @Router /api/v1/unsubscribe/{key} [get]
func (h *PublicHandler) Unsubscribe(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/unsubscribe")
	defer cancel()

	result, err := h.contactFlow.OptOut(ctx, c.Params("key"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Unsubscribe failed")
	}

	if !result.Success {
		return h.ResultResponse(c, fiber.StatusOK, "Unknown subscription key", result)
	}
	return h.ResultResponse(c, fiber.StatusOK, "Unsubscribed", result)
}

// OptIn re-subscribes a contact by key
// @Router /api/v1/optin/{key} [get]
func (h *PublicHandler) OptIn(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/optin")
	defer cancel()

	result, err := h.contactFlow.OptIn(ctx, c.Params("key"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Opt-in failed")
	}

	if !result.Success {
		return h.ResultResponse(c, fiber.StatusOK, "Unknown subscription key", result)
	}
	return h.ResultResponse(c, fiber.StatusOK, "Subscribed", result)
}

// LinkClicked acknowledges a tracked link
// @Router /api/v1/link/{key} [get]
func (h *PublicHandler) LinkClicked(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/link")
	defer cancel()

	result, err := h.contactFlow.LinkClicked(ctx, c.Params("key"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Link tracking failed")
	}
	return h.ResultResponse(c, fiber.StatusOK, "OK", result)
}
