package handlers

import (
	"strconv"
	"time"

	"github.com/amirphl/tailwind-mail/app/dto"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandlerInterface defines the contract for authenticated operator endpoints
type AdminHandlerInterface interface {
	CreateBroadcast(c fiber.Ctx) error
	PreviewAudience(c fiber.Ctx) error
	ValidateDocument(c fiber.Ctx) error
	BulkTag(c fiber.Ctx) error
	SearchContacts(c fiber.Ctx) error
}

// AdminHandler handles broadcast authoring and audience management
type AdminHandler struct {
	baseHandler
	broadcastFlow businessflow.BroadcastFlow
	tagFlow       businessflow.TagFlow
	contactFlow   businessflow.ContactFlow
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(
	broadcastFlow businessflow.BroadcastFlow,
	tagFlow businessflow.TagFlow,
	contactFlow businessflow.ContactFlow,
	logger *zap.Logger,
	requestTimeout time.Duration,
) *AdminHandler {
	return &AdminHandler{
		baseHandler:   newBaseHandler(logger, requestTimeout),
		broadcastFlow: broadcastFlow,
		tagFlow:       tagFlow,
		contactFlow:   contactFlow,
	}
}

// CreateBroadcast parses a markdown document and fans it out to its segment
// @Router /api/v1/admin/broadcasts [post]
// @Security BearerAuth
func (h *AdminHandler) CreateBroadcast(c fiber.Ctx) error {
	var req dto.CreateBroadcastRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ValidationResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/broadcasts")
	defer cancel()

	result, err := h.broadcastFlow.CreateBroadcastFromMarkdown(ctx, req.Markdown)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Broadcast creation failed")
	}

	return h.ResultResponse(c, fiber.StatusCreated, "Broadcast created", result)
}

// PreviewAudience counts the contacts a selector would reach
// @Router /api/v1/admin/broadcasts/audience [get]
// @Security BearerAuth
func (h *AdminHandler) PreviewAudience(c fiber.Ctx) error {
	selector := c.Query("tag", models.SendToAll)

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/broadcasts/audience")
	defer cancel()

	result, err := h.broadcastFlow.PreviewAudience(ctx, selector)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Audience preview failed")
	}

	return h.ResultResponse(c, fiber.StatusOK, "Audience retrieved", result)
}

// ValidateDocument parses a markdown document and reports its audience without creating anything
// @Router /api/v1/admin/broadcasts/validate [post]
// @Security BearerAuth
func (h *AdminHandler) ValidateDocument(c fiber.Ctx) error {
	var req dto.ValidateDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/broadcasts/validate")
	defer cancel()

	result, err := h.broadcastFlow.ValidateDocument(ctx, req.Markdown)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Document validation failed")
	}

	return h.ResultResponse(c, fiber.StatusOK, "Document validated", result)
}

// BulkTag attaches a tag to the listed contacts
// @Router /api/v1/admin/contacts/tag [post]
// @Security BearerAuth
func (h *AdminHandler) BulkTag(c fiber.Ctx) error {
	var req dto.BulkTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ValidationResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/contacts/tag")
	defer cancel()

	result, err := h.tagFlow.BulkTag(ctx, req.Tag, req.Emails)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Bulk tag failed")
	}

	return h.ResultResponse(c, fiber.StatusOK, "Contacts tagged", result)
}

// SearchContacts finds contacts by a case-insensitive match on email or name
// @Router /api/v1/admin/contacts/search [get]
// @Security BearerAuth
func (h *AdminHandler) SearchContacts(c fiber.Ctx) error {
	term := c.Query("term")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/contacts/search")
	defer cancel()

	result, err := h.contactFlow.Search(ctx, term, limit)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Contact search failed")
	}

	return h.ResultResponse(c, fiber.StatusOK, "Contacts retrieved", result)
}
