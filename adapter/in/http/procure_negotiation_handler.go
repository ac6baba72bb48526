package http

import (
	"procure_server/core/port/in"
	"procure_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NegotiationHandler exposes budget settings and derived negotiation state.
type NegotiationHandler struct {
	negotiationService in.NegotiationService
}

// NewNegotiationHandler creates a new negotiation handler.
func NewNegotiationHandler(negotiationService in.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationService: negotiationService}
}

// Register registers negotiation routes.
func (h *NegotiationHandler) Register(router fiber.Router) {
	negotiations := router.Group("/negotiations")
	negotiations.Get("/", h.List)
	negotiations.Post("/", h.Create)
	negotiations.Get("/:thread_id", h.Get)
	negotiations.Put("/:thread_id", h.Update)
	negotiations.Get("/:thread_id/state", h.GetState)
}

// List returns all negotiation settings.
func (h *NegotiationHandler) List(c *fiber.Ctx) error {
	settings, err := h.negotiationService.ListSettings(c.Context())
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.OK(c, settings)
}

// Create creates budget settings for a thread.
func (h *NegotiationHandler) Create(c *fiber.Ctx) error {
	var req in.NegotiationSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	settings, err := h.negotiationService.CreateSettings(c.Context(), &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.Created(c, settings)
}

// Get returns settings for a thread.
func (h *NegotiationHandler) Get(c *fiber.Ctx) error {
	threadID, err := parseID(c.Params("thread_id"))
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	settings, err := h.negotiationService.GetSettings(c.Context(), threadID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.OK(c, settings)
}

// Update replaces settings for a thread.
func (h *NegotiationHandler) Update(c *fiber.Ctx) error {
	threadID, err := parseID(c.Params("thread_id"))
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	var req in.NegotiationSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	settings, err := h.negotiationService.UpdateSettings(c.Context(), threadID, &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.OK(c, settings)
}

// GetState returns the offer history derived from the thread's messages.
func (h *NegotiationHandler) GetState(c *fiber.Ctx) error {
	threadID, err := parseID(c.Params("thread_id"))
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	state, err := h.negotiationService.GetState(c.Context(), threadID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.OK(c, state)
}
