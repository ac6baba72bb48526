package http

import (
	"procure_server/core/port/in"
	"procure_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClassifyHandler exposes subject classification for composer previews.
type ClassifyHandler struct {
	classifyService in.ClassifyService
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(classifyService in.ClassifyService) *ClassifyHandler {
	return &ClassifyHandler{classifyService: classifyService}
}

// Register registers classification routes.
func (h *ClassifyHandler) Register(router fiber.Router) {
	classify := router.Group("/classify")
	classify.Post("/subject", h.Subject)
}

type classifySubjectRequest struct {
	Subject string `json:"subject"`
}

// Subject classifies a subject line without sending anything.
func (h *ClassifyHandler) Subject(c *fiber.Ctx) error {
	var req classifySubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Subject == "" {
		return response.BadRequest(c, "subject is required")
	}

	return response.OK(c, h.classifyService.ClassifySubject(c.Context(), req.Subject))
}
