package http

import (
	"procure_server/core/port/in"
	"procure_server/pkg/logger"
	"procure_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EmailHandler exposes outbound email dispatch.
type EmailHandler struct {
	dispatchService in.DispatchService
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(dispatchService in.DispatchService) *EmailHandler {
	return &EmailHandler{dispatchService: dispatchService}
}

// Register registers email routes.
func (h *EmailHandler) Register(router fiber.Router) {
	emails := router.Group("/emails")
	emails.Post("/send", h.Send)
}

// Send dispatches a tracked email to a vendor.
func (h *EmailHandler) Send(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "unauthorized")
	}

	var req in.SendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.UserID = userID

	result, err := h.dispatchService.SendEmail(c.Context(), &req)
	if err != nil {
		logger.WithError(err).WithField("thread_id", req.ThreadID).Warn("[Send] dispatch failed")
		return AppErrorResponse(c, err)
	}

	return response.OK(c, result)
}
