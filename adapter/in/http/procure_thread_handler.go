package http

import (
	"procure_server/core/port/in"
	"procure_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ThreadHandler exposes vendor conversation threads.
type ThreadHandler struct {
	threadService in.ThreadService
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(threadService in.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

// Register registers thread routes.
func (h *ThreadHandler) Register(router fiber.Router) {
	threads := router.Group("/threads")
	threads.Get("/", h.List)
	threads.Post("/", h.Create)
	threads.Post("/negotiation", h.CreateNegotiation)
	threads.Get("/:id", h.Get)
	threads.Post("/:id/read", h.MarkRead)
}

// List returns threads, optionally filtered by procurement request.
func (h *ThreadHandler) List(c *fiber.Ctx) error {
	pagination := response.GetPagination(c, 50, 100)
	requestID := int64(c.QueryInt("rfx_id", 0))

	threads, total, err := h.threadService.ListThreads(c.Context(), requestID, pagination.Limit, pagination.Offset)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return response.OKWithMeta(c, threads, &response.Meta{
		Total:    total,
		PageSize: pagination.Limit,
		HasMore:  pagination.Offset+len(threads) < total,
	})
}

// Create creates a plain thread.
func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	var req in.CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	thread, err := h.threadService.CreateThread(c.Context(), &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.Created(c, thread)
}

// CreateNegotiation creates a negotiation thread with budget guardrails.
func (h *ThreadHandler) CreateNegotiation(c *fiber.Ctx) error {
	var req in.CreateNegotiationThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	thread, err := h.threadService.CreateNegotiationThread(c.Context(), &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.Created(c, thread)
}

// Get returns a thread with its message history.
func (h *ThreadHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	detail, err := h.threadService.GetThread(c.Context(), id)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return response.OK(c, detail)
}

// MarkRead clears the unread flag.
func (h *ThreadHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	if err := h.threadService.MarkRead(c.Context(), id); err != nil {
		return AppErrorResponse(c, err)
	}
	return response.NoContent(c)
}
