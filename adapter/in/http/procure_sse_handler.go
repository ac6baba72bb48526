package http

import (
	"bufio"
	"time"

	"procure_server/adapter/out/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SSEHandler handles Server-Sent Events connections for the dashboard.
type SSEHandler struct {
	hub     *realtime.SSEHub
	adapter *realtime.SSEAdapter
	log     zerolog.Logger
}

// NewSSEHandler creates a new SSE handler.
func NewSSEHandler(hub *realtime.SSEHub, adapter *realtime.SSEAdapter, log zerolog.Logger) *SSEHandler {
	return &SSEHandler{
		hub:     hub,
		adapter: adapter,
		log:     log.With().Str("handler", "sse").Logger(),
	}
}

// Register registers SSE routes.
func (h *SSEHandler) Register(router fiber.Router) {
	events := router.Group("/events")
	events.Get("/stream", h.Stream)
	events.Get("/status", h.Status)
}

// Stream handles one SSE connection. Every client sees every pipeline event.
func (h *SSEHandler) Stream(c *fiber.Ctx) error {
	clientID := uuid.NewString()
	client := h.hub.CreateClient(clientID)

	h.log.Info().
		Str("client_id", clientID).
		Msg("SSE client connected")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(client.HeartbeatInterval())
		defer ticker.Stop()
		defer func() {
			client.Close()
			h.log.Info().
				Str("client_id", clientID).
				Msg("SSE client disconnected")
		}()

		w.WriteString("event: connected\n")
		w.WriteString("data: {\"status\":\"connected\"}\n\n")
		w.Flush()

		for {
			select {
			case event, ok := <-client.Events:
				if !ok {
					return
				}

				data, err := realtime.SerializeEvent(event)
				if err != nil {
					h.log.Error().Err(err).Msg("failed to serialize event")
					continue
				}

				w.WriteString("event: ")
				w.WriteString(string(event.Type))
				w.WriteString("\n")
				w.WriteString("data: ")
				w.Write(data)
				w.WriteString("\n\n")

				if err := w.Flush(); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during write")
					return
				}

			case <-ticker.C:
				w.WriteString(": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during heartbeat")
					return
				}

			case <-client.Done:
				return
			}
		}
	})

	return nil
}

// Status returns event stream metrics.
func (h *SSEHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.adapter.GetMetrics())
}
