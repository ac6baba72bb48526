// Package realtime provides real-time communication adapters.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"procure_server/core/domain"
	"procure_server/core/port/out"

	"github.com/rs/zerolog"
)

// SSEAdapter implements out.RealtimePort using Server-Sent Events. The
// dashboard is a broadcast audience; every connected client sees every
// pipeline event.
type SSEAdapter struct {
	clients map[string]map[chan *domain.RealtimeEvent]struct{} // clientID -> channels
	mu      sync.RWMutex
	log     zerolog.Logger

	messagesSent    int64
	messagesDropped int64
}

// NewSSEAdapter creates a new SSE adapter.
func NewSSEAdapter(log zerolog.Logger) *SSEAdapter {
	return &SSEAdapter{
		clients: make(map[string]map[chan *domain.RealtimeEvent]struct{}),
		log:     log.With().Str("component", "sse_adapter").Logger(),
	}
}

// Subscribe creates a new subscription channel for a client.
func (a *SSEAdapter) Subscribe(clientID string) <-chan *domain.RealtimeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan *domain.RealtimeEvent, 256) // Buffer for backpressure

	if a.clients[clientID] == nil {
		a.clients[clientID] = make(map[chan *domain.RealtimeEvent]struct{})
	}
	a.clients[clientID][ch] = struct{}{}

	a.log.Debug().
		Str("client_id", clientID).
		Int("total_connections", len(a.clients[clientID])).
		Msg("client subscribed")

	return ch
}

// Unsubscribe removes a subscription channel.
func (a *SSEAdapter) Unsubscribe(clientID string, ch <-chan *domain.RealtimeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if channels, ok := a.clients[clientID]; ok {
		for c := range channels {
			if c == ch {
				delete(channels, c)
				close(c)
				break
			}
		}
		if len(channels) == 0 {
			delete(a.clients, clientID)
		}
	}

	a.log.Debug().
		Str("client_id", clientID).
		Msg("client unsubscribed")
}

// Broadcast sends an event to all connected clients. Slow consumers lose
// events rather than stalling the pipeline.
func (a *SSEAdapter) Broadcast(ctx context.Context, event *domain.RealtimeEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for clientID, channels := range a.clients {
		for ch := range channels {
			select {
			case ch <- event:
				a.messagesSent++
			default:
				a.messagesDropped++
				a.log.Warn().
					Str("client_id", clientID).
					Str("event_type", string(event.Type)).
					Msg("dropped event due to full buffer")
			}
		}
	}

	return nil
}

// ConnectedCount returns the number of connected clients.
func (a *SSEAdapter) ConnectedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}

// GetMetrics returns adapter metrics.
func (a *SSEAdapter) GetMetrics() SSEMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	totalConnections := 0
	for _, channels := range a.clients {
		totalConnections += len(channels)
	}

	return SSEMetrics{
		ConnectedClients: len(a.clients),
		TotalConnections: totalConnections,
		MessagesSent:     a.messagesSent,
		MessagesDropped:  a.messagesDropped,
	}
}

// SSEMetrics holds SSE adapter metrics.
type SSEMetrics struct {
	ConnectedClients int   `json:"connected_clients"`
	TotalConnections int   `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// SSEHub manages SSE connections for HTTP handlers.
type SSEHub struct {
	adapter *SSEAdapter
	log     zerolog.Logger

	heartbeatInterval time.Duration
}

// NewSSEHub creates a new SSE hub.
func NewSSEHub(adapter *SSEAdapter, log zerolog.Logger) *SSEHub {
	return &SSEHub{
		adapter:           adapter,
		log:               log.With().Str("component", "sse_hub").Logger(),
		heartbeatInterval: 30 * time.Second,
	}
}

// CreateClient creates a new SSE client connection.
func (h *SSEHub) CreateClient(clientID string) *SSEClient {
	eventCh := h.adapter.Subscribe(clientID)

	return &SSEClient{
		ClientID: clientID,
		Events:   eventCh,
		Done:     make(chan struct{}),
		hub:      h,
	}
}

// RemoveClient removes an SSE client.
func (h *SSEHub) RemoveClient(client *SSEClient) {
	h.adapter.Unsubscribe(client.ClientID, client.Events)
}

// SSEClient represents an SSE client connection.
type SSEClient struct {
	ClientID string
	Events   <-chan *domain.RealtimeEvent
	Done     chan struct{}
	hub      *SSEHub
}

// Close closes the client connection.
func (c *SSEClient) Close() {
	close(c.Done)
	c.hub.RemoveClient(c)
}

// HeartbeatInterval returns the heartbeat interval.
func (c *SSEClient) HeartbeatInterval() time.Duration {
	return c.hub.heartbeatInterval
}

// SerializeEvent converts a RealtimeEvent to SSE data payload.
func SerializeEvent(event *domain.RealtimeEvent) ([]byte, error) {
	return json.Marshal(event)
}

var _ out.RealtimePort = (*SSEAdapter)(nil)
