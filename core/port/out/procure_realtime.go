package out

import (
	"context"

	"procure_server/core/domain"
)

// RealtimePort pushes pipeline events to connected clients.
type RealtimePort interface {
	Subscribe(clientID string) <-chan *domain.RealtimeEvent
	Unsubscribe(clientID string, ch <-chan *domain.RealtimeEvent)
	Broadcast(ctx context.Context, event *domain.RealtimeEvent) error
	ConnectedCount() int
}
