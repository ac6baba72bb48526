// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import (
	"context"

	"procure_server/core/domain"
)

// ThreadRepository defines the outbound port for vendor conversation threads.
type ThreadRepository interface {
	Create(ctx context.Context, thread *domain.Thread) error
	GetByID(ctx context.Context, id int64) (*domain.Thread, error)
	List(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error)

	// Partial updates used by the inbound and dispatch pipelines. Each is a
	// single statement so a failed write never holds back the others.
	UpdateStatus(ctx context.Context, id int64, status domain.ThreadStatus) error
	UpdateAfterInbound(ctx context.Context, id int64, status domain.ThreadStatus, kind domain.Kind) error
	UpdateAfterDispatch(ctx context.Context, id int64, status domain.ThreadStatus) error
	MarkRead(ctx context.Context, id int64) error
}

// MessageRepository defines the outbound port for thread messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByThread(ctx context.Context, threadID int64) ([]*domain.Message, error)
}
