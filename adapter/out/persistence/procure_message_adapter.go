package persistence

import (
	"context"
	"time"

	"procure_server/core/domain"

	"github.com/jmoiron/sqlx"
)

// MessageAdapter implements out.MessageRepository using PostgreSQL.
type MessageAdapter struct {
	db *sqlx.DB
}

// NewMessageAdapter creates a new MessageAdapter.
func NewMessageAdapter(db *sqlx.DB) *MessageAdapter {
	return &MessageAdapter{db: db}
}

type messageRow struct {
	ID        int64     `db:"id"`
	ThreadID  int64     `db:"thread_id"`
	Sender    string    `db:"sender"`
	Text      string    `db:"text"`
	Kind      string    `db:"type"`
	Timestamp time.Time `db:"timestamp"`
}

func (r *messageRow) toEntity() *domain.Message {
	return &domain.Message{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Sender:    domain.Sender(r.Sender),
		Text:      r.Text,
		Kind:      domain.Kind(r.Kind),
		Timestamp: r.Timestamp,
	}
}

// Create inserts a message and assigns its generated id.
func (a *MessageAdapter) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
		INSERT INTO email_messages (thread_id, sender, text, type, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	row := a.db.QueryRowxContext(ctx, query,
		msg.ThreadID,
		string(msg.Sender),
		msg.Text,
		string(msg.Kind),
		ts,
	)
	return row.Scan(&msg.ID)
}

// ListByThread returns a thread's messages by timestamp ascending.
func (a *MessageAdapter) ListByThread(ctx context.Context, threadID int64) ([]*domain.Message, error) {
	const query = `
		SELECT id, thread_id, sender, text, type, timestamp
		FROM email_messages
		WHERE thread_id = $1
		ORDER BY timestamp ASC, id ASC
	`

	var rows []messageRow
	if err := a.db.SelectContext(ctx, &rows, query, threadID); err != nil {
		return nil, err
	}

	messages := make([]*domain.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].toEntity()
	}
	return messages, nil
}
