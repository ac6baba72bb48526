package persistence

import (
	"context"
	"database/sql"
	"time"

	"procure_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReplyAdapter implements out.ReplyRepository using PostgreSQL. Rows are
// append-only; orphan deliveries store NULL correlation columns.
type ReplyAdapter struct {
	db *sqlx.DB
}

// NewReplyAdapter creates a new ReplyAdapter.
func NewReplyAdapter(db *sqlx.DB) *ReplyAdapter {
	return &ReplyAdapter{db: db}
}

type replyRow struct {
	ID          int64          `db:"id"`
	TrackingID  sql.NullString `db:"tracking_id"`
	RequestID   sql.NullInt64  `db:"rfx_id"`
	ThreadID    sql.NullInt64  `db:"thread_id"`
	UserID      uuid.NullUUID  `db:"user_id"`
	SenderEmail string         `db:"sender_email"`
	Subject     string         `db:"subject"`
	TextContent string         `db:"text_content"`
	HTMLContent sql.NullString `db:"html_content"`
	Kind        string         `db:"type"`
	ReceivedAt  time.Time      `db:"received_at"`
}

func (r *replyRow) toEntity() *domain.ReplyRecord {
	return &domain.ReplyRecord{
		ID:          r.ID,
		TrackingID:  r.TrackingID.String,
		RequestID:   r.RequestID.Int64,
		ThreadID:    r.ThreadID.Int64,
		UserID:      r.UserID.UUID,
		SenderEmail: r.SenderEmail,
		Subject:     r.Subject,
		TextContent: r.TextContent,
		HTMLContent: r.HTMLContent.String,
		Kind:        domain.Kind(r.Kind),
		ReceivedAt:  r.ReceivedAt,
	}
}

func (a *ReplyAdapter) Create(ctx context.Context, rec *domain.ReplyRecord) error {
	const query = `
		INSERT INTO email_replies (id, tracking_id, rfx_id, thread_id, user_id, sender_email, subject, text_content, html_content, type, received_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, 0), NULLIF($4, 0), $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
	`

	userID := uuid.NullUUID{UUID: rec.UserID, Valid: rec.UserID != uuid.Nil}
	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.TrackingID,
		rec.RequestID,
		rec.ThreadID,
		userID,
		rec.SenderEmail,
		rec.Subject,
		rec.TextContent,
		rec.HTMLContent,
		string(rec.Kind),
		rec.ReceivedAt,
	)
	return err
}

// ListByThread returns a thread's reply audit rows newest-first.
func (a *ReplyAdapter) ListByThread(ctx context.Context, threadID int64, limit, offset int) ([]*domain.ReplyRecord, int, error) {
	const query = `
		SELECT id, tracking_id, rfx_id, thread_id, user_id, sender_email, subject, text_content, html_content, type, received_at
		FROM email_replies
		WHERE thread_id = $1
		ORDER BY received_at DESC
		LIMIT $2 OFFSET $3
	`
	const countQuery = `SELECT COUNT(*) FROM email_replies WHERE thread_id = $1`

	var rows []replyRow
	if err := a.db.SelectContext(ctx, &rows, query, threadID, limit, offset); err != nil {
		return nil, 0, err
	}
	var total int
	if err := a.db.GetContext(ctx, &total, countQuery, threadID); err != nil {
		return nil, 0, err
	}

	replies := make([]*domain.ReplyRecord, len(rows))
	for i := range rows {
		replies[i] = rows[i].toEntity()
	}
	return replies, total, nil
}
