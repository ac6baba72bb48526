package persistence

import (
	"context"
	"database/sql"
	"time"

	"procure_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TrackingAdapter implements out.TrackingRepository using PostgreSQL.
type TrackingAdapter struct {
	db *sqlx.DB
}

// NewTrackingAdapter creates a new TrackingAdapter.
func NewTrackingAdapter(db *sqlx.DB) *TrackingAdapter {
	return &TrackingAdapter{db: db}
}

type trackingRow struct {
	ID             uuid.UUID `db:"id"`
	TrackingID     string    `db:"tracking_id"`
	RequestID      int64     `db:"rfx_id"`
	ThreadID       int64     `db:"thread_id"`
	UserID         uuid.UUID `db:"user_id"`
	RecipientEmail string    `db:"recipient_email"`
	Subject        string    `db:"subject"`
	Kind           string    `db:"type"`
	SentAt         time.Time `db:"sent_at"`
}

func (r *trackingRow) toEntity() *domain.TrackingRecord {
	return &domain.TrackingRecord{
		ID:             r.ID,
		TrackingID:     r.TrackingID,
		RequestID:      r.RequestID,
		ThreadID:       r.ThreadID,
		UserID:         r.UserID,
		RecipientEmail: r.RecipientEmail,
		Subject:        r.Subject,
		Kind:           domain.Kind(r.Kind),
		SentAt:         r.SentAt,
	}
}

func (a *TrackingAdapter) Create(ctx context.Context, rec *domain.TrackingRecord) error {
	const query = `
		INSERT INTO email_tracking (id, tracking_id, rfx_id, thread_id, user_id, recipient_email, subject, type, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.TrackingID,
		rec.RequestID,
		rec.ThreadID,
		rec.UserID,
		rec.RecipientEmail,
		rec.Subject,
		string(rec.Kind),
		rec.SentAt,
	)
	return err
}

// GetByTrackingID returns nil without error when the token is unknown;
// missing tracking data is an expected correlation outcome, not a failure.
func (a *TrackingAdapter) GetByTrackingID(ctx context.Context, trackingID string) (*domain.TrackingRecord, error) {
	const query = `
		SELECT id, tracking_id, rfx_id, thread_id, user_id, recipient_email, subject, type, sent_at
		FROM email_tracking
		WHERE tracking_id = $1
	`

	var row trackingRow
	if err := a.db.GetContext(ctx, &row, query, trackingID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity(), nil
}
