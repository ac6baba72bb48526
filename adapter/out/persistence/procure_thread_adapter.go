// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"time"

	"procure_server/core/domain"

	"github.com/jmoiron/sqlx"
)

// ThreadAdapter implements out.ThreadRepository using PostgreSQL.
type ThreadAdapter struct {
	db *sqlx.DB
}

// NewThreadAdapter creates a new ThreadAdapter.
func NewThreadAdapter(db *sqlx.DB) *ThreadAdapter {
	return &ThreadAdapter{db: db}
}

type threadRow struct {
	ID          int64          `db:"id"`
	RequestID   int64          `db:"rfx_id"`
	VendorName  string         `db:"vendor_name"`
	VendorEmail sql.NullString `db:"vendor_email"`
	Subject     string         `db:"subject"`
	Status      string         `db:"status"`
	Unread      bool           `db:"unread"`
	Kind        string         `db:"type"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *threadRow) toEntity() *domain.Thread {
	return &domain.Thread{
		ID:          r.ID,
		RequestID:   r.RequestID,
		VendorName:  r.VendorName,
		VendorEmail: r.VendorEmail.String,
		Subject:     r.Subject,
		Status:      domain.ThreadStatus(r.Status),
		Unread:      r.Unread,
		Kind:        domain.Kind(r.Kind),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Create inserts a thread and assigns its generated id.
func (a *ThreadAdapter) Create(ctx context.Context, thread *domain.Thread) error {
	const query = `
		INSERT INTO email_threads (rfx_id, vendor_name, vendor_email, subject, status, unread, type, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := a.db.QueryRowxContext(ctx, query,
		thread.RequestID,
		thread.VendorName,
		thread.VendorEmail,
		thread.Subject,
		string(thread.Status),
		thread.Unread,
		string(thread.Kind),
	)
	return row.Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
}

func (a *ThreadAdapter) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	const query = `
		SELECT id, rfx_id, vendor_name, vendor_email, subject, status, unread, type, created_at, updated_at
		FROM email_threads
		WHERE id = $1
	`

	var row threadRow
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// List returns threads newest-first, optionally filtered by request id.
func (a *ThreadAdapter) List(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error) {
	const baseQuery = `
		SELECT id, rfx_id, vendor_name, vendor_email, subject, status, unread, type, created_at, updated_at
		FROM email_threads
	`
	const baseCount = `SELECT COUNT(*) FROM email_threads`

	var (
		rows  []threadRow
		total int
		err   error
	)
	if requestID > 0 {
		err = a.db.SelectContext(ctx, &rows,
			baseQuery+` WHERE rfx_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
			requestID, limit, offset)
		if err == nil {
			err = a.db.GetContext(ctx, &total, baseCount+` WHERE rfx_id = $1`, requestID)
		}
	} else {
		err = a.db.SelectContext(ctx, &rows,
			baseQuery+` ORDER BY updated_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
		if err == nil {
			err = a.db.GetContext(ctx, &total, baseCount)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	threads := make([]*domain.Thread, len(rows))
	for i := range rows {
		threads[i] = rows[i].toEntity()
	}
	return threads, total, nil
}

func (a *ThreadAdapter) UpdateStatus(ctx context.Context, id int64, status domain.ThreadStatus) error {
	const query = `UPDATE email_threads SET status = $2, updated_at = NOW() WHERE id = $1`
	return a.exec(ctx, query, id, string(status))
}

// UpdateAfterInbound applies the state changes of a vendor reply in one
// statement: responded status, unread flag, and the kind confirmed by the
// most recent inbound message.
func (a *ThreadAdapter) UpdateAfterInbound(ctx context.Context, id int64, status domain.ThreadStatus, kind domain.Kind) error {
	const query = `
		UPDATE email_threads
		SET status = $2, unread = TRUE, type = $3, updated_at = NOW()
		WHERE id = $1
	`
	return a.exec(ctx, query, id, string(status), string(kind))
}

func (a *ThreadAdapter) UpdateAfterDispatch(ctx context.Context, id int64, status domain.ThreadStatus) error {
	const query = `UPDATE email_threads SET status = $2, updated_at = NOW() WHERE id = $1`
	return a.exec(ctx, query, id, string(status))
}

func (a *ThreadAdapter) MarkRead(ctx context.Context, id int64) error {
	const query = `UPDATE email_threads SET unread = FALSE WHERE id = $1`
	return a.exec(ctx, query, id)
}

func (a *ThreadAdapter) exec(ctx context.Context, query string, args ...any) error {
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
