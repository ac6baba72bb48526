package persistence

import (
	"context"
	"database/sql"
	"time"

	"procure_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NegotiationAdapter implements out.NegotiationRepository using PostgreSQL.
type NegotiationAdapter struct {
	db *sqlx.DB
}

// NewNegotiationAdapter creates a new NegotiationAdapter.
func NewNegotiationAdapter(db *sqlx.DB) *NegotiationAdapter {
	return &NegotiationAdapter{db: db}
}

type negotiationRow struct {
	ID            uuid.UUID      `db:"id"`
	ThreadID      int64          `db:"thread_id"`
	RequestID     sql.NullInt64  `db:"rfx_id"`
	MinBudget     float64        `db:"min_budget"`
	MaxBudget     float64        `db:"max_budget"`
	TargetBudget  float64        `db:"target_budget"`
	AutoNegotiate bool           `db:"auto_negotiate"`
	Status        string         `db:"status"`
	Notes         sql.NullString `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *negotiationRow) toEntity() *domain.NegotiationSettings {
	return &domain.NegotiationSettings{
		ID:            r.ID,
		ThreadID:      r.ThreadID,
		RequestID:     r.RequestID.Int64,
		MinBudget:     r.MinBudget,
		MaxBudget:     r.MaxBudget,
		TargetBudget:  r.TargetBudget,
		AutoNegotiate: r.AutoNegotiate,
		Status:        domain.NegotiationStatus(r.Status),
		Notes:         r.Notes.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Create inserts settings; thread_id is unique so a second create for the
// same thread replaces the guardrails.
func (a *NegotiationAdapter) Create(ctx context.Context, s *domain.NegotiationSettings) error {
	const query = `
		INSERT INTO negotiation_settings (id, thread_id, rfx_id, min_budget, max_budget, target_budget, auto_negotiate, status, notes, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8, NULLIF($9, ''), NOW(), NOW())
		ON CONFLICT (thread_id) DO UPDATE SET
			min_budget = EXCLUDED.min_budget,
			max_budget = EXCLUDED.max_budget,
			target_budget = EXCLUDED.target_budget,
			auto_negotiate = EXCLUDED.auto_negotiate,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`

	_, err := a.db.ExecContext(ctx, query,
		s.ID,
		s.ThreadID,
		s.RequestID,
		s.MinBudget,
		s.MaxBudget,
		s.TargetBudget,
		s.AutoNegotiate,
		string(s.Status),
		s.Notes,
	)
	return err
}

func (a *NegotiationAdapter) GetByThreadID(ctx context.Context, threadID int64) (*domain.NegotiationSettings, error) {
	const query = `
		SELECT id, thread_id, rfx_id, min_budget, max_budget, target_budget, auto_negotiate, status, notes, created_at, updated_at
		FROM negotiation_settings
		WHERE thread_id = $1
	`

	var row negotiationRow
	if err := a.db.GetContext(ctx, &row, query, threadID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity(), nil
}

func (a *NegotiationAdapter) Update(ctx context.Context, s *domain.NegotiationSettings) error {
	const query = `
		UPDATE negotiation_settings
		SET min_budget = $2, max_budget = $3, target_budget = $4, auto_negotiate = $5, status = $6, notes = NULLIF($7, ''), updated_at = NOW()
		WHERE thread_id = $1
	`

	res, err := a.db.ExecContext(ctx, query,
		s.ThreadID,
		s.MinBudget,
		s.MaxBudget,
		s.TargetBudget,
		s.AutoNegotiate,
		string(s.Status),
		s.Notes,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *NegotiationAdapter) ListAll(ctx context.Context) ([]*domain.NegotiationSettings, error) {
	const query = `
		SELECT id, thread_id, rfx_id, min_budget, max_budget, target_budget, auto_negotiate, status, notes, created_at, updated_at
		FROM negotiation_settings
		ORDER BY updated_at DESC
	`

	var rows []negotiationRow
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	settings := make([]*domain.NegotiationSettings, len(rows))
	for i := range rows {
		settings[i] = rows[i].toEntity()
	}
	return settings, nil
}
