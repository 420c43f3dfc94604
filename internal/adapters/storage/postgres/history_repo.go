package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"rio-companion/internal/domain/history"
)

// Esquema esperado:
//
//	CREATE TABLE companion_history (
//	    id            TEXT PRIMARY KEY,
//	    owner_user_id TEXT NOT NULL,
//	    companion_id  TEXT NOT NULL,
//	    type          TEXT NOT NULL,
//	    detail        TEXT NOT NULL DEFAULT '',
//	    health        INT  NOT NULL,
//	    level         INT  NOT NULL,
//	    occurred_at   TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX companion_history_owner_idx
//	    ON companion_history (owner_user_id, occurred_at DESC);
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Append(ctx context.Context, e history.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companion_history (
			id, owner_user_id, companion_id,
			type, detail,
			health, level,
			occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.OwnerUserID,
		e.CompanionID,
		string(e.Type),
		e.Detail,
		e.Health,
		e.Level,
		e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

func (r *HistoryRepo) ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]history.Entry, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = history.DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id, companion_id,
			type, detail,
			health, level,
			occurred_at
		FROM companion_history
		WHERE owner_user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, ownerUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("history list: %w", err)
	}
	defer rows.Close()

	out := make([]history.Entry, 0)
	for rows.Next() {
		var e history.Entry
		var typ string
		if err := rows.Scan(
			&e.ID,
			&e.OwnerUserID,
			&e.CompanionID,
			&typ,
			&e.Detail,
			&e.Health,
			&e.Level,
			&e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Type = history.EntryType(typ)
		out = append(out, e)
	}

	return out, rows.Err()
}
