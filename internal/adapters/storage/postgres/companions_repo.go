package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rio-companion/internal/domain/companions"

	"github.com/jackc/pgx/v5/pgconn"
)

// Esquema esperado:
//
//	CREATE TABLE companions (
//	    id            TEXT PRIMARY KEY,
//	    owner_user_id TEXT NOT NULL UNIQUE,
//	    name          TEXT NOT NULL,
//	    kind          TEXT NOT NULL,
//	    health        INT  NOT NULL,
//	    level         INT  NOT NULL,
//	    experience    INT  NOT NULL,
//	    version       INT  NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//
// El UNIQUE sobre owner_user_id es la segunda línea de defensa del
// invariante "un compañero por usuario" (la primera es Adopt).
type CompanionsRepo struct {
	db *sql.DB
}

func NewCompanionsRepo(db *sql.DB) *CompanionsRepo {
	return &CompanionsRepo{db: db}
}

const companionColumns = `
	id, owner_user_id,
	name, kind,
	health, level, experience,
	version,
	created_at, updated_at
`

func (r *CompanionsRepo) GetByOwner(ctx context.Context, ownerUserID string) (companions.Companion, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return companions.Companion{}, companions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+companionColumns+`
		FROM companions
		WHERE owner_user_id = $1
	`, ownerUserID)

	return scanCompanion(row)
}

func (r *CompanionsRepo) GetByID(ctx context.Context, id string) (companions.Companion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return companions.Companion{}, companions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+companionColumns+`
		FROM companions
		WHERE id = $1
	`, id)

	return scanCompanion(row)
}

func (r *CompanionsRepo) Create(ctx context.Context, c companions.Companion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companions (
			id, owner_user_id,
			name, kind,
			health, level, experience,
			version,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		c.ID,
		c.OwnerUserID,
		c.Name,
		string(c.Kind),
		c.Health,
		c.Level,
		c.Experience,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner already has a companion", companions.ErrConflict)
		}
		return fmt.Errorf("%w: %v", companions.ErrStorage, err)
	}
	return nil
}

// Update es compare-and-swap: solo escribe si version coincide,
// e incrementa version en el mismo statement.
func (r *CompanionsRepo) Update(ctx context.Context, c companions.Companion) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE companions
		SET
			name = $2,
			kind = $3,
			health = $4,
			level = $5,
			experience = $6,
			version = version + 1,
			updated_at = $7
		WHERE id = $1 AND version = $8
	`,
		c.ID,
		c.Name,
		string(c.Kind),
		c.Health,
		c.Level,
		c.Experience,
		c.UpdatedAt,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", companions.ErrStorage, err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// 0 filas: o el id no existe, o perdió el compare-and-swap.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM companions WHERE id = $1)
	`, c.ID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: %v", companions.ErrStorage, err)
	}
	if !exists {
		return companions.ErrNotFound
	}
	return fmt.Errorf("%w: companion version changed", companions.ErrConflict)
}

func (r *CompanionsRepo) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	// Idempotente: no miramos RowsAffected.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM companions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: %v", companions.ErrStorage, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompanion(row rowScanner) (companions.Companion, error) {
	var c companions.Companion
	var kind string
	if err := row.Scan(
		&c.ID,
		&c.OwnerUserID,
		&c.Name,
		&kind,
		&c.Health,
		&c.Level,
		&c.Experience,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return companions.Companion{}, companions.ErrNotFound
		}
		return companions.Companion{}, fmt.Errorf("%w: %v", companions.ErrStorage, err)
	}
	c.Kind = companions.Kind(kind)
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
