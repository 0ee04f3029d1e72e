package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/wordrace/internal/game/match"
)

// SessionRepository stores active session snapshots in the active_sessions
// table. It implements match.Store.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a SessionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert writes info. A row already holding a newer version is left untouched.
//
// Precondition: info.ID must be non-empty.
// Postcondition: The stored row's version is max(stored, info.Version).
func (r *SessionRepository) Upsert(ctx context.Context, info match.Info) error {
	snapshot, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", info.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO active_sessions (id, game_type, playing, ended, version, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			game_type  = EXCLUDED.game_type,
			playing    = EXCLUDED.playing,
			ended      = EXCLUDED.ended,
			version    = EXCLUDED.version,
			snapshot   = EXCLUDED.snapshot,
			updated_at = NOW()
		WHERE active_sessions.version < EXCLUDED.version`,
		info.ID, info.GameType, info.Playing, info.Ended, int64(info.Version), snapshot,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", info.ID, err)
	}
	return nil
}

// Remove deletes the snapshot for id. Removing a missing id is not an error.
func (r *SessionRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM active_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("removing session %s: %w", id, err)
	}
	return nil
}

// List returns every stored snapshot ordered by id.
func (r *SessionRepository) List(ctx context.Context) ([]match.Info, error) {
	rows, err := r.db.Query(ctx, `SELECT snapshot FROM active_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	raws, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}

	out := make([]match.Info, 0, len(raws))
	for _, raw := range raws {
		var info match.Info
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("decoding session snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, nil
}

var _ match.Store = (*SessionRepository)(nil)
