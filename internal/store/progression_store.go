package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ProgressionStore struct {
	db *sqlx.DB
}

func NewProgressionStore(db *sqlx.DB) *ProgressionStore {
	return &ProgressionStore{db: db}
}

const (
	upsertProgressionQuery = `
		INSERT INTO progressions (tournament_id, current_round, last_updated, last_updated_by)
		VALUES (:tournament_id, :current_round, :last_updated, :last_updated_by)
		ON CONFLICT (tournament_id) DO UPDATE SET
		current_round = excluded.current_round,
		last_updated = excluded.last_updated,
		last_updated_by = excluded.last_updated_by
	`
	upsertRoundQuery = `
		INSERT INTO progression_rounds (tournament_id, name, round_order, max_matches, is_completed, completed_at, completed_by)
		VALUES (:tournament_id, :name, :round_order, :max_matches, :is_completed, :completed_at, :completed_by)
		ON CONFLICT (tournament_id, name) DO UPDATE SET
		round_order = excluded.round_order,
		max_matches = excluded.max_matches,
		is_completed = excluded.is_completed,
		completed_at = excluded.completed_at,
		completed_by = excluded.completed_by
	`
)

// GetProgression returns nil without error when the tournament has no progression record yet.
func (s *ProgressionStore) GetProgression(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (*bracket.Progression, error) {
	if q == nil {
		q = s.db
	}
	var p bracket.Progression
	err := sqlx.GetContext(ctx, q, &p, "SELECT * FROM progressions WHERE tournament_id = ?", tournamentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = sqlx.SelectContext(ctx, q, &p.Rounds,
		"SELECT * FROM progression_rounds WHERE tournament_id = ? ORDER BY round_order ASC", tournamentID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProgressionStore) SaveProgression(ctx context.Context, tx sqlx.ExtContext, p *bracket.Progression) error {
	if _, err := sqlx.NamedExecContext(ctx, tx, upsertProgressionQuery, p); err != nil {
		return err
	}
	for i := range p.Rounds {
		p.Rounds[i].TournamentID = p.TournamentID
		if _, err := sqlx.NamedExecContext(ctx, tx, upsertRoundQuery, &p.Rounds[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProgressionStore) DeleteProgression(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM progressions WHERE tournament_id = ?", tournamentID)
	return err
}
