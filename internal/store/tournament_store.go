package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	createTournamentQuery = `
		INSERT INTO tournaments (id, owner_id, name, event_date, capacity, status, created_at)
		VALUES (:id, :owner_id, :name, :event_date, :capacity, :status, :created_at)
	`
	createMatchQuery = `
		INSERT INTO matches (id, tournament_id, sequence, code, round, player_1, player_2, source_1, source_2,
			winner, is_completed, completed_at, completed_by, created_at)
		VALUES (:id, :tournament_id, :sequence, :code, :round, :player_1, :player_2, :source_1, :source_2,
			:winner, :is_completed, :completed_at, :completed_by, :created_at)
	`
	updateMatchResultQuery = `
		UPDATE matches SET
		winner = :winner,
		is_completed = :is_completed,
		completed_at = :completed_at,
		completed_by = :completed_by
		WHERE id = :id
	`
	markCompletedQuery = `
		UPDATE tournaments SET status = ?, completed_at = ?, completed_by = ?
		WHERE id = ? AND status != ?
	`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tx sqlx.ExtContext, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, tx, createTournamentQuery, tournament)
	return err
}

// GetTournament reads through q so callers inside a transaction see their own writes.
func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	if q == nil {
		q = s.db
	}
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bracket.ErrTournamentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
	return tournaments, err
}

func (s *TournamentStore) UpdateStatus(ctx context.Context, tx sqlx.ExtContext, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

// MarkCompleted reports false when the tournament was already completed.
func (s *TournamentStore) MarkCompleted(ctx context.Context, tx sqlx.ExtContext, id uuid.UUID, by string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, markCompletedQuery, bracket.TournamentCompleted, at, by, id, bracket.TournamentCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *TournamentStore) Archive(ctx context.Context, tx sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET archived_at = ? WHERE id = ?", at, id)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx sqlx.ExtContext, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range matches {
		if matches[i].CreatedAt.IsZero() {
			matches[i].CreatedAt = now
		}
	}
	_, err := sqlx.NamedExecContext(ctx, tx, createMatchQuery, matches)
	return err
}

func (s *TournamentStore) GetMatches(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (bracket.Schedule, error) {
	if q == nil {
		q = s.db
	}
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY sequence ASC", tournamentID)
	return bracket.Schedule(matches), err
}

func (s *TournamentStore) GetMatchesByRound(ctx context.Context, tournamentID uuid.UUID, round bracket.RoundName) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE tournament_id = ? AND round = ? ORDER BY sequence ASC", tournamentID, round)
	return matches, err
}

// DeleteMatches removes the matches of the given rounds, or the whole schedule when none are given.
func (s *TournamentStore) DeleteMatches(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID, rounds ...bracket.RoundName) error {
	if len(rounds) == 0 {
		_, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ?", tournamentID)
		return err
	}
	query, args, err := sqlx.In("DELETE FROM matches WHERE tournament_id = ? AND round IN (?)", tournamentID, rounds)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func (s *TournamentStore) UpdateMatchResult(ctx context.Context, tx sqlx.ExtContext, match *bracket.Match) error {
	res, err := sqlx.NamedExecContext(ctx, tx, updateMatchResultQuery, match)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bracket.ErrMatchNotFound
	}
	return nil
}
