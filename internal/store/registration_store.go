package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RegistrationStore struct {
	db *sqlx.DB
}

func NewRegistrationStore(db *sqlx.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

const createRegistrationQuery = `
	INSERT INTO registrations (id, tournament_id, full_name, email, slot_number, round_label, round_index, created_at)
	VALUES (:id, :tournament_id, :full_name, :email, :slot_number, :round_label, :round_index, :created_at)
`

func (s *RegistrationStore) ListByTournament(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	if q == nil {
		q = s.db
	}
	var registrations []bracket.Registration
	err := sqlx.SelectContext(ctx, q, &registrations,
		"SELECT * FROM registrations WHERE tournament_id = ? ORDER BY created_at ASC, id ASC", tournamentID)
	return registrations, err
}

func (s *RegistrationStore) GetRegistration(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Registration, error) {
	if q == nil {
		q = s.db
	}
	var registration bracket.Registration
	err := sqlx.GetContext(ctx, q, &registration, "SELECT * FROM registrations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bracket.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// Create fails on the (tournament_id, slot_number) unique index if the slot is already held.
func (s *RegistrationStore) Create(ctx context.Context, tx sqlx.ExtContext, registration *bracket.Registration) error {
	_, err := sqlx.NamedExecContext(ctx, tx, createRegistrationQuery, registration)
	return err
}

func (s *RegistrationStore) Delete(ctx context.Context, tx sqlx.ExtContext, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bracket.ErrRegistrationNotFound
	}
	return nil
}

func (s *RegistrationStore) Count(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (int, error) {
	if q == nil {
		q = s.db
	}
	var n int
	err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM registrations WHERE tournament_id = ?", tournamentID)
	return n, err
}
