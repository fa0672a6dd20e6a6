package store

import (
	"context"

	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

const appendAuditQuery = `
	INSERT INTO audit_log (id, tournament_id, admin_user, action, resource_type, resource_id, details, created_at)
	VALUES (:id, :tournament_id, :admin_user, :action, :resource_type, :resource_id, :details, :created_at)
`

func (s *AuditStore) Append(ctx context.Context, tx sqlx.ExtContext, entry *audit.Entry) error {
	_, err := sqlx.NamedExecContext(ctx, tx, appendAuditQuery, entry)
	return err
}

func (s *AuditStore) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]audit.Entry, error) {
	var entries []audit.Entry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM audit_log WHERE tournament_id = ? ORDER BY created_at ASC, rowid ASC", tournamentID)
	return entries, err
}
