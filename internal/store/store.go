package store

import "github.com/jmoiron/sqlx"

// Stores bundles every table store over one database handle.
type Stores struct {
	Tournaments   *TournamentStore
	Registrations *RegistrationStore
	Progressions  *ProgressionStore
	Audit         *AuditStore
	Admins        *AdminStore
}

func New(db *sqlx.DB) *Stores {
	return &Stores{
		Tournaments:   NewTournamentStore(db),
		Registrations: NewRegistrationStore(db),
		Progressions:  NewProgressionStore(db),
		Audit:         NewAuditStore(db),
		Admins:        NewAdminStore(db),
	}
}
