package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Notifier is told about every committed change to a tournament.
type Notifier interface {
	BracketUpdated(tournamentID uuid.UUID, action audit.Action, current bracket.RoundName)
}

type nopNotifier struct{}

func (nopNotifier) BracketUpdated(uuid.UUID, audit.Action, bracket.RoundName) {}

// base carries what every mutating service shares: the database, the stores,
// the per-tournament locks and the change notifier.
type base struct {
	db       *sqlx.DB
	stores   *store.Stores
	locks    *lock.Keyed
	notifier Notifier
	now      func() time.Time
}

func newBase(db *sqlx.DB, stores *store.Stores, locks *lock.Keyed, notifier Notifier) base {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return base{
		db:       db,
		stores:   stores,
		locks:    locks,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// change is what a committed mutation reports: its audit entry and the
// tournament's current round afterwards. A nil change means nothing happened.
type change struct {
	entry   *audit.Entry
	current bracket.RoundName
}

// mutate runs fn as one critical section for the tournament: lock, transaction,
// audit entry, commit, then notification. Any error rolls everything back.
func (b *base) mutate(ctx context.Context, tournamentID uuid.UUID, fn func(tx *sqlx.Tx) (*change, error)) error {
	unlock, err := b.locks.Lock(ctx, tournamentID)
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback()

	c, err := fn(tx)
	if err != nil {
		return err
	}

	if c != nil && c.entry != nil {
		if err := b.stores.Audit.Append(ctx, tx, c.entry); err != nil {
			return storeErr("append audit entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}

	if c != nil && c.entry != nil {
		slog.Info("tournament updated",
			"tournament_id", tournamentID,
			"action", c.entry.Action,
			"admin", c.entry.AdminUser,
			"details", c.entry.Details,
		)
		b.notifier.BracketUpdated(tournamentID, c.entry.Action, c.current)
	}
	return nil
}

// progression loads the tournament's progression record, creating a fresh one
// in memory when none has been stored yet.
func (b *base) progression(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, admin string) (*bracket.Progression, error) {
	p, err := b.stores.Progressions.GetProgression(ctx, q, tournamentID)
	if err != nil {
		return nil, storeErr("get progression", err)
	}
	if p == nil {
		p = bracket.NewProgression(tournamentID, admin, b.now())
	}
	return p, nil
}

// clearSchedule wipes every match and resets the progression record.
func (b *base) clearSchedule(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, admin string) (*bracket.Progression, error) {
	if err := b.stores.Tournaments.DeleteMatches(ctx, tx, tournamentID); err != nil {
		return nil, storeErr("delete matches", err)
	}
	p, err := b.progression(ctx, tx, tournamentID, admin)
	if err != nil {
		return nil, err
	}
	p.Reset(admin, b.now())
	if err := b.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
		return nil, storeErr("save progression", err)
	}
	return p, nil
}

// storeErr marks a storage failure as ErrPersistence, leaving domain errors untouched.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bracket.ErrNotFound) || errors.Is(err, bracket.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, bracket.ErrPersistence, err)
}
