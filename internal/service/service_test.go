package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/slots"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testAdmin = "judge"

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type notification struct {
	tournamentID uuid.UUID
	action       audit.Action
	current      bracket.RoundName
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) BracketUpdated(tournamentID uuid.UUID, action audit.Action, current bracket.RoundName) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{tournamentID, action, current})
}

func (n *recordingNotifier) actions() []audit.Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]audit.Action, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.action)
	}
	return out
}

type testEnv struct {
	db            *sqlx.DB
	stores        *store.Stores
	notifier      *recordingNotifier
	tournaments   *TournamentService
	registrations *RegistrationService
	progression   *ProgressionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	stores := store.New(db)
	locks := lock.NewKeyed()
	notifier := &recordingNotifier{}

	return &testEnv{
		db:            db,
		stores:        stores,
		notifier:      notifier,
		tournaments:   NewTournamentService(db, stores, locks, notifier),
		registrations: NewRegistrationService(db, stores, locks, notifier, slots.NewAllocatorWithSource(rand.NewPCG(7, 11)), slots.NewCycler()),
		progression:   NewProgressionService(db, stores, locks, notifier),
	}
}

func (e *testEnv) createTournament(t *testing.T) uuid.UUID {
	t.Helper()
	tournament, err := e.tournaments.CreateTournament(context.Background(), TournamentInput{Name: "Autumn Open", EventDate: "2026-11-01"}, admin.SystemID, testAdmin)
	require.NoError(t, err)
	return tournament.ID
}

func (e *testEnv) register(t *testing.T, tournamentID uuid.UUID, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := e.registrations.Register(context.Background(), tournamentID, RegistrationInput{FullName: fmt.Sprintf("Player %02d", i)}, "public")
		require.NoError(t, err)
	}
}

// decideRound records player 1 as the winner of every match in the round.
func (e *testEnv) decideRound(t *testing.T, tournamentID uuid.UUID, round bracket.RoundName) {
	t.Helper()
	ctx := context.Background()
	matches, err := e.progression.GetMatchesByRound(ctx, tournamentID, round)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		_, err := e.progression.RecordMatchWinner(ctx, tournamentID, m.Code, *m.Player1, testAdmin)
		require.NoError(t, err)
	}
}

func (e *testEnv) schedule(t *testing.T, tournamentID uuid.UUID) bracket.Schedule {
	t.Helper()
	s, err := e.stores.Tournaments.GetMatches(context.Background(), nil, tournamentID)
	require.NoError(t, err)
	return s
}

// slotNames maps each slot number to the registrant holding it.
func (e *testEnv) slotNames(t *testing.T, tournamentID uuid.UUID) map[int]string {
	t.Helper()
	regs, err := e.registrations.ListRegistrations(context.Background(), tournamentID)
	require.NoError(t, err)
	names := make(map[int]string, len(regs))
	for _, r := range regs {
		require.NotNil(t, r.SlotNumber)
		names[*r.SlotNumber] = r.FullName
	}
	return names
}
