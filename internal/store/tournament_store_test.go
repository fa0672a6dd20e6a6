package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every connection would otherwise get its own empty database
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

func createTestTournament(t *testing.T, db *sqlx.DB) *bracket.Tournament {
	t.Helper()

	tournament := &bracket.Tournament{
		ID:        uuid.New(),
		OwnerID:   admin.SystemID,
		Name:      "Test Tournament",
		EventDate: utils.StringOrNil("2026-11-01"),
		Capacity:  bracket.Capacity,
		Status:    bracket.TournamentUpcoming,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = NewTournamentStore(db).CreateTournament(context.Background(), tx, tournament)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return tournament
}

func TestCreateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	tournament := createTestTournament(t, db)

	fetched, err := store.GetTournament(context.Background(), nil, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, fetched.ID)
	assert.Equal(t, tournament.OwnerID, fetched.OwnerID)
	assert.Equal(t, tournament.Name, fetched.Name)
	assert.Equal(t, "2026-11-01", utils.OrZero(fetched.EventDate))
	assert.Equal(t, bracket.Capacity, fetched.Capacity)
	assert.Equal(t, bracket.TournamentUpcoming, fetched.Status)
	assert.Nil(t, fetched.CompletedAt)
	assert.WithinDuration(t, tournament.CreatedAt, fetched.CreatedAt, time.Second)

	_, err = store.GetTournament(context.Background(), nil, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestMarkCompleted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament := createTestTournament(t, db)
	now := time.Now().UTC()

	changed, err := store.MarkCompleted(ctx, db, tournament.ID, admin.SystemName, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.MarkCompleted(ctx, db, tournament.ID, "someone else", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	fetched, err := store.GetTournament(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsCompleted())
	assert.Equal(t, admin.SystemName, utils.OrZero(fetched.CompletedBy))
	require.NotNil(t, fetched.CompletedAt)
	assert.WithinDuration(t, now, *fetched.CompletedAt, time.Second)
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament := createTestTournament(t, db)

	require.NoError(t, store.UpdateStatus(ctx, db, tournament.ID, bracket.TournamentOngoing))
	fetched, err := store.GetTournament(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentOngoing, fetched.Status)

	assert.Error(t, store.UpdateStatus(ctx, db, tournament.ID, bracket.TournamentStatus("Paused")))
}

func TestCreateMatches(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament := createTestTournament(t, db)

	regs := make([]bracket.Registration, 0, 32)
	for i := 1; i <= 32; i++ {
		regs = append(regs, bracket.Registration{
			TournamentID: tournament.ID,
			FullName:     fmt.Sprintf("Player %02d", i),
			SlotNumber:   utils.Ptr(i),
		})
	}
	matches := bracket.SeedRoundOf32(tournament.ID, regs)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateMatches(ctx, tx, matches))
	require.NoError(t, tx.Commit())

	fetched, err := store.GetMatches(ctx, nil, tournament.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 16)

	for i, m := range fetched {
		assert.Equal(t, matches[i].ID, m.ID)
		assert.Equal(t, i+1, m.Sequence)
		assert.Equal(t, matches[i].Code, m.Code)
		assert.Equal(t, bracket.RoundOf32, m.Round)
		assert.Equal(t, *matches[i].Player1, *m.Player1)
		assert.Equal(t, *matches[i].Player2, *m.Player2)
		assert.Nil(t, m.Winner)
		assert.False(t, m.IsCompleted)
	}

	byRound, err := store.GetMatchesByRound(ctx, tournament.ID, bracket.RoundOf32)
	require.NoError(t, err)
	assert.Len(t, byRound, 16)

	// the sequence is unique per tournament
	dup := bracket.SeedRoundOf32(tournament.ID, regs)[:1]
	err = store.CreateMatches(ctx, db, dup)
	assert.Error(t, err)
}

func TestUpdateAndDeleteMatches(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament := createTestTournament(t, db)

	regs := make([]bracket.Registration, 0, 32)
	for i := 1; i <= 32; i++ {
		regs = append(regs, bracket.Registration{TournamentID: tournament.ID, FullName: uuid.NewString(), SlotNumber: utils.Ptr(i)})
	}
	schedule := bracket.Schedule(bracket.SeedRoundOf32(tournament.ID, regs))
	for i := range schedule {
		schedule[i].Winner = schedule[i].Player1
		schedule[i].IsCompleted = true
	}
	_, r16, err := bracket.Advance(tournament.ID, schedule, bracket.RoundOf32)
	require.NoError(t, err)

	require.NoError(t, store.CreateMatches(ctx, db, schedule))
	require.NoError(t, store.CreateMatches(ctx, db, r16))

	m := r16[0]
	m.Winner = m.Player2
	m.IsCompleted = true
	m.CompletedAt = utils.Ptr(time.Now().UTC())
	m.CompletedBy = utils.Ptr("judge")
	require.NoError(t, store.UpdateMatchResult(ctx, db, &m))

	fetched, err := store.GetMatchesByRound(ctx, tournament.ID, bracket.RoundOf16)
	require.NoError(t, err)
	require.Len(t, fetched, 8)
	assert.Equal(t, *m.Player2, *fetched[0].Winner)
	assert.True(t, fetched[0].IsCompleted)
	assert.Equal(t, "judge", utils.OrZero(fetched[0].CompletedBy))

	missing := bracket.Match{ID: uuid.New()}
	assert.ErrorIs(t, store.UpdateMatchResult(ctx, db, &missing), bracket.ErrMatchNotFound)

	require.NoError(t, store.DeleteMatches(ctx, db, tournament.ID, bracket.RoundOf16, bracket.Quarterfinal))
	all, err := store.GetMatches(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, all, 16)
	assert.False(t, all.Has(bracket.RoundOf16))

	require.NoError(t, store.DeleteMatches(ctx, db, tournament.ID))
	all, err = store.GetMatches(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
