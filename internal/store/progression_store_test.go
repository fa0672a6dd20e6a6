package store

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewProgressionStore(db)
	tournament := createTestTournament(t, db)

	missing, err := store.GetProgression(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now().UTC()
	p := bracket.NewProgression(tournament.ID, "admin", now)
	require.NoError(t, store.SaveProgression(ctx, db, p))

	require.NoError(t, p.CompleteRound(bracket.RoundOf32, "judge", now))
	p.CurrentRound = bracket.RoundOf16
	require.NoError(t, store.SaveProgression(ctx, db, p))

	fetched, err := store.GetProgression(ctx, nil, tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, bracket.RoundOf16, fetched.CurrentRound)
	assert.Equal(t, "judge", fetched.LastUpdatedBy)
	require.Len(t, fetched.Rounds, 6)
	assert.Equal(t, bracket.RoundOf32, fetched.Rounds[0].Name)
	assert.True(t, fetched.Rounds[0].IsCompleted)
	assert.Equal(t, bracket.Final, fetched.Rounds[5].Name)
	assert.Equal(t, []bracket.RoundName{bracket.RoundOf32}, fetched.CompletedRounds())

	require.NoError(t, store.DeleteProgression(ctx, db, tournament.ID))
	gone, err := store.GetProgression(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var rounds int
	require.NoError(t, db.Get(&rounds, "SELECT COUNT(*) FROM progression_rounds WHERE tournament_id = ?", tournament.ID))
	assert.Zero(t, rounds)
}

func TestAuditAppendAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewAuditStore(db)
	tournament := createTestTournament(t, db)

	require.NoError(t, store.Append(ctx, db, audit.New(tournament.ID, "admin", audit.ActionRoundPopulated, "tournament", tournament.ID.String(), "Round of 32")))
	require.NoError(t, store.Append(ctx, db, audit.New(tournament.ID, "admin", audit.ActionScheduleCleared, "tournament", tournament.ID.String(), "")))
	require.NoError(t, store.Append(ctx, db, audit.New(uuid.New(), "admin", audit.ActionScheduleCleared, "tournament", "x", "")))

	entries, err := store.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionRoundPopulated, entries[0].Action)
	assert.Equal(t, "Round of 32", entries[0].Details)
	assert.Equal(t, audit.ActionScheduleCleared, entries[1].Action)
	require.NotNil(t, entries[1].TournamentID)
	assert.Equal(t, tournament.ID, *entries[1].TournamentID)
}
