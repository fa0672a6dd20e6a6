package bracket

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster(tournamentID uuid.UUID, n int) []Registration {
	regs := make([]Registration, 0, n)
	for i := 1; i <= n; i++ {
		slot := i
		regs = append(regs, Registration{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			FullName:     fmt.Sprintf("Player %02d", i),
			SlotNumber:   &slot,
			CreatedAt:    time.Now(),
		})
	}
	return regs
}

// decide records player 1 as the winner of every match in the round.
func decide(schedule Schedule, round RoundName) {
	for i := range schedule {
		if schedule[i].Round == round {
			schedule[i].Winner = schedule[i].Player1
			schedule[i].IsCompleted = true
		}
	}
}

func advanceThrough(t *testing.T, tournamentID uuid.UUID, schedule Schedule, rounds ...RoundName) Schedule {
	t.Helper()
	for _, r := range rounds {
		decide(schedule, r)
		_, next, err := Advance(tournamentID, schedule, r)
		require.NoError(t, err)
		schedule = append(schedule, next...)
	}
	return schedule
}

func TestRemainingSlots(t *testing.T) {
	tid := uuid.New()
	other := roster(uuid.New(), 5)

	testCases := []struct {
		name      string
		count     int
		remaining int
		full      bool
	}{
		{"empty", 0, 32, false},
		{"one", 1, 31, false},
		{"almost full", 31, 1, false},
		{"full", 32, 0, true},
		{"over capacity", 40, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			regs := append(roster(tid, tc.count), other...)
			assert.Equal(t, tc.remaining, RemainingSlots(tid, regs))
			assert.Equal(t, tc.full, IsFull(tid, regs))
		})
	}
}

func TestRemainingSlotsNonIncreasing(t *testing.T) {
	tid := uuid.New()
	all := roster(tid, 32)
	prev := RemainingSlots(tid, nil)
	for i := 1; i <= len(all); i++ {
		cur := RemainingSlots(tid, all[:i])
		assert.LessOrEqual(t, cur, prev)
		assert.Equal(t, cur == 0, IsFull(tid, all[:i]))
		prev = cur
	}
}

func TestSeedRoundOf32(t *testing.T) {
	tid := uuid.New()
	regs := roster(tid, 32)
	// registration order must not matter
	regs[0], regs[20] = regs[20], regs[0]

	matches := SeedRoundOf32(tid, regs)
	require.Len(t, matches, 16)

	for k, m := range matches {
		slot := k + 1
		assert.Equal(t, slot, m.Sequence)
		assert.Equal(t, fmt.Sprintf("M%d", slot), m.Code)
		assert.Equal(t, RoundOf32, m.Round)
		assert.Equal(t, fmt.Sprintf("Player %02d", slot), *m.Player1)
		assert.Equal(t, fmt.Sprintf("Player %02d", 33-slot), *m.Player2)
	}
}

func TestSeedRoundOf32PartialRoster(t *testing.T) {
	tid := uuid.New()

	testCases := []struct {
		name     string
		count    int
		expected int
	}{
		{"empty", 0, 0},
		{"one", 1, 0},
		{"twenty", 20, 4},
		{"thirty one", 31, 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, SeedRoundOf32(tid, roster(tid, tc.count)), tc.expected)
		})
	}
}

func TestSeedRoundOf32UnassignedSlotsSortLast(t *testing.T) {
	tid := uuid.New()
	regs := roster(tid, 32)
	regs[0].SlotNumber = nil
	regs[0].FullName = "Late"

	matches := SeedRoundOf32(tid, regs)
	require.Len(t, matches, 16)
	assert.Equal(t, "Player 02", *matches[0].Player1)
	assert.Equal(t, "Late", *matches[0].Player2)
}

func TestAdvanceRoundOf16Pairing(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	decide(schedule, RoundOf32)

	tr, next, err := Advance(tid, schedule, RoundOf32)
	require.NoError(t, err)
	assert.Equal(t, []RoundName{RoundOf16}, tr.Targets)
	require.Len(t, next, 8)

	winners := schedule.Winners(RoundOf32)
	for i, m := range next {
		assert.Equal(t, 17+i, m.Sequence)
		assert.Equal(t, fmt.Sprintf("M%d", 17+i), m.Code)
		assert.Equal(t, RoundOf16, m.Round)
		assert.Equal(t, winners[2*i], *m.Player1)
		assert.Equal(t, winners[2*i+1], *m.Player2)
		assert.False(t, m.IsCompleted)
	}
}

func TestAdvanceUsesSequenceOrder(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	decide(schedule, RoundOf32)

	// stored order is irrelevant, only sequence counts
	reversed := make(Schedule, len(schedule))
	for i := range schedule {
		reversed[len(schedule)-1-i] = schedule[i]
	}

	_, a, err := Advance(tid, schedule, RoundOf32)
	require.NoError(t, err)
	_, b, err := Advance(tid, reversed, RoundOf32)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, *a[i].Player1, *b[i].Player1)
		assert.Equal(t, *a[i].Player2, *b[i].Player2)
	}
}

func TestAdvanceIncompletePrecondition(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	decide(schedule, RoundOf32)
	schedule[5].Winner = nil

	_, next, err := Advance(tid, schedule, RoundOf32)
	assert.ErrorIs(t, err, ErrIncompletePrecondition)
	assert.Nil(t, next)

	_, _, err = Advance(tid, Schedule(SeedRoundOf32(tid, roster(tid, 20))), RoundOf32)
	assert.ErrorIs(t, err, ErrIncompletePrecondition)

	_, _, err = Advance(tid, schedule, Final)
	assert.ErrorIs(t, err, ErrUnknownRound)
}

func TestAdvanceRejectsForeignWinner(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	decide(schedule, RoundOf32)
	intruder := "Intruder"
	schedule[3].Winner = &intruder

	_, _, err := Advance(tid, schedule, RoundOf32)
	assert.ErrorIs(t, err, ErrIntegrityViolation)
}

func TestAdvanceToFinals(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	schedule = advanceThrough(t, tid, schedule, RoundOf32, RoundOf16, Quarterfinal)

	require.Len(t, schedule.Round(Quarterfinal), 4)
	assert.Equal(t, 25, schedule.Round(Quarterfinal)[0].Sequence)
	require.Len(t, schedule.Round(Semifinal), 2)
	assert.Equal(t, "M30", schedule.Round(Semifinal)[1].Code)

	// second semifinal goes to player 2
	for i := range schedule {
		if schedule[i].Round == Semifinal {
			if schedule[i].Sequence == 29 {
				schedule[i].Winner = schedule[i].Player1
			} else {
				schedule[i].Winner = schedule[i].Player2
			}
			schedule[i].IsCompleted = true
		}
	}
	sf := schedule.Round(Semifinal)

	tr, next, err := Advance(tid, schedule, Semifinal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []RoundName{Final, ThirdPlace}, tr.Targets)
	require.Len(t, next, 2)

	final, third := next[0], next[1]
	assert.Equal(t, "M31 (Final)", final.Code)
	assert.Equal(t, *sf[0].Player1, *final.Player1)
	assert.Equal(t, *sf[1].Player2, *final.Player2)
	assert.Equal(t, "M32 (3rd Place)", third.Code)
	assert.Equal(t, *sf[0].Player2, *third.Player1)
	assert.Equal(t, *sf[1].Player1, *third.Player2)
}

func TestIsConcluded(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	schedule = advanceThrough(t, tid, schedule, RoundOf32, RoundOf16, Quarterfinal, Semifinal)
	assert.False(t, IsConcluded(schedule))

	decide(schedule, Final)
	assert.False(t, IsConcluded(schedule), "3rd place still open")

	decide(schedule, ThirdPlace)
	assert.True(t, IsConcluded(schedule))
	assert.False(t, IsConcluded(nil))
}

func TestCanPublish(t *testing.T) {
	tid := uuid.New()
	schedule := Schedule(SeedRoundOf32(tid, roster(tid, 32)))
	assert.False(t, CanPublish(schedule, RoundOf32))
	assert.False(t, CanPublish(schedule, RoundOf16))
	decide(schedule, RoundOf32)
	assert.True(t, CanPublish(schedule, RoundOf32))
}

func TestMatchPlayersDescriptor(t *testing.T) {
	a, b := "Ann", "Bob"
	src := 17
	assert.Equal(t, "Ann vs Bob", (&Match{Player1: &a, Player2: &b}).Players())
	assert.Equal(t, "Ann vs Winner of M17", (&Match{Player1: &a, Source2: &src}).Players())
	assert.Equal(t, "TBD vs TBD", (&Match{}).Players())

	m := Match{Player1: &a, Player2: &b, Winner: &b, IsCompleted: true}
	loser, ok := m.Loser()
	assert.True(t, ok)
	assert.Equal(t, "Ann", loser)
}

func TestProgressionLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := NewProgression(uuid.New(), "admin", now)

	require.Len(t, p.Rounds, 6)
	assert.Equal(t, RoundOf32, p.CurrentRound)
	assert.Equal(t, 16, p.Round(RoundOf32).MaxMatches)
	assert.Equal(t, 5, p.Round(ThirdPlace).Order)
	assert.Equal(t, 6, p.Round(Final).Order)

	require.NoError(t, p.CompleteRound(RoundOf32, "judge", now))
	assert.Equal(t, []RoundName{RoundOf32}, p.CompletedRounds())
	assert.Len(t, p.PendingRounds(), 5)
	assert.Equal(t, "judge", *p.Round(RoundOf32).CompletedBy)
	assert.ErrorIs(t, p.CompleteRound("Round of 64", "judge", now), ErrUnknownRound)

	p.CurrentRound = Quarterfinal
	p.Reset("admin", now)
	assert.Equal(t, RoundOf32, p.CurrentRound)
	assert.Empty(t, p.CompletedRounds())
	assert.Nil(t, p.Round(RoundOf32).CompletedAt)
}

func TestParseRound(t *testing.T) {
	r, err := ParseRound("Quarterfinal")
	require.NoError(t, err)
	assert.Equal(t, Quarterfinal, r)

	_, err = ParseRound("Round of 64")
	assert.ErrorIs(t, err, ErrUnknownRound)
}
