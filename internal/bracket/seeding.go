package bracket

import (
	"sort"

	"github.com/google/uuid"
)

// SeedRoundOf32 pairs the registrant at sorted position i with the one at 31-i,
// so slot 1 meets slot 32, slot 2 meets slot 31 and so on. A pairing with a
// missing side is skipped, so partial rosters produce fewer than 16 matches.
func SeedRoundOf32(tournamentID uuid.UUID, registrations []Registration) []Match {
	sorted := sortBySlot(tournamentID, registrations)
	last := RoundOf32.ExpectedMatches()*2 - 1

	var matches []Match
	for i := 0; i < RoundOf32.ExpectedMatches(); i++ {
		j := last - i
		if i >= len(sorted) || j >= len(sorted) {
			continue
		}
		matches = append(matches, newMatch(tournamentID, RoundOf32, i+1, sorted[i].FullName, sorted[j].FullName))
	}
	return matches
}

// Registrations without a slot sort after every assigned slot, oldest first.
func sortBySlot(tournamentID uuid.UUID, registrations []Registration) []Registration {
	sorted := make([]Registration, 0, len(registrations))
	for _, r := range registrations {
		if r.TournamentID == tournamentID {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].SlotNumber, sorted[j].SlotNumber
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
