package bracket

import "github.com/google/uuid"

// RemainingSlots counts the open places left in a tournament, never going below zero.
func RemainingSlots(tournamentID uuid.UUID, registrations []Registration) int {
	count := 0
	for _, r := range registrations {
		if r.TournamentID == tournamentID {
			count++
		}
	}
	return max(0, Capacity-count)
}

func IsFull(tournamentID uuid.UUID, registrations []Registration) bool {
	return RemainingSlots(tournamentID, registrations) == 0
}
