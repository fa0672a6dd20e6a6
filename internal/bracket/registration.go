package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        *string   `db:"email" json:"email,omitempty"`
	SlotNumber   *int      `db:"slot_number" json:"slot_number,omitempty"`
	RoundLabel   string    `db:"round_label" json:"round_label"`
	RoundIndex   int       `db:"round_index" json:"round_index"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TakenSlots returns the slot numbers already assigned within a tournament.
func TakenSlots(tournamentID uuid.UUID, registrations []Registration) []int {
	slots := make([]int, 0, len(registrations))
	for _, r := range registrations {
		if r.TournamentID == tournamentID && r.SlotNumber != nil {
			slots = append(slots, *r.SlotNumber)
		}
	}
	return slots
}
