package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "Upcoming"
	TournamentOngoing   TournamentStatus = "Ongoing"
	TournamentCompleted TournamentStatus = "Completed"
	TournamentCancelled TournamentStatus = "Cancelled"
)

// Capacity is the fixed field size of every tournament.
const Capacity = 32

type Tournament struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	OwnerID     uuid.UUID        `db:"owner_id" json:"owner_id"`
	Name        string           `db:"name" json:"name"`
	EventDate   *string          `db:"event_date" json:"event_date,omitempty"`
	Capacity    int              `db:"capacity" json:"capacity"`
	Status      TournamentStatus `db:"status" json:"status"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy *string          `db:"completed_by" json:"completed_by,omitempty"`
	ArchivedAt  *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

func (t *Tournament) IsCompleted() bool {
	return t.Status == TournamentCompleted
}
