package audit

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionTournamentCreated   Action = "tournament_created"
	ActionTournamentArchived  Action = "tournament_archived"
	ActionTournamentCompleted Action = "tournament_completed"
	ActionRegistrationCreated Action = "registration_created"
	ActionRegistrationDeleted Action = "registration_deleted"
	ActionRoundPopulated      Action = "round_populated"
	ActionRoundPublished      Action = "round_published"
	ActionProgressionFixed    Action = "progression_fixed"
	ActionScheduleCleared     Action = "schedule_cleared"
	ActionProgressionReset    Action = "progression_regenerated"
	ActionWinnerRecorded      Action = "match_winner_recorded"
)

type Entry struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TournamentID *uuid.UUID `db:"tournament_id" json:"tournament_id,omitempty"`
	AdminUser    string     `db:"admin_user" json:"admin_user"`
	Action       Action     `db:"action" json:"action"`
	ResourceType string     `db:"resource_type" json:"resource_type"`
	ResourceID   string     `db:"resource_id" json:"resource_id"`
	Details      string     `db:"details" json:"details"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

func New(tournamentID uuid.UUID, adminUser string, action Action, resourceType, resourceID, details string) *Entry {
	return &Entry{
		ID:           uuid.New(),
		TournamentID: &tournamentID,
		AdminUser:    adminUser,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
}
