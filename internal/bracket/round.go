package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RoundName string

const (
	RoundOf32    RoundName = "Round of 32"
	RoundOf16    RoundName = "Round of 16"
	Quarterfinal RoundName = "Quarterfinal"
	Semifinal    RoundName = "Semifinal"
	ThirdPlace   RoundName = "3rd Place Match"
	Final        RoundName = "Final"
)

var roundOrder = []RoundName{RoundOf32, RoundOf16, Quarterfinal, Semifinal, ThirdPlace, Final}

var expectedMatches = map[RoundName]int{
	RoundOf32:    16,
	RoundOf16:    8,
	Quarterfinal: 4,
	Semifinal:    2,
	ThirdPlace:   1,
	Final:        1,
}

// Rounds lists every round in progression order.
func Rounds() []RoundName {
	out := make([]RoundName, len(roundOrder))
	copy(out, roundOrder)
	return out
}

func ParseRound(s string) (RoundName, error) {
	for _, r := range roundOrder {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRound, s)
}

func (r RoundName) ExpectedMatches() int {
	return expectedMatches[r]
}

func (r RoundName) Order() int {
	for i, name := range roundOrder {
		if name == r {
			return i + 1
		}
	}
	return 0
}

type Round struct {
	TournamentID uuid.UUID  `db:"tournament_id" json:"-"`
	Name         RoundName  `db:"name" json:"name"`
	Order        int        `db:"round_order" json:"order"`
	MaxMatches   int        `db:"max_matches" json:"max_matches"`
	IsCompleted  bool       `db:"is_completed" json:"is_completed"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy  *string    `db:"completed_by" json:"completed_by,omitempty"`
}

func (r *Round) reset() {
	r.IsCompleted = false
	r.CompletedAt = nil
	r.CompletedBy = nil
}

// Progression is the per-tournament record of which rounds have been published.
type Progression struct {
	TournamentID  uuid.UUID `db:"tournament_id" json:"tournament_id"`
	CurrentRound  RoundName `db:"current_round" json:"current_round"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
	LastUpdatedBy string    `db:"last_updated_by" json:"last_updated_by"`
	Rounds        []Round   `db:"-" json:"rounds"`
}

func NewProgression(tournamentID uuid.UUID, admin string, now time.Time) *Progression {
	p := &Progression{
		TournamentID:  tournamentID,
		CurrentRound:  RoundOf32,
		LastUpdated:   now,
		LastUpdatedBy: admin,
	}
	for _, name := range roundOrder {
		p.Rounds = append(p.Rounds, Round{
			TournamentID: tournamentID,
			Name:         name,
			Order:        name.Order(),
			MaxMatches:   name.ExpectedMatches(),
		})
	}
	return p
}

func (p *Progression) Touch(admin string, now time.Time) {
	p.LastUpdated = now
	p.LastUpdatedBy = admin
}

// Reset returns every round to its uncompleted state and rewinds to the Round of 32.
func (p *Progression) Reset(admin string, now time.Time) {
	p.CurrentRound = RoundOf32
	for i := range p.Rounds {
		p.Rounds[i].reset()
	}
	p.Touch(admin, now)
}

func (p *Progression) Round(name RoundName) *Round {
	for i := range p.Rounds {
		if p.Rounds[i].Name == name {
			return &p.Rounds[i]
		}
	}
	return nil
}

func (p *Progression) CompleteRound(name RoundName, admin string, now time.Time) error {
	r := p.Round(name)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrUnknownRound, name)
	}
	r.IsCompleted = true
	r.CompletedAt = &now
	r.CompletedBy = &admin
	p.Touch(admin, now)
	return nil
}

func (p *Progression) CompletedRounds() []RoundName {
	var out []RoundName
	for _, r := range p.Rounds {
		if r.IsCompleted {
			out = append(out, r.Name)
		}
	}
	return out
}

func (p *Progression) PendingRounds() []RoundName {
	var out []RoundName
	for _, r := range p.Rounds {
		if !r.IsCompleted {
			out = append(out, r.Name)
		}
	}
	return out
}
