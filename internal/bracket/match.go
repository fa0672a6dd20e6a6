package bracket

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Sequence orders matches across the whole bracket (1..32). Code is display only.
	Sequence int       `db:"sequence" json:"sequence"`
	Code     string    `db:"code" json:"code"`
	Round    RoundName `db:"round" json:"round"`

	Player1 *string `db:"player_1" json:"player_1,omitempty"`
	Player2 *string `db:"player_2" json:"player_2,omitempty"`

	// Sequence of the match whose winner fills an unresolved player position
	Source1 *int `db:"source_1" json:"source_1,omitempty"`
	Source2 *int `db:"source_2" json:"source_2,omitempty"`

	Winner      *string    `db:"winner" json:"winner,omitempty"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy *string    `db:"completed_by" json:"completed_by,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func MatchCode(round RoundName, sequence int) string {
	switch round {
	case Final:
		return fmt.Sprintf("M%d (Final)", sequence)
	case ThirdPlace:
		return fmt.Sprintf("M%d (3rd Place)", sequence)
	default:
		return fmt.Sprintf("M%d", sequence)
	}
}

func newMatch(tournamentID uuid.UUID, round RoundName, sequence int, p1, p2 string) Match {
	return Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Sequence:     sequence,
		Code:         MatchCode(round, sequence),
		Round:        round,
		Player1:      &p1,
		Player2:      &p2,
	}
}

// IsDecided reports whether the match is completed with a recorded winner.
func (m *Match) IsDecided() bool {
	return m.IsCompleted && m.Winner != nil && *m.Winner != ""
}

func (m *Match) HasPlayer(name string) bool {
	return (m.Player1 != nil && *m.Player1 == name) || (m.Player2 != nil && *m.Player2 == name)
}

// Names returns the resolved players of the match.
func (m *Match) Names() []string {
	var names []string
	if m.Player1 != nil && *m.Player1 != "" {
		names = append(names, *m.Player1)
	}
	if m.Player2 != nil && *m.Player2 != "" {
		names = append(names, *m.Player2)
	}
	return names
}

// Loser returns the named player who did not win a decided match.
func (m *Match) Loser() (string, bool) {
	if !m.IsDecided() || m.Player1 == nil || m.Player2 == nil {
		return "", false
	}
	switch *m.Winner {
	case *m.Player1:
		return *m.Player2, true
	case *m.Player2:
		return *m.Player1, true
	}
	return "", false
}

// Players renders the players descriptor, e.g. "Ann vs Bob" or "Winner of M17 vs Winner of M18".
func (m *Match) Players() string {
	return describe(m.Player1, m.Source1) + " vs " + describe(m.Player2, m.Source2)
}

func describe(name *string, source *int) string {
	if name != nil && *name != "" {
		return *name
	}
	if source != nil {
		return fmt.Sprintf("Winner of M%d", *source)
	}
	return "TBD"
}

// Schedule is the full set of matches of one tournament, in no particular order.
type Schedule []Match

// Round returns the matches of one round ordered by sequence.
func (s Schedule) Round(name RoundName) []Match {
	var out []Match
	for _, m := range s {
		if m.Round == name {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

func (s Schedule) Has(name RoundName) bool {
	for _, m := range s {
		if m.Round == name {
			return true
		}
	}
	return false
}

func (s Schedule) Find(code string) (*Match, bool) {
	for i := range s {
		if s[i].Code == code {
			return &s[i], true
		}
	}
	return nil, false
}

// Winners lists the winners of a round's decided matches in sequence order.
func (s Schedule) Winners(name RoundName) []string {
	var winners []string
	for _, m := range s.Round(name) {
		if m.IsDecided() {
			winners = append(winners, *m.Winner)
		}
	}
	return winners
}
