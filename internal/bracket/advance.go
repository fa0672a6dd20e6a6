package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// Transition describes how a fully decided round produces the next one.
type Transition struct {
	Source        RoundName
	Targets       []RoundName
	FirstSequence int
	pair          func(tournamentID uuid.UUID, decided []Match, firstSequence int) []Match
}

var transitions = []Transition{
	{Source: RoundOf32, Targets: []RoundName{RoundOf16}, FirstSequence: 17, pair: pairWinners(RoundOf16)},
	{Source: RoundOf16, Targets: []RoundName{Quarterfinal}, FirstSequence: 25, pair: pairWinners(Quarterfinal)},
	{Source: Quarterfinal, Targets: []RoundName{Semifinal}, FirstSequence: 29, pair: pairWinners(Semifinal)},
	{Source: Semifinal, Targets: []RoundName{Final, ThirdPlace}, FirstSequence: 31, pair: pairFinals},
}

func TransitionFrom(source RoundName) (Transition, bool) {
	for _, t := range transitions {
		if t.Source == source {
			return t, true
		}
	}
	return Transition{}, false
}

// Downstream lists every round generated, directly or not, from the given round.
func Downstream(source RoundName) []RoundName {
	var out []RoundName
	for _, r := range roundOrder {
		if r.Order() > source.Order() {
			out = append(out, r)
		}
	}
	return out
}

// Advance generates the rounds fed by source. Every source match must be
// decided, and the source round must hold exactly its expected match count.
// Winners are paired in sequence order, never in completion order.
func Advance(tournamentID uuid.UUID, schedule Schedule, source RoundName) (Transition, []Match, error) {
	t, ok := TransitionFrom(source)
	if !ok {
		return Transition{}, nil, fmt.Errorf("%w: %q has no following round", ErrUnknownRound, source)
	}

	decided := make([]Match, 0, source.ExpectedMatches())
	for _, m := range schedule.Round(source) {
		if m.IsDecided() {
			decided = append(decided, m)
		}
	}
	if len(decided) != source.ExpectedMatches() {
		return t, nil, fmt.Errorf("%w: expected %d decided %s matches, got %d",
			ErrIncompletePrecondition, source.ExpectedMatches(), source, len(decided))
	}
	if len(schedule.Round(source)) != source.ExpectedMatches() {
		return t, nil, fmt.Errorf("%w: %s has %d matches, expected %d",
			ErrIncompletePrecondition, source, len(schedule.Round(source)), source.ExpectedMatches())
	}

	for _, m := range decided {
		if !m.HasPlayer(*m.Winner) {
			return t, nil, fmt.Errorf("%w: %s winner %q is not one of its players", ErrIntegrityViolation, m.Code, *m.Winner)
		}
	}

	return t, t.pair(tournamentID, decided, t.FirstSequence), nil
}

func pairWinners(target RoundName) func(uuid.UUID, []Match, int) []Match {
	return func(tournamentID uuid.UUID, decided []Match, firstSequence int) []Match {
		matches := make([]Match, 0, len(decided)/2)
		for i := 0; i+1 < len(decided); i += 2 {
			matches = append(matches, newMatch(tournamentID, target, firstSequence+i/2, *decided[i].Winner, *decided[i+1].Winner))
		}
		return matches
	}
}

// The two semifinal winners meet in the final, the two losers in the 3rd place match.
func pairFinals(tournamentID uuid.UUID, decided []Match, firstSequence int) []Match {
	var losers []string
	for _, m := range decided {
		if loser, ok := m.Loser(); ok {
			losers = append(losers, loser)
		}
	}
	matches := []Match{newMatch(tournamentID, Final, firstSequence, *decided[0].Winner, *decided[1].Winner)}
	if len(losers) == 2 {
		matches = append(matches, newMatch(tournamentID, ThirdPlace, firstSequence+1, losers[0], losers[1]))
	}
	return matches
}
