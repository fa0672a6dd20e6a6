package bracket

import (
	"fmt"
	"strings"
)

type RoundSummary struct {
	Count     int      `json:"count"`
	Completed int      `json:"completed"`
	Winners   []string `json:"winners"`
}

type IntegrityReport struct {
	IsValid  bool                       `json:"is_valid"`
	Errors   []string                   `json:"errors"`
	Warnings []string                   `json:"warnings"`
	Rounds   map[RoundName]RoundSummary `json:"rounds"`
}

func (r *IntegrityReport) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *IntegrityReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// structural ordering: a round may only exist once the round feeding it does
var prerequisites = []struct {
	round    RoundName
	requires RoundName
}{
	{Quarterfinal, RoundOf16},
	{Semifinal, Quarterfinal},
	{Final, Semifinal},
	{ThirdPlace, Semifinal},
}

// Validate inspects a schedule without modifying it.
func Validate(schedule Schedule) IntegrityReport {
	report := IntegrityReport{
		Errors:   []string{},
		Warnings: []string{},
		Rounds:   make(map[RoundName]RoundSummary, len(roundOrder)),
	}

	for _, name := range roundOrder {
		winners := schedule.Winners(name)
		if winners == nil {
			winners = []string{}
		}
		report.Rounds[name] = RoundSummary{
			Count:     len(schedule.Round(name)),
			Completed: len(winners),
			Winners:   winners,
		}
	}

	r32 := report.Rounds[RoundOf32]
	if r32.Count != RoundOf32.ExpectedMatches() {
		report.errorf("Round of 32 should have %d matches, found %d", RoundOf32.ExpectedMatches(), r32.Count)
	}
	if r32.Count == RoundOf32.ExpectedMatches() && r32.Completed != r32.Count {
		if schedule.Has(RoundOf16) {
			report.errorf("Round of 32 should have %d winners, found %d", r32.Count, r32.Completed)
		} else {
			report.warnf("Round of 32 in progress: %d of %d matches decided", r32.Completed, r32.Count)
		}
	}

	for _, name := range roundOrder[1:] {
		count := report.Rounds[name].Count
		if count > 0 && count != name.ExpectedMatches() {
			report.errorf("%s should have %d matches, found %d", name, name.ExpectedMatches(), count)
		}
	}

	for _, t := range transitions {
		source := report.Rounds[t.Source]
		for _, target := range t.Targets {
			if !schedule.Has(target) {
				continue
			}
			if source.Count > 0 && source.Completed != t.Source.ExpectedMatches() {
				report.errorf("%s matches exist but %s is not fully decided", target, t.Source)
				continue
			}
			checkLineage(&report, schedule, t.Source, target)
		}
	}

	for _, p := range prerequisites {
		if schedule.Has(p.round) && !schedule.Has(p.requires) {
			report.errorf("%s matches exist but %s is missing - progression order is corrupted", p.round, p.requires)
		}
	}
	if schedule.Has(Final) != schedule.Has(ThirdPlace) {
		report.warnf("Final and 3rd Place Match should be generated together")
	}

	checkMatches(&report, schedule)

	report.IsValid = len(report.Errors) == 0
	return report
}

// Every named player of a generated round must come out of its source round:
// a winner, or for the 3rd place match a semifinal loser.
func checkLineage(report *IntegrityReport, schedule Schedule, source, target RoundName) {
	expected := make(map[string]bool)
	for _, m := range schedule.Round(source) {
		if target == ThirdPlace {
			if loser, ok := m.Loser(); ok {
				expected[loser] = true
			}
			continue
		}
		if m.IsDecided() {
			expected[*m.Winner] = true
		}
	}

	var mismatched []string
	for _, m := range schedule.Round(target) {
		for _, name := range m.Names() {
			if !expected[name] {
				mismatched = append(mismatched, name)
			}
		}
	}
	if len(mismatched) > 0 {
		report.errorf("%s has mismatched winners: %s", target, strings.Join(mismatched, ", "))
	}
}

func checkMatches(report *IntegrityReport, schedule Schedule) {
	codes := make(map[string]bool, len(schedule))
	sequences := make(map[int]bool, len(schedule))
	for _, name := range roundOrder {
		for _, m := range schedule.Round(name) {
			if codes[m.Code] {
				report.errorf("duplicate match code %s", m.Code)
			}
			codes[m.Code] = true
			if sequences[m.Sequence] {
				report.errorf("duplicate match sequence %d", m.Sequence)
			}
			sequences[m.Sequence] = true

			if m.Winner != nil && *m.Winner != "" && !m.HasPlayer(*m.Winner) {
				report.errorf("%s winner %s is not one of its players", m.Code, *m.Winner)
			}
			if m.Winner != nil && *m.Winner != "" && !m.IsCompleted {
				report.warnf("%s has a winner but is not marked completed", m.Code)
			}
		}
	}
}
