package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type ProgressionService struct {
	base
}

func NewProgressionService(db *sqlx.DB, stores *store.Stores, locks *lock.Keyed, notifier Notifier) *ProgressionService {
	return &ProgressionService{base: newBase(db, stores, locks, notifier)}
}

type ProgressionStatus struct {
	TournamentID    uuid.UUID                `json:"tournament_id"`
	Status          bracket.TournamentStatus `json:"status"`
	CurrentRound    bracket.RoundName        `json:"current_round"`
	NextRound       *bracket.RoundName       `json:"next_round,omitempty"`
	CompletedRounds []bracket.RoundName      `json:"completed_rounds"`
	PendingRounds   []bracket.RoundName      `json:"pending_rounds"`
	Rounds          []bracket.Round          `json:"rounds"`
	MatchCount      int                      `json:"match_count"`
	Concluded       bool                     `json:"concluded"`
}

type RegenerateOutcome struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Participants int      `json:"participants"`
	Details      []string `json:"details"`
}

type WinnerOutcome struct {
	Match     bracket.Match `json:"match"`
	Completed bool          `json:"tournament_completed"`
}

// load reads the tournament and its schedule through q.
func (s *ProgressionService) load(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (*bracket.Tournament, bracket.Schedule, error) {
	tournament, err := s.stores.Tournaments.GetTournament(ctx, q, tournamentID)
	if err != nil {
		return nil, nil, storeErr("get tournament", err)
	}
	schedule, err := s.stores.Tournaments.GetMatches(ctx, q, tournamentID)
	if err != nil {
		return nil, nil, storeErr("get matches", err)
	}
	return tournament, schedule, nil
}

// PopulateRoundOf32 seeds the first round from the registrations, replacing
// any existing Round of 32 matches. It returns the number of matches created.
func (s *ProgressionService) PopulateRoundOf32(ctx context.Context, tournamentID uuid.UUID, adminUser string) (int, error) {
	var created int
	err := s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		tournament, err := s.stores.Tournaments.GetTournament(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("get tournament", err)
		}
		regs, err := s.stores.Registrations.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("list registrations", err)
		}
		if len(regs) == 0 {
			return nil, bracket.ErrNoRegistrations
		}

		matches := bracket.SeedRoundOf32(tournamentID, regs)
		if err := s.replaceRounds(ctx, tx, tournamentID, matches, bracket.RoundOf32); err != nil {
			return nil, err
		}
		created = len(matches)

		if tournament.Status == bracket.TournamentUpcoming {
			if err := s.stores.Tournaments.UpdateStatus(ctx, tx, tournamentID, bracket.TournamentOngoing); err != nil {
				return nil, storeErr("update status", err)
			}
		}

		p, err := s.progression(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}
		p.Touch(adminUser, s.now())
		if err := s.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
			return nil, storeErr("save progression", err)
		}

		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionRoundPopulated, "tournament", tournamentID.String(),
				fmt.Sprintf("Populated %s with %d matches from %d registrations", bracket.RoundOf32, created, len(regs))),
			current: p.CurrentRound,
		}, nil
	})
	return created, err
}

// PopulateRoundOf16 pairs the sixteen Round of 32 winners in match order.
func (s *ProgressionService) PopulateRoundOf16(ctx context.Context, tournamentID uuid.UUID, adminUser string) error {
	return s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		_, schedule, err := s.load(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
		p, err := s.progression(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}

		tr, err := s.advance(ctx, tx, tournamentID, schedule, bracket.RoundOf32, p, adminUser)
		if err != nil {
			return nil, err
		}
		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionRoundPopulated, "tournament", tournamentID.String(),
				fmt.Sprintf("Populated %s from %s winners", tr.Targets[0], tr.Source)),
			current: p.CurrentRound,
		}, nil
	})
}

// PublishRoundResults closes a fully decided round and generates the rounds it
// feeds. Publishing the Final or the 3rd Place Match runs the completion check.
func (s *ProgressionService) PublishRoundResults(ctx context.Context, tournamentID uuid.UUID, round bracket.RoundName, adminUser string) error {
	return s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		tournament, schedule, err := s.load(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
		if !bracket.CanPublish(schedule, round) {
			return nil, fmt.Errorf("%w: %s has undecided or no matches", bracket.ErrIncompletePrecondition, round)
		}

		p, err := s.progression(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}
		if err := p.CompleteRound(round, adminUser, s.now()); err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Published %s results", round)
		if _, ok := bracket.TransitionFrom(round); ok {
			tr, err := s.advance(ctx, tx, tournamentID, schedule, round, p, adminUser)
			if err != nil {
				return nil, err
			}
			details = fmt.Sprintf("%s, generated %v", details, tr.Targets)
		} else {
			if err := s.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
				return nil, storeErr("save progression", err)
			}
			if _, err := s.complete(ctx, tx, tournament, schedule); err != nil {
				return nil, err
			}
		}

		return &change{
			entry:   audit.New(tournamentID, adminUser, audit.ActionRoundPublished, "round", string(round), details),
			current: p.CurrentRound,
		}, nil
	})
}

// FixProgression discards every round after the Round of 32 and regenerates
// the Round of 16 from its winners.
func (s *ProgressionService) FixProgression(ctx context.Context, tournamentID uuid.UUID, adminUser string) error {
	return s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		_, schedule, err := s.load(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
		_, next, err := bracket.Advance(tournamentID, schedule, bracket.RoundOf32)
		if err != nil {
			return nil, err
		}

		downstream := bracket.Downstream(bracket.RoundOf32)
		if err := s.replaceRounds(ctx, tx, tournamentID, next, downstream...); err != nil {
			return nil, err
		}

		p, err := s.progression(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}
		for _, name := range downstream {
			if r := p.Round(name); r != nil {
				r.IsCompleted = false
				r.CompletedAt = nil
				r.CompletedBy = nil
			}
		}
		p.CurrentRound = bracket.RoundOf16
		p.Touch(adminUser, s.now())
		if err := s.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
			return nil, storeErr("save progression", err)
		}

		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionProgressionFixed, "tournament", tournamentID.String(),
				fmt.Sprintf("Discarded rounds after %s and regenerated %s", bracket.RoundOf32, bracket.RoundOf16)),
			current: p.CurrentRound,
		}, nil
	})
}

func (s *ProgressionService) ClearSchedule(ctx context.Context, tournamentID uuid.UUID, adminUser string) error {
	return s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		if _, err := s.stores.Tournaments.GetTournament(ctx, tx, tournamentID); err != nil {
			return nil, storeErr("get tournament", err)
		}
		p, err := s.clearSchedule(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}
		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionScheduleCleared, "tournament", tournamentID.String(),
				"Cleared all matches and reset progression"),
			current: p.CurrentRound,
		}, nil
	})
}

// RegenerateProgression wipes the schedule and the progression record, then
// reseeds the Round of 32 from the current registrations.
func (s *ProgressionService) RegenerateProgression(ctx context.Context, tournamentID uuid.UUID, adminUser string) (*RegenerateOutcome, error) {
	outcome := &RegenerateOutcome{}
	err := s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		if _, err := s.stores.Tournaments.GetTournament(ctx, tx, tournamentID); err != nil {
			return nil, storeErr("get tournament", err)
		}

		if err := s.stores.Tournaments.DeleteMatches(ctx, tx, tournamentID); err != nil {
			return nil, storeErr("delete matches", err)
		}
		outcome.Details = append(outcome.Details, "Cleared all existing tournament matches")

		if err := s.stores.Progressions.DeleteProgression(ctx, tx, tournamentID); err != nil {
			return nil, storeErr("delete progression", err)
		}
		p := bracket.NewProgression(tournamentID, adminUser, s.now())
		if err := s.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
			return nil, storeErr("save progression", err)
		}
		outcome.Details = append(outcome.Details, "Reset progression data to initial state")

		regs, err := s.stores.Registrations.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("list registrations", err)
		}
		if len(regs) == 0 {
			outcome.Details = append(outcome.Details, "No participants found - tournament schedule will remain empty")
		} else {
			if err := s.stores.Tournaments.CreateMatches(ctx, tx, bracket.SeedRoundOf32(tournamentID, regs)); err != nil {
				return nil, storeErr("create matches", err)
			}
			outcome.Details = append(outcome.Details, fmt.Sprintf("Populated Round of 32 with %d participants", len(regs)))
		}
		outcome.Participants = len(regs)
		outcome.Details = append(outcome.Details, "Tournament progression has been completely reset and regenerated")

		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionProgressionReset, "tournament", tournamentID.String(),
				fmt.Sprintf("Regenerated progression with %d participants", len(regs))),
			current: p.CurrentRound,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	outcome.Success = true
	outcome.Message = "Tournament progression regenerated successfully"
	return outcome, nil
}

// RecordMatchWinner decides one match and then runs the completion check.
func (s *ProgressionService) RecordMatchWinner(ctx context.Context, tournamentID uuid.UUID, code, winner, adminUser string) (*WinnerOutcome, error) {
	var outcome WinnerOutcome
	err := s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		tournament, schedule, err := s.load(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
		match, ok := schedule.Find(code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, code)
		}
		if !match.HasPlayer(winner) {
			return nil, bracket.ErrWinnerNotInMatch
		}

		now := s.now()
		match.Winner = &winner
		match.IsCompleted = true
		match.CompletedAt = &now
		match.CompletedBy = &adminUser
		if err := s.stores.Tournaments.UpdateMatchResult(ctx, tx, match); err != nil {
			return nil, storeErr("update match", err)
		}

		completed, err := s.complete(ctx, tx, tournament, schedule)
		if err != nil {
			return nil, err
		}
		outcome = WinnerOutcome{Match: *match, Completed: completed}

		p, err := s.progression(ctx, tx, tournamentID, adminUser)
		if err != nil {
			return nil, err
		}
		return &change{
			entry: audit.New(tournamentID, adminUser, audit.ActionWinnerRecorded, "match", match.Code,
				fmt.Sprintf("%s won %s (%s)", winner, match.Code, match.Players())),
			current: p.CurrentRound,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// CheckCompletion marks the tournament Completed once the Final and the 3rd
// Place Match are both decided. It is a no-op on completed tournaments.
func (s *ProgressionService) CheckCompletion(ctx context.Context, tournamentID uuid.UUID) (bool, error) {
	var completed bool
	err := s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		tournament, schedule, err := s.load(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
		completed, err = s.complete(ctx, tx, tournament, schedule)
		return nil, err
	})
	return completed, err
}

func (s *ProgressionService) ValidateIntegrity(ctx context.Context, tournamentID uuid.UUID) (*bracket.IntegrityReport, error) {
	_, schedule, err := s.load(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	report := bracket.Validate(schedule)
	return &report, nil
}

// GetProgressionStatus reads the last committed state without taking the tournament lock.
func (s *ProgressionService) GetProgressionStatus(ctx context.Context, tournamentID uuid.UUID) (*ProgressionStatus, error) {
	var (
		tournament *bracket.Tournament
		schedule   bracket.Schedule
		p          *bracket.Progression
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.stores.Tournaments.GetTournament(gctx, nil, tournamentID)
		return storeErr("get tournament", err)
	})
	g.Go(func() error {
		var err error
		schedule, err = s.stores.Tournaments.GetMatches(gctx, nil, tournamentID)
		return storeErr("get matches", err)
	})
	g.Go(func() error {
		var err error
		p, err = s.progression(gctx, nil, tournamentID, admin.SystemName)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &ProgressionStatus{
		TournamentID:    tournamentID,
		Status:          tournament.Status,
		CurrentRound:    p.CurrentRound,
		CompletedRounds: p.CompletedRounds(),
		PendingRounds:   p.PendingRounds(),
		Rounds:          p.Rounds,
		MatchCount:      len(schedule),
		Concluded:       bracket.IsConcluded(schedule),
	}
	if tr, ok := bracket.TransitionFrom(p.CurrentRound); ok {
		next := tr.Targets[0]
		status.NextRound = &next
	}
	if status.CompletedRounds == nil {
		status.CompletedRounds = []bracket.RoundName{}
	}
	if status.PendingRounds == nil {
		status.PendingRounds = []bracket.RoundName{}
	}
	return status, nil
}

func (s *ProgressionService) GetMatchesByRound(ctx context.Context, tournamentID uuid.UUID, round bracket.RoundName) ([]bracket.Match, error) {
	if _, err := s.stores.Tournaments.GetTournament(ctx, nil, tournamentID); err != nil {
		return nil, storeErr("get tournament", err)
	}
	matches, err := s.stores.Tournaments.GetMatchesByRound(ctx, tournamentID, round)
	return matches, storeErr("get matches", err)
}

func (s *ProgressionService) CanPublishRound(ctx context.Context, tournamentID uuid.UUID, round bracket.RoundName) (bool, error) {
	_, schedule, err := s.load(ctx, nil, tournamentID)
	if err != nil {
		return false, err
	}
	return bracket.CanPublish(schedule, round), nil
}

// advance generates the rounds fed by source and makes the first of them current.
func (s *ProgressionService) advance(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, schedule bracket.Schedule,
	source bracket.RoundName, p *bracket.Progression, adminUser string) (bracket.Transition, error) {
	tr, next, err := bracket.Advance(tournamentID, schedule, source)
	if err != nil {
		return tr, err
	}
	if err := s.replaceRounds(ctx, tx, tournamentID, next, tr.Targets...); err != nil {
		return tr, err
	}

	p.CurrentRound = tr.Targets[0]
	p.Touch(adminUser, s.now())
	if err := s.stores.Progressions.SaveProgression(ctx, tx, p); err != nil {
		return tr, storeErr("save progression", err)
	}
	return tr, nil
}

func (s *ProgressionService) replaceRounds(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, matches []bracket.Match, rounds ...bracket.RoundName) error {
	if err := s.stores.Tournaments.DeleteMatches(ctx, tx, tournamentID, rounds...); err != nil {
		return storeErr("delete matches", err)
	}
	if err := s.stores.Tournaments.CreateMatches(ctx, tx, matches); err != nil {
		return storeErr("create matches", err)
	}
	return nil
}

// complete stamps completion when the schedule has concluded. The audit entry
// is written here because completion is a side effect of other operations.
func (s *ProgressionService) complete(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, schedule bracket.Schedule) (bool, error) {
	if tournament.IsCompleted() {
		return true, nil
	}
	if !bracket.IsConcluded(schedule) {
		return false, nil
	}

	changed, err := s.stores.Tournaments.MarkCompleted(ctx, tx, tournament.ID, admin.SystemName, s.now())
	if err != nil {
		return false, storeErr("mark completed", err)
	}
	if changed {
		entry := audit.New(tournament.ID, admin.SystemName, audit.ActionTournamentCompleted, "tournament", tournament.ID.String(),
			"Final and 3rd Place Match decided")
		if err := s.stores.Audit.Append(ctx, tx, entry); err != nil {
			return false, storeErr("append audit entry", err)
		}
	}
	return true, nil
}
