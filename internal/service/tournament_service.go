package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	base
}

func NewTournamentService(db *sqlx.DB, stores *store.Stores, locks *lock.Keyed, notifier Notifier) *TournamentService {
	return &TournamentService{base: newBase(db, stores, locks, notifier)}
}

type TournamentInput struct {
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
}

type TournamentData struct {
	Tournament    *bracket.Tournament    `json:"tournament"`
	Registrations []bracket.Registration `json:"registrations"`
	Matches       bracket.Schedule       `json:"matches"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input TournamentInput, ownerID uuid.UUID, adminUser string) (*bracket.Tournament, error) {
	name, ok := utils.Trimmed(input.Name)
	if !ok {
		return nil, fmt.Errorf("%w: tournament name is required", bracket.ErrInvalidInput)
	}

	tournament := &bracket.Tournament{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		EventDate: utils.StringOrNil(input.EventDate),
		Capacity:  bracket.Capacity,
		Status:    bracket.TournamentUpcoming,
		CreatedAt: s.now(),
	}

	err := s.mutate(ctx, tournament.ID, func(tx *sqlx.Tx) (*change, error) {
		if err := s.stores.Tournaments.CreateTournament(ctx, tx, tournament); err != nil {
			return nil, storeErr("create tournament", err)
		}
		return &change{
			entry: audit.New(tournament.ID, adminUser, audit.ActionTournamentCreated, "tournament", tournament.ID.String(),
				fmt.Sprintf("Created %q", name)),
			current: bracket.RoundOf32,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	t, err := s.stores.Tournaments.GetTournament(ctx, nil, id)
	return t, storeErr("get tournament", err)
}

func (s *TournamentService) GetTournamentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	tournaments, err := s.stores.Tournaments.GetTournamentsByOwner(ctx, ownerID)
	return tournaments, storeErr("list tournaments", err)
}

// GetTournamentData loads a tournament with its registrations and schedule.
func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	var data TournamentData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Tournament, err = s.stores.Tournaments.GetTournament(gctx, nil, id)
		return storeErr("get tournament", err)
	})
	g.Go(func() error {
		var err error
		data.Registrations, err = s.stores.Registrations.ListByTournament(gctx, nil, id)
		return storeErr("list registrations", err)
	})
	g.Go(func() error {
		var err error
		data.Matches, err = s.stores.Tournaments.GetMatches(gctx, nil, id)
		return storeErr("get matches", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// ArchiveTournament stamps the archive time and destroys the progression record.
func (s *TournamentService) ArchiveTournament(ctx context.Context, id uuid.UUID, adminUser string) error {
	return s.mutate(ctx, id, func(tx *sqlx.Tx) (*change, error) {
		tournament, err := s.stores.Tournaments.GetTournament(ctx, tx, id)
		if err != nil {
			return nil, storeErr("get tournament", err)
		}
		if tournament.ArchivedAt != nil {
			return nil, nil
		}
		if err := s.stores.Tournaments.Archive(ctx, tx, id, s.now()); err != nil {
			return nil, storeErr("archive tournament", err)
		}
		if err := s.stores.Progressions.DeleteProgression(ctx, tx, id); err != nil {
			return nil, storeErr("delete progression", err)
		}
		return &change{
			entry: audit.New(id, adminUser, audit.ActionTournamentArchived, "tournament", id.String(),
				fmt.Sprintf("Archived %q", tournament.Name)),
		}, nil
	})
}

func (s *TournamentService) ListAudit(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	entries, err := s.stores.Audit.ListByTournament(ctx, id)
	return entries, storeErr("list audit", err)
}
