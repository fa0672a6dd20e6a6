package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-bracket/internal/audit"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/slots"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RegistrationService struct {
	base
	allocator *slots.Allocator
	labels    *slots.Cycler
}

func NewRegistrationService(db *sqlx.DB, stores *store.Stores, locks *lock.Keyed, notifier Notifier,
	allocator *slots.Allocator, labels *slots.Cycler) *RegistrationService {
	return &RegistrationService{
		base:      newBase(db, stores, locks, notifier),
		allocator: allocator,
		labels:    labels,
	}
}

type RegistrationInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type CapacityStatus struct {
	Capacity   int  `json:"capacity"`
	Registered int  `json:"registered"`
	Remaining  int  `json:"remaining"`
	IsFull     bool `json:"is_full"`
}

// Register allocates a slot and a round label and stores the registration, all
// while holding the tournament lock.
func (s *RegistrationService) Register(ctx context.Context, tournamentID uuid.UUID, input RegistrationInput, actor string) (*bracket.Registration, error) {
	name, ok := utils.Trimmed(input.FullName)
	if !ok {
		return nil, fmt.Errorf("%w: full name is required", bracket.ErrInvalidInput)
	}

	var registration *bracket.Registration
	err := s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		tournament, err := s.stores.Tournaments.GetTournament(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("get tournament", err)
		}
		regs, err := s.stores.Registrations.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("list registrations", err)
		}
		if bracket.IsFull(tournamentID, regs) {
			return nil, bracket.ErrCapacityExceeded
		}

		slot, err := s.allocate(tournamentID, tournament.Capacity, regs)
		if err != nil {
			return nil, err
		}
		s.labels.SeedIfCold(tournamentID, len(regs))
		label := s.labels.Next(tournamentID)

		registration = &bracket.Registration{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			FullName:     name,
			Email:        utils.StringOrNil(input.Email),
			SlotNumber:   utils.Ptr(slot),
			RoundLabel:   label.Name,
			RoundIndex:   label.Index,
			CreatedAt:    s.now(),
		}
		if err := s.stores.Registrations.Create(ctx, tx, registration); err != nil {
			s.allocator.Release(tournamentID, slot)
			return nil, storeErr("create registration", err)
		}

		return &change{
			entry: audit.New(tournamentID, actor, audit.ActionRegistrationCreated, "registration", registration.ID.String(),
				fmt.Sprintf("%s took slot %d (%s)", name, slot, label.Name)),
		}, nil
	})
	if err != nil {
		// cached state may be ahead of what was committed
		s.allocator.Forget(tournamentID)
		s.labels.Forget(tournamentID)
		return nil, err
	}
	return registration, nil
}

// AllocateSlot draws a free slot for the tournament. Stored registrations seed
// a cold tournament; after that drawn slots stay held in memory until the next
// registration reseeds it.
func (s *RegistrationService) AllocateSlot(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	unlock, err := s.locks.Lock(ctx, tournamentID)
	if err != nil {
		return slots.NoSlot, err
	}
	defer unlock()

	tournament, err := s.stores.Tournaments.GetTournament(ctx, nil, tournamentID)
	if err != nil {
		return slots.NoSlot, storeErr("get tournament", err)
	}
	if !s.allocator.IsSeeded(tournamentID) {
		regs, err := s.stores.Registrations.ListByTournament(ctx, nil, tournamentID)
		if err != nil {
			return slots.NoSlot, storeErr("list registrations", err)
		}
		s.allocator.Seed(tournamentID, bracket.TakenSlots(tournamentID, regs))
	}
	return s.draw(tournamentID, tournament.Capacity)
}

// allocate reseeds from the registrations read inside the caller's transaction.
func (s *RegistrationService) allocate(tournamentID uuid.UUID, capacity int, regs []bracket.Registration) (int, error) {
	s.allocator.Seed(tournamentID, bracket.TakenSlots(tournamentID, regs))
	return s.draw(tournamentID, capacity)
}

func (s *RegistrationService) draw(tournamentID uuid.UUID, capacity int) (int, error) {
	slot := s.allocator.Allocate(tournamentID, capacity)
	if slot == slots.NoSlot {
		return slots.NoSlot, bracket.ErrCapacityExceeded
	}
	return slot, nil
}

// NextRoundLabel advances the tournament's label cycle, seeding it from the
// registration count on first use in this process.
func (s *RegistrationService) NextRoundLabel(ctx context.Context, tournamentID uuid.UUID) (slots.Label, error) {
	unlock, err := s.locks.Lock(ctx, tournamentID)
	if err != nil {
		return slots.Label{}, err
	}
	defer unlock()

	n, err := s.stores.Registrations.Count(ctx, nil, tournamentID)
	if err != nil {
		return slots.Label{}, storeErr("count registrations", err)
	}
	s.labels.SeedIfCold(tournamentID, n)
	return s.labels.Next(tournamentID), nil
}

// RemoveRegistration deletes a registration. Removing the last registrant of a
// tournament also clears its schedule.
func (s *RegistrationService) RemoveRegistration(ctx context.Context, registrationID uuid.UUID, adminUser string) error {
	registration, err := s.stores.Registrations.GetRegistration(ctx, nil, registrationID)
	if err != nil {
		return storeErr("get registration", err)
	}
	tournamentID := registration.TournamentID

	err = s.mutate(ctx, tournamentID, func(tx *sqlx.Tx) (*change, error) {
		if err := s.stores.Registrations.Delete(ctx, tx, registrationID); err != nil {
			return nil, storeErr("delete registration", err)
		}
		remaining, err := s.stores.Registrations.Count(ctx, tx, tournamentID)
		if err != nil {
			return nil, storeErr("count registrations", err)
		}

		details := fmt.Sprintf("Removed %s", registration.FullName)
		var current bracket.RoundName
		if remaining == 0 {
			p, err := s.clearSchedule(ctx, tx, tournamentID, adminUser)
			if err != nil {
				return nil, err
			}
			current = p.CurrentRound
			details += ", last registrant so the schedule was cleared"
		}

		return &change{
			entry:   audit.New(tournamentID, adminUser, audit.ActionRegistrationDeleted, "registration", registrationID.String(), details),
			current: current,
		}, nil
	})
	if err != nil {
		return err
	}

	if registration.SlotNumber != nil {
		s.allocator.Release(tournamentID, *registration.SlotNumber)
	}
	return nil
}

func (s *RegistrationService) Capacity(ctx context.Context, tournamentID uuid.UUID) (*CapacityStatus, error) {
	tournament, err := s.stores.Tournaments.GetTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, storeErr("get tournament", err)
	}
	regs, err := s.stores.Registrations.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, storeErr("list registrations", err)
	}
	return &CapacityStatus{
		Capacity:   tournament.Capacity,
		Registered: len(regs),
		Remaining:  bracket.RemainingSlots(tournamentID, regs),
		IsFull:     bracket.IsFull(tournamentID, regs),
	}, nil
}

func (s *RegistrationService) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	if _, err := s.stores.Tournaments.GetTournament(ctx, nil, tournamentID); err != nil {
		return nil, storeErr("get tournament", err)
	}
	regs, err := s.stores.Registrations.ListByTournament(ctx, nil, tournamentID)
	return regs, storeErr("list registrations", err)
}
