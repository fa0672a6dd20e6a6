package bracket

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrCapacityExceeded       = errors.New("tournament is fully booked")
	ErrIncompletePrecondition = errors.New("previous round is not fully decided")
	ErrIntegrityViolation     = errors.New("bracket integrity violation")
	ErrPersistence            = errors.New("persistence failure")
	ErrInvalidInput           = errors.New("invalid input")

	ErrTournamentNotFound   = fmt.Errorf("tournament %w", ErrNotFound)
	ErrMatchNotFound        = fmt.Errorf("match %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)

	ErrNoRegistrations  = fmt.Errorf("no registrations: %w", ErrIncompletePrecondition)
	ErrWinnerNotInMatch = errors.New("winner is not part of this match")
	ErrUnknownRound     = errors.New("unknown round")
)
