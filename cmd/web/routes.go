package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/httputil"
	"github.com/AdamBeresnev/op-bracket/internal/middleware"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

type result struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func ok(w http.ResponseWriter, status int, data any) {
	httputil.JSON(w, status, result{Success: true, Data: data})
}

func tournamentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func roundParam(w http.ResponseWriter, r *http.Request) (bracket.RoundName, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "round"))
	if err != nil {
		httputil.BadRequest(w, "Invalid round", err)
		return "", false
	}
	round, err := bracket.ParseRound(raw)
	if err != nil {
		httputil.Error(w, "unknown round", err)
		return "", false
	}
	return round, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid JSON body", err)
		return false
	}
	return true
}

// adminName is the acting admin recorded in audit entries.
func adminName(r *http.Request) string {
	if a := middleware.GetAuthenticatedAdmin(r.Context()); a != nil {
		return a.Username
	}
	return admin.SystemName
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, nil)
	})

	r.Get("/ws/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, valid := tournamentID(w, r)
		if !valid {
			return
		}
		if _, err := app.tournaments.GetTournament(r.Context(), id); err != nil {
			httputil.Error(w, "Failed to get tournament", err)
			return
		}
		app.liveHandler.Serve(w, r, id)
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, valid := tournamentID(w, r)
			if !valid {
				return
			}
			data, err := app.tournaments.GetTournamentData(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get tournament", err)
				return
			}
			ok(w, http.StatusOK, data)
		})

		r.Get("/capacity", func(w http.ResponseWriter, r *http.Request) {
			id, valid := tournamentID(w, r)
			if !valid {
				return
			}
			capacity, err := app.registrations.Capacity(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get capacity", err)
				return
			}
			ok(w, http.StatusOK, capacity)
		})

		r.Get("/progression", func(w http.ResponseWriter, r *http.Request) {
			id, valid := tournamentID(w, r)
			if !valid {
				return
			}
			status, err := app.progression.GetProgressionStatus(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get progression status", err)
				return
			}
			ok(w, http.StatusOK, status)
		})

		r.Get("/rounds/{round}/matches", func(w http.ResponseWriter, r *http.Request) {
			id, valid := tournamentID(w, r)
			if !valid {
				return
			}
			round, valid := roundParam(w, r)
			if !valid {
				return
			}
			matches, err := app.progression.GetMatchesByRound(r.Context(), id, round)
			if err != nil {
				httputil.Error(w, "Failed to get matches", err)
				return
			}
			ok(w, http.StatusOK, matches)
		})

		r.With(app.limiter.Handler).Post("/registrations", func(w http.ResponseWriter, r *http.Request) {
			id, valid := tournamentID(w, r)
			if !valid {
				return
			}
			var input service.RegistrationInput
			if !decode(w, r, &input) {
				return
			}
			reg, err := app.registrations.Register(r.Context(), id, input, "public")
			if err != nil {
				httputil.Error(w, "Failed to register", err)
				return
			}
			ok(w, http.StatusCreated, reg)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(app.sessionManager, app.adminStore))

		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			ownerID, _ := middleware.GetAdminIDFromContext(r.Context())
			tournaments, err := app.tournaments.GetTournamentsByOwner(r.Context(), ownerID)
			if err != nil {
				httputil.Error(w, "Failed to get tournaments", err)
				return
			}
			ok(w, http.StatusOK, tournaments)
		})

		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			var input service.TournamentInput
			if !decode(w, r, &input) {
				return
			}
			ownerID, _ := middleware.GetAdminIDFromContext(r.Context())
			tournament, err := app.tournaments.CreateTournament(r.Context(), input, ownerID, adminName(r))
			if err != nil {
				httputil.Error(w, "Failed to create tournament", err)
				return
			}
			ok(w, http.StatusCreated, tournament)
		})

		r.Delete("/registrations/{registrationID}", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "registrationID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid registration ID", err)
				return
			}
			if err := app.registrations.RemoveRegistration(r.Context(), id, adminName(r)); err != nil {
				httputil.Error(w, "Failed to remove registration", err)
				return
			}
			ok(w, http.StatusOK, nil)
		})

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Get("/registrations", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return app.registrations.ListRegistrations(ctx, id)
			}))
			r.Get("/audit", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return app.tournaments.ListAudit(ctx, id)
			}))
			r.Get("/integrity", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return app.progression.ValidateIntegrity(ctx, id)
			}))
			r.Post("/archive", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return nil, app.tournaments.ArchiveTournament(ctx, id, adminName(r))
			}))
			r.Post("/slots", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				slot, err := app.registrations.AllocateSlot(ctx, id)
				return map[string]int{"slot_number": slot}, err
			}))
			r.Post("/labels/next", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return app.registrations.NextRoundLabel(ctx, id)
			}))
			r.Post("/round-of-32", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				n, err := app.progression.PopulateRoundOf32(ctx, id, adminName(r))
				return map[string]int{"matches": n}, err
			}))
			r.Post("/round-of-16", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return nil, app.progression.PopulateRoundOf16(ctx, id, adminName(r))
			}))
			r.Post("/fix", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return nil, app.progression.FixProgression(ctx, id, adminName(r))
			}))
			r.Post("/clear", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return nil, app.progression.ClearSchedule(ctx, id, adminName(r))
			}))
			r.Post("/regenerate", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				return app.progression.RegenerateProgression(ctx, id, adminName(r))
			}))
			r.Post("/completion", app.withTournament(func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error) {
				completed, err := app.progression.CheckCompletion(ctx, id)
				return map[string]bool{"completed": completed}, err
			}))

			r.Post("/winners", func(w http.ResponseWriter, r *http.Request) {
				id, valid := tournamentID(w, r)
				if !valid {
					return
				}
				var input struct {
					MatchCode string `json:"match_code"`
					Winner    string `json:"winner"`
				}
				if !decode(w, r, &input) {
					return
				}
				outcome, err := app.progression.RecordMatchWinner(r.Context(), id, input.MatchCode, input.Winner, adminName(r))
				if err != nil {
					httputil.Error(w, "Failed to record winner", err)
					return
				}
				ok(w, http.StatusOK, outcome)
			})

			r.Get("/rounds/{round}/publishable", func(w http.ResponseWriter, r *http.Request) {
				id, valid := tournamentID(w, r)
				if !valid {
					return
				}
				round, valid := roundParam(w, r)
				if !valid {
					return
				}
				can, err := app.progression.CanPublishRound(r.Context(), id, round)
				if err != nil {
					httputil.Error(w, "Failed to check round", err)
					return
				}
				ok(w, http.StatusOK, map[string]bool{"can_publish": can})
			})

			r.Post("/rounds/{round}/publish", func(w http.ResponseWriter, r *http.Request) {
				id, valid := tournamentID(w, r)
				if !valid {
					return
				}
				round, valid := roundParam(w, r)
				if !valid {
					return
				}
				if err := app.progression.PublishRoundResults(r.Context(), id, round, adminName(r)); err != nil {
					httputil.Error(w, "Failed to publish round", err)
					return
				}
				ok(w, http.StatusOK, nil)
			})
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		a, err := app.admins.FindOrCreateAdminByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create admin", err)
			return
		}

		if err := app.sessionManager.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to renew session", err)
			return
		}
		app.sessionManager.Put(r.Context(), middleware.SessionAdminKey, a.ID.String())
		ok(w, http.StatusOK, a)
	})

	if app.cfg.AllowGuestLogin {
		r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
			a, err := app.admins.SystemAdmin(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to login as guest", err)
				return
			}
			if err := app.sessionManager.RenewToken(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to renew session", err)
				return
			}
			app.sessionManager.Put(r.Context(), middleware.SessionAdminKey, a.ID.String())
			ok(w, http.StatusOK, a)
		})
	}

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := app.sessionManager.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to logout", err)
			return
		}
		ok(w, http.StatusOK, nil)
	})

	return r
}

// withTournament adapts a handler that needs only the tournament id and returns data or an error.
func (app *application) withTournament(fn func(ctx context.Context, id uuid.UUID, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := tournamentID(w, r)
		if !valid {
			return
		}
		data, err := fn(r.Context(), id, r)
		if err != nil {
			httputil.Error(w, "Request failed", err)
			return
		}
		ok(w, http.StatusOK, data)
	}
}
