package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/config"
	"github.com/AdamBeresnev/op-bracket/internal/httputil"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const AdminIDKey ContextKey = "adminID"

// SessionAdminKey is the session entry holding the signed-in admin's id.
const SessionAdminKey = "adminID"

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(cfg config.AuthConfig) {
	var providers []goth.Provider
	if cfg.DiscordKey != "" {
		providers = append(providers, discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if cfg.GoogleKey != "" {
		providers = append(providers, google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email", "profile"))
	}
	goth.UseProviders(providers...)
}

// RequireAdmin rejects requests without a signed-in admin and puts the admin in the context.
func RequireAdmin(sessionManager *scs.SessionManager, adminStore *store.AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminIDStr := sessionManager.GetString(r.Context(), SessionAdminKey)
			if adminIDStr == "" {
				httputil.Unauthorized(w, "sign in required")
				return
			}

			adminID, err := uuid.Parse(adminIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionAdminKey)
				httputil.Unauthorized(w, "sign in required")
				return
			}

			a, err := adminStore.GetAdmin(r.Context(), adminID)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionAdminKey)
				httputil.Unauthorized(w, "sign in required")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
			ctx = context.WithValue(ctx, admin.AdminKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAdminIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(AdminIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedAdmin(ctx context.Context) *admin.Admin {
	val := ctx.Value(admin.AdminKey)
	if val == nil {
		return nil
	}
	a, ok := val.(*admin.Admin)
	if !ok {
		return nil
	}
	return a
}
