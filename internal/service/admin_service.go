package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

type AdminService struct {
	store *store.AdminStore
}

func NewAdminService(store *store.AdminStore) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) FindOrCreateAdminByProvider(ctx context.Context, gothUser goth.User) (*admin.Admin, error) {
	a, err := s.store.GetAdminByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(a.AvatarURL) != gothUser.AvatarURL || a.Username != gothUser.NickName {
			a.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			if gothUser.NickName != "" {
				a.Username = gothUser.NickName
			}
			if err := s.store.UpdateAdminNameAndAvatar(ctx, a); err != nil {
				return nil, storeErr("update admin", err)
			}
		}
		return a, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		username := utils.OrDefault(utils.StringOrNil(gothUser.NickName), gothUser.Name)
		newAdmin := &admin.Admin{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateAdmin(ctx, newAdmin); err != nil {
			return nil, storeErr("create admin", err)
		}
		return newAdmin, nil
	}

	return nil, storeErr("get admin", err)
}

// SystemAdmin returns the built-in admin seeded by the first migration.
func (s *AdminService) SystemAdmin(ctx context.Context) (*admin.Admin, error) {
	a, err := s.store.GetAdmin(ctx, admin.SystemID)
	return a, storeErr("get system admin", err)
}
