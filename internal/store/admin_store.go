package store

import (
	"context"

	"github.com/AdamBeresnev/op-bracket/internal/admin"
	"github.com/jmoiron/sqlx"
)

type AdminStore struct {
	db *sqlx.DB
}

const (
	getAdminQuery           = "SELECT * FROM admins WHERE id = ?"
	getAdminByProviderQuery = `
        SELECT * FROM admins
        WHERE provider = ?
        AND provider_id = ?
    `
	createAdminQuery = `
		INSERT INTO admins (id, email, username, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :provider, :provider_id, :avatar_url)
	`
	updateAdminNameAndAvatarQuery = `
		UPDATE admins SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
)

func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) GetAdminByProvider(ctx context.Context, provider string, providerID string) (*admin.Admin, error) {
	var a admin.Admin
	err := s.db.GetContext(ctx, &a, getAdminByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) GetAdmin(ctx context.Context, id any) (*admin.Admin, error) {
	var a admin.Admin
	err := s.db.GetContext(ctx, &a, getAdminQuery, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) CreateAdmin(ctx context.Context, a *admin.Admin) error {
	_, err := s.db.NamedExecContext(ctx, createAdminQuery, a)
	return err
}

func (s *AdminStore) UpdateAdminNameAndAvatar(ctx context.Context, a *admin.Admin) error {
	_, err := s.db.NamedExecContext(ctx, updateAdminNameAndAvatarQuery, a)
	return err
}
