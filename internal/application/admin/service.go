package admin

import (
	"context"

	"github.com/whisperly-api/internal/domain"
)

// Service exposes the admin list/delete pass-throughs. All role checks happen
// in the transport layer; this service assumes the caller is an admin.
type Service interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListConfessions(ctx context.Context) ([]domain.Confession, error)
	DeleteUser(ctx context.Context, userID string) error
	DeleteConfession(ctx context.Context, confessionID string) error
}

type userStore interface {
	Scan(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type confessionStore interface {
	Scan(ctx context.Context) ([]domain.Confession, error)
	Delete(ctx context.Context, confessionID string) error
}

type service struct {
	users       userStore
	confessions confessionStore
}

func NewService(users userStore, confessions confessionStore) Service {
	return &service{users: users, confessions: confessions}
}

func (s *service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.Scan(ctx)
}

func (s *service) ListConfessions(ctx context.Context) ([]domain.Confession, error) {
	return s.confessions.Scan(ctx)
}

func (s *service) DeleteUser(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

func (s *service) DeleteConfession(ctx context.Context, confessionID string) error {
	return s.confessions.Delete(ctx, confessionID)
}
