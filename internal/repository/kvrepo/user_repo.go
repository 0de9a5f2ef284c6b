package kvrepo

import (
	"context"
	"strings"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// UserRepo implements UserRepository over the users array.
type UserRepo struct{ store kv.Store }

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository.
func NewUserRepo(store kv.Store) *UserRepo { return &UserRepo{store: store} }

// List decodes the users array.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := kv.GetJSON(ctx, r.store, UsersKey, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Upsert rewrites the whole array with u replaced or appended.
func (r *UserRepo) Upsert(ctx context.Context, u model.User) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, u)
	}
	return kv.SetJSON(ctx, r.store, UsersKey, users)
}

// GetByID loads a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

// FindByUsername returns the first user whose name matches case-insensitively.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}
