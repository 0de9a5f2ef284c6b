package kvrepo

import (
	"context"

	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// SessionRepo implements SessionRepository with the current-user marker.
type SessionRepo struct{ store kv.Store }

var _ repository.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo constructs a session repository.
func NewSessionRepo(store kv.Store) *SessionRepo { return &SessionRepo{store: store} }

// Current returns the id recorded in the marker.
func (r *SessionRepo) Current(ctx context.Context) (string, error) {
	var u model.User
	if _, err := kv.GetJSON(ctx, r.store, CurrentUserKey, &u); err != nil {
		return "", err
	}
	return u.ID, nil
}

// SetCurrent writes the marker. Password fields are not copied into it.
func (r *SessionRepo) SetCurrent(ctx context.Context, u model.User) error {
	u.PasswordHash, u.PasswordSalt = "", ""
	return kv.SetJSON(ctx, r.store, CurrentUserKey, u)
}

// Clear removes the marker.
func (r *SessionRepo) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, CurrentUserKey)
}
