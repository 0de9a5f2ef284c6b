package repository

import (
	"context"

	"github.com/and161185/bankprep/internal/model"
)

// ProfileRepository stores one profile document per user.
type ProfileRepository interface {
	// Load returns the user's profile, creating and persisting the default one when absent.
	Load(ctx context.Context, userID string) (model.Profile, error)
	// Save replaces the whole document.
	Save(ctx context.Context, p model.Profile) error
}

// SessionRepository persists the signed-in user for local clients.
type SessionRepository interface {
	// Current returns the stored user id, or "" when nobody is signed in.
	Current(ctx context.Context) (string, error)
	// SetCurrent records u as the signed-in user.
	SetCurrent(ctx context.Context, u model.User) error
	// Clear removes the marker.
	Clear(ctx context.Context) error
}
