// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/bankprep/internal/model"
)

// UserRepository is the directory of registered users.
type UserRepository interface {
	// List returns all users in insertion order; empty when none exist.
	List(ctx context.Context) ([]model.User, error)
	// Upsert replaces the user with the same ID or appends it.
	Upsert(ctx context.Context, u model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id string) (model.User, error)
	// FindByUsername matches username case-insensitively.
	FindByUsername(ctx context.Context, username string) (model.User, error)
}
