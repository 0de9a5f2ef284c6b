// Package service contains the application services behind the CLI and HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/bankprep/internal/crypto"
	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// usersLockKey guards the users array, which is rewritten as a whole.
const usersLockKey = "\x00users"

// AuthService defines registration and sign-in operations.
type AuthService interface {
	// Register creates a user with a salted password hash and signs them in.
	Register(ctx context.Context, username, email, password string) (Session, error)
	// Login verifies credentials and signs the user in.
	Login(ctx context.Context, username, password string) (Session, error)
	// Logout ends the current session.
	Logout(ctx context.Context) error
	// Resume restores the session recorded by a previous sign-in.
	Resume(ctx context.Context) (Session, error)
	// Lookup returns the active session of a known user id.
	Lookup(ctx context.Context, userID string) (Session, error)
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions repository.SessionRepository // nil: no persisted marker
	hasher   pkgcrypto.Hasher
	locks    *Locks
	pub      Publisher
	log      *zap.Logger
}

// NewAuthService constructs AuthService. sessions may be nil.
func NewAuthService(
	users repository.UserRepository, sessions repository.SessionRepository,
	hasher pkgcrypto.Hasher, locks *Locks, pub Publisher, log *zap.Logger,
) *AuthServiceImpl {
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}
	return &AuthServiceImpl{users: users, sessions: sessions, hasher: hasher, locks: locks, pub: pub, log: log}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Register validates input, rejects case-insensitive duplicates and stores the user.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (Session, error) {
	if blank(username) || blank(password) {
		return Session{}, fmt.Errorf("username and password are required: %w", errs.ErrValidation)
	}
	if blank(email) {
		return Session{}, fmt.Errorf("email is required for registration: %w", errs.ErrValidation)
	}
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)

	unlock := s.locks.Lock(usersLockKey)
	defer unlock()

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return Session{}, errs.ErrDuplicateUsername
	} else if !errors.Is(err, errs.ErrNotFound) {
		return Session{}, err
	}

	id, err := newID()
	if err != nil {
		return Session{}, err
	}
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}
	u := model.User{ID: id, Username: username, Email: email, PasswordHash: hash, PasswordSalt: salt}
	if err := s.users.Upsert(ctx, u); err != nil {
		return Session{}, err
	}
	if err := s.remember(ctx, u); err != nil {
		return Session{}, err
	}
	emit(ctx, s.pub, s.log, model.EventUserRegistered, u.ID, map[string]any{"username": u.Username})
	return activeSession(u), nil
}

// Login authenticates username and password. Legacy unsalted digests are
// upgraded to the salted hash on success.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (Session, error) {
	if blank(username) || blank(password) {
		return Session{}, fmt.Errorf("username and password are required: %w", errs.ErrValidation)
	}
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, errs.ErrNotFound) {
		return Session{}, errs.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	ok, legacy := s.hasher.Verify(password, u.PasswordHash, u.PasswordSalt)
	if !ok {
		return Session{}, errs.ErrInvalidCredentials
	}
	if legacy {
		u = s.upgradeHash(ctx, u, password)
	}
	if err := s.remember(ctx, u); err != nil {
		return Session{}, err
	}
	return activeSession(u), nil
}

func (s *AuthServiceImpl) upgradeHash(ctx context.Context, u model.User, password string) model.User {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn("rehash password", zap.String("user_id", u.ID), zap.Error(err))
		return u
	}
	unlock := s.locks.Lock(usersLockKey)
	defer unlock()
	up := u
	up.PasswordHash, up.PasswordSalt = hash, salt
	if err := s.users.Upsert(ctx, up); err != nil {
		s.log.Warn("store upgraded hash", zap.String("user_id", u.ID), zap.Error(err))
		return u
	}
	return up
}

// Logout clears the persisted marker.
func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Clear(ctx)
}

// Resume reads the marker and reloads the user. A marker pointing at an
// unknown user yields the signed-out state.
func (s *AuthServiceImpl) Resume(ctx context.Context) (Session, error) {
	if s.sessions == nil {
		return Session{}, nil
	}
	id, err := s.sessions.Current(ctx)
	if err != nil || id == "" {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	return activeSession(u), nil
}

// Lookup loads userID; an unknown id is ErrInvalidCredentials.
func (s *AuthServiceImpl) Lookup(ctx context.Context, userID string) (Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return Session{}, errs.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	return activeSession(u), nil
}

func (s *AuthServiceImpl) remember(ctx context.Context, u model.User) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.SetCurrent(ctx, u)
}
