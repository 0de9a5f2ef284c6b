package service

import "github.com/and161185/bankprep/internal/model"

// Session is the authentication state of a client. The zero value is the
// signed-out state.
type Session struct {
	user *model.User
}

func activeSession(u model.User) Session {
	u.PasswordHash, u.PasswordSalt = "", ""
	return Session{user: &u}
}

// Active reports whether a user is signed in.
func (s Session) Active() bool { return s.user != nil }

// User returns the signed-in user without password fields, or the zero User.
func (s Session) User() model.User {
	if s.user == nil {
		return model.User{}
	}
	return *s.user
}
