package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// change is returned by a profile edit. A nil change leaves the document untouched.
type change struct {
	event   model.EventType
	payload map[string]any
}

// mutator runs whole-document read-modify-write cycles under a per-user lock.
type mutator struct {
	profiles repository.ProfileRepository
	locks    *Locks
	pub      Publisher
	log      *zap.Logger
}

func newMutator(profiles repository.ProfileRepository, locks *Locks, pub Publisher, log *zap.Logger) mutator {
	if locks == nil {
		locks = NewLocks()
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return mutator{profiles: profiles, locks: locks, pub: pub, log: log}
}

func (m mutator) load(ctx context.Context, userID string) (model.Profile, error) {
	if blank(userID) {
		return model.Profile{}, fmt.Errorf("user id: %w", errs.ErrValidation)
	}
	// Load may create the default document, so it races with mutate.
	unlock := m.locks.Lock(userID)
	defer unlock()
	return m.profiles.Load(ctx, userID)
}

func (m mutator) mutate(ctx context.Context, userID string, edit func(p *model.Profile) (*change, error)) (model.Profile, error) {
	if blank(userID) {
		return model.Profile{}, fmt.Errorf("user id: %w", errs.ErrValidation)
	}
	unlock := m.locks.Lock(userID)
	defer unlock()

	p, err := m.profiles.Load(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	next := p.Clone()
	ch, err := edit(&next)
	if err != nil {
		return model.Profile{}, err
	}
	if ch == nil {
		return p, nil
	}
	if err := m.profiles.Save(ctx, next); err != nil {
		return model.Profile{}, err
	}
	emit(ctx, m.pub, m.log, ch.event, userID, ch.payload)
	return next, nil
}

// ProfileService reads the whole profile document.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

type ProfileServiceImpl struct{ m mutator }

// NewProfileService constructs ProfileService. locks must be shared with the
// mutating services of the same store.
func NewProfileService(profiles repository.ProfileRepository, locks *Locks) *ProfileServiceImpl {
	return &ProfileServiceImpl{m: newMutator(profiles, locks, nil, nil)}
}

// Profile loads the profile, creating the default one on first access.
func (s *ProfileServiceImpl) Profile(ctx context.Context, userID string) (model.Profile, error) {
	return s.m.load(ctx, userID)
}

func findSubject(p *model.Profile, subjectID string) *model.Subject {
	for i := range p.Syllabus {
		if p.Syllabus[i].ID == subjectID {
			return &p.Syllabus[i]
		}
	}
	return nil
}

func findTopic(p *model.Profile, subjectID, topicID string) *model.Topic {
	s := findSubject(p, subjectID)
	if s == nil {
		return nil
	}
	for i := range s.Topics {
		if s.Topics[i].ID == topicID {
			return &s.Topics[i]
		}
	}
	return nil
}
