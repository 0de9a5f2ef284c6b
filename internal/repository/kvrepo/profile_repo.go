package kvrepo

import (
	"context"

	"github.com/and161185/bankprep/internal/catalogue"
	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// ProfileRepo implements ProfileRepository with one document per user.
type ProfileRepo struct{ store kv.Store }

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(store kv.Store) *ProfileRepo { return &ProfileRepo{store: store} }

// Load decodes the profile or seeds, saves and returns a default one.
func (r *ProfileRepo) Load(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	ok, err := kv.GetJSON(ctx, r.store, ProfileKey(userID), &p)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		p = DefaultProfile(userID)
		if err := r.Save(ctx, p); err != nil {
			return model.Profile{}, err
		}
		return p, nil
	}
	normalize(&p, userID)
	return p, nil
}

// Save replaces the stored document.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) error {
	return kv.SetJSON(ctx, r.store, ProfileKey(p.UserID), p)
}

// DefaultProfile returns a fresh profile with the seed syllabus.
func DefaultProfile(userID string) model.Profile {
	return model.Profile{
		UserID:   userID,
		Syllabus: catalogue.Default(),
		Scores:   []model.MockTestScore{},
		Tasks:    []model.StudyTask{},
	}
}

// normalize upgrades documents written by older clients. Missing revision
// counters already decode as 0; negatives are clamped and null collections
// become empty.
func normalize(p *model.Profile, userID string) {
	if p.UserID == "" {
		p.UserID = userID
	}
	if p.Syllabus == nil {
		p.Syllabus = []model.Subject{}
	}
	if p.Scores == nil {
		p.Scores = []model.MockTestScore{}
	}
	if p.Tasks == nil {
		p.Tasks = []model.StudyTask{}
	}
	for i := range p.Syllabus {
		s := &p.Syllabus[i]
		if s.Topics == nil {
			s.Topics = []model.Topic{}
		}
		for j := range s.Topics {
			t := &s.Topics[j]
			t.PrelimsRevisions = max(t.PrelimsRevisions, 0)
			t.MainsRevisions = max(t.MainsRevisions, 0)
		}
	}
}
