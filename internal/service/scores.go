package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// ScoreService records mock-test results. Scores stay ordered newest first.
type ScoreService interface {
	// AddScore stores in under a fresh id and returns that id.
	AddScore(ctx context.Context, userID string, in model.ScoreInput) (string, model.Profile, error)
	// DeleteScore removes a score; unknown ids are a no-op.
	DeleteScore(ctx context.Context, userID, scoreID string) (model.Profile, error)
}

type ScoreServiceImpl struct{ m mutator }

// NewScoreService constructs ScoreService.
func NewScoreService(profiles repository.ProfileRepository, locks *Locks, pub Publisher, log *zap.Logger) *ScoreServiceImpl {
	return &ScoreServiceImpl{m: newMutator(profiles, locks, pub, log)}
}

// AddScore appends the score and re-sorts the whole list by date.
func (s *ScoreServiceImpl) AddScore(ctx context.Context, userID string, in model.ScoreInput) (string, model.Profile, error) {
	id, err := newID()
	if err != nil {
		return "", model.Profile{}, err
	}
	p, err := s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		p.Scores = append(p.Scores, model.MockTestScore{
			ID:            id,
			Date:          strings.TrimSpace(in.Date),
			Provider:      strings.TrimSpace(in.Provider),
			TotalMarks:    in.TotalMarks,
			ObtainedMarks: in.ObtainedMarks,
			Percentile:    in.Percentile,
			SectionScores: in.SectionScores,
		})
		SortScores(p.Scores)
		return &change{event: model.EventScoreAdded, payload: map[string]any{
			"scoreId":       id,
			"date":          in.Date,
			"obtainedMarks": in.ObtainedMarks,
			"totalMarks":    in.TotalMarks,
		}}, nil
	})
	if err != nil {
		return "", model.Profile{}, err
	}
	return id, p, nil
}

// DeleteScore filters the score out.
func (s *ScoreServiceImpl) DeleteScore(ctx context.Context, userID, scoreID string) (model.Profile, error) {
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		n := len(p.Scores)
		p.Scores = slices.DeleteFunc(p.Scores, func(sc model.MockTestScore) bool { return sc.ID == scoreID })
		if len(p.Scores) == n {
			return nil, nil
		}
		return &change{event: model.EventScoreDeleted, payload: map[string]any{"scoreId": scoreID}}, nil
	})
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SortScores orders scores by date descending. Equal dates keep their
// relative order; unparseable dates go last.
func SortScores(scores []model.MockTestScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		ti, okI := ParseDate(scores[i].Date)
		tj, okJ := ParseDate(scores[j].Date)
		switch {
		case okI && okJ:
			return ti.After(tj)
		default:
			return okI && !okJ
		}
	})
}
