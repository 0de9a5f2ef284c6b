package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// SyllabusService edits subjects and topics. Unknown subject or topic ids are
// silent no-ops that return the unchanged profile.
type SyllabusService interface {
	// UpdateTopic applies the set fields of patch to one topic.
	UpdateTopic(ctx context.Context, userID, subjectID, topicID string, patch model.TopicPatch) (model.Profile, error)
	// SetTopicField sets a single field: a bool for completed, an int for counters.
	SetTopicField(ctx context.Context, userID, subjectID, topicID string, field model.TopicField, value any) (model.Profile, error)
	// AdjustRevisions adds delta to a revision counter, stopping at zero.
	AdjustRevisions(ctx context.Context, userID, subjectID, topicID string, stage model.TopicField, delta int) (model.Profile, error)
	// AddSubject appends an empty subject and returns its id.
	AddSubject(ctx context.Context, userID, name string) (string, model.Profile, error)
	// DeleteSubject removes a subject together with its topics.
	DeleteSubject(ctx context.Context, userID, subjectID string) (model.Profile, error)
	// AddTopic appends a fresh topic to a subject and returns its id ("" when the subject is unknown).
	AddTopic(ctx context.Context, userID, subjectID, name string) (string, model.Profile, error)
	// DeleteTopic removes one topic.
	DeleteTopic(ctx context.Context, userID, subjectID, topicID string) (model.Profile, error)
}

type SyllabusServiceImpl struct{ m mutator }

// NewSyllabusService constructs SyllabusService.
func NewSyllabusService(profiles repository.ProfileRepository, locks *Locks, pub Publisher, log *zap.Logger) *SyllabusServiceImpl {
	return &SyllabusServiceImpl{m: newMutator(profiles, locks, pub, log)}
}

func validatePatch(patch model.TopicPatch) error {
	if patch.PrelimsRevisions != nil && *patch.PrelimsRevisions < 0 {
		return fmt.Errorf("prelimsRevisions must not be negative: %w", errs.ErrValidation)
	}
	if patch.MainsRevisions != nil && *patch.MainsRevisions < 0 {
		return fmt.Errorf("mainsRevisions must not be negative: %w", errs.ErrValidation)
	}
	return nil
}

func applyPatch(t *model.Topic, patch model.TopicPatch) map[string]any {
	changed := map[string]any{"topicId": t.ID}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
		changed[string(model.FieldCompleted)] = t.Completed
	}
	if patch.PrelimsRevisions != nil {
		t.PrelimsRevisions = *patch.PrelimsRevisions
		changed[string(model.FieldPrelimsRevisions)] = t.PrelimsRevisions
	}
	if patch.MainsRevisions != nil {
		t.MainsRevisions = *patch.MainsRevisions
		changed[string(model.FieldMainsRevisions)] = t.MainsRevisions
	}
	return changed
}

// UpdateTopic rejects negative counters; it never clamps.
func (s *SyllabusServiceImpl) UpdateTopic(
	ctx context.Context, userID, subjectID, topicID string, patch model.TopicPatch,
) (model.Profile, error) {
	if err := validatePatch(patch); err != nil {
		return model.Profile{}, err
	}
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		t := findTopic(p, subjectID, topicID)
		if t == nil {
			return nil, nil
		}
		payload := applyPatch(t, patch)
		payload["subjectId"] = subjectID
		return &change{event: model.EventTopicUpdated, payload: payload}, nil
	})
}

// TopicPatchFor builds the single-field patch for field and value.
func TopicPatchFor(field model.TopicField, value any) (model.TopicPatch, error) {
	switch field {
	case model.FieldCompleted:
		b, ok := value.(bool)
		if !ok {
			return model.TopicPatch{}, fmt.Errorf("%s wants a bool, got %T: %w", field, value, errs.ErrValidation)
		}
		return model.TopicPatch{Completed: &b}, nil
	case model.FieldPrelimsRevisions, model.FieldMainsRevisions:
		n, ok := value.(int)
		if !ok {
			return model.TopicPatch{}, fmt.Errorf("%s wants an int, got %T: %w", field, value, errs.ErrValidation)
		}
		if field == model.FieldPrelimsRevisions {
			return model.TopicPatch{PrelimsRevisions: &n}, nil
		}
		return model.TopicPatch{MainsRevisions: &n}, nil
	default:
		return model.TopicPatch{}, fmt.Errorf("unknown topic field %q: %w", field, errs.ErrValidation)
	}
}

// SetTopicField is the single-field form of UpdateTopic.
func (s *SyllabusServiceImpl) SetTopicField(
	ctx context.Context, userID, subjectID, topicID string, field model.TopicField, value any,
) (model.Profile, error) {
	patch, err := TopicPatchFor(field, value)
	if err != nil {
		return model.Profile{}, err
	}
	return s.UpdateTopic(ctx, userID, subjectID, topicID, patch)
}

// AdjustRevisions computes max(0, current+delta) under the user lock.
func (s *SyllabusServiceImpl) AdjustRevisions(
	ctx context.Context, userID, subjectID, topicID string, stage model.TopicField, delta int,
) (model.Profile, error) {
	if stage != model.FieldPrelimsRevisions && stage != model.FieldMainsRevisions {
		return model.Profile{}, fmt.Errorf("unknown revision stage %q: %w", stage, errs.ErrValidation)
	}
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		t := findTopic(p, subjectID, topicID)
		if t == nil {
			return nil, nil
		}
		cur := t.PrelimsRevisions
		if stage == model.FieldMainsRevisions {
			cur = t.MainsRevisions
		}
		patch, _ := TopicPatchFor(stage, max(0, cur+delta))
		payload := applyPatch(t, patch)
		payload["subjectId"] = subjectID
		return &change{event: model.EventTopicUpdated, payload: payload}, nil
	})
}

// AddSubject appends a subject with a fresh id and no topics.
func (s *SyllabusServiceImpl) AddSubject(ctx context.Context, userID, name string) (string, model.Profile, error) {
	if blank(name) {
		return "", model.Profile{}, fmt.Errorf("subject name is required: %w", errs.ErrValidation)
	}
	id, err := newID()
	if err != nil {
		return "", model.Profile{}, err
	}
	p, err := s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		p.Syllabus = append(p.Syllabus, model.Subject{ID: id, Name: strings.TrimSpace(name), Topics: []model.Topic{}})
		return &change{event: model.EventSubjectAdded, payload: map[string]any{"subjectId": id, "name": strings.TrimSpace(name)}}, nil
	})
	if err != nil {
		return "", model.Profile{}, err
	}
	return id, p, nil
}

// DeleteSubject filters the subject out.
func (s *SyllabusServiceImpl) DeleteSubject(ctx context.Context, userID, subjectID string) (model.Profile, error) {
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		n := len(p.Syllabus)
		p.Syllabus = slices.DeleteFunc(p.Syllabus, func(sub model.Subject) bool { return sub.ID == subjectID })
		if len(p.Syllabus) == n {
			return nil, nil
		}
		return &change{event: model.EventSubjectDeleted, payload: map[string]any{"subjectId": subjectID}}, nil
	})
}

// AddTopic appends an uncompleted topic with zero counters.
func (s *SyllabusServiceImpl) AddTopic(ctx context.Context, userID, subjectID, name string) (string, model.Profile, error) {
	if blank(name) {
		return "", model.Profile{}, fmt.Errorf("topic name is required: %w", errs.ErrValidation)
	}
	id, err := newID()
	if err != nil {
		return "", model.Profile{}, err
	}
	added := false
	p, err := s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		sub := findSubject(p, subjectID)
		if sub == nil {
			return nil, nil
		}
		sub.Topics = append(sub.Topics, model.Topic{ID: id, Name: strings.TrimSpace(name)})
		added = true
		return &change{event: model.EventTopicAdded, payload: map[string]any{"subjectId": subjectID, "topicId": id, "name": strings.TrimSpace(name)}}, nil
	})
	if err != nil {
		return "", model.Profile{}, err
	}
	if !added {
		return "", p, nil
	}
	return id, p, nil
}

// DeleteTopic filters the topic out of its subject.
func (s *SyllabusServiceImpl) DeleteTopic(ctx context.Context, userID, subjectID, topicID string) (model.Profile, error) {
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		sub := findSubject(p, subjectID)
		if sub == nil {
			return nil, nil
		}
		n := len(sub.Topics)
		sub.Topics = slices.DeleteFunc(sub.Topics, func(t model.Topic) bool { return t.ID == topicID })
		if len(sub.Topics) == n {
			return nil, nil
		}
		return &change{event: model.EventTopicDeleted, payload: map[string]any{"subjectId": subjectID, "topicId": topicID}}, nil
	})
}
