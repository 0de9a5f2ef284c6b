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

// TaskService manages study tasks and the target exam date.
type TaskService interface {
	AddTask(ctx context.Context, userID, title, date string) (string, model.Profile, error)
	ToggleTask(ctx context.Context, userID, taskID string) (model.Profile, error)
	DeleteTask(ctx context.Context, userID, taskID string) (model.Profile, error)
	// SetTargetExamDate sets the exam date; "" clears it.
	SetTargetExamDate(ctx context.Context, userID, date string) (model.Profile, error)
}

type TaskServiceImpl struct{ m mutator }

// NewTaskService constructs TaskService.
func NewTaskService(profiles repository.ProfileRepository, locks *Locks, pub Publisher, log *zap.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{m: newMutator(profiles, locks, pub, log)}
}

// AddTask appends an open task.
func (s *TaskServiceImpl) AddTask(ctx context.Context, userID, title, date string) (string, model.Profile, error) {
	if blank(title) {
		return "", model.Profile{}, fmt.Errorf("task title is required: %w", errs.ErrValidation)
	}
	id, err := newID()
	if err != nil {
		return "", model.Profile{}, err
	}
	p, err := s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		p.Tasks = append(p.Tasks, model.StudyTask{ID: id, Title: strings.TrimSpace(title), Date: strings.TrimSpace(date)})
		return &change{event: model.EventTaskAdded, payload: map[string]any{"taskId": id}}, nil
	})
	if err != nil {
		return "", model.Profile{}, err
	}
	return id, p, nil
}

// ToggleTask flips the completed flag.
func (s *TaskServiceImpl) ToggleTask(ctx context.Context, userID, taskID string) (model.Profile, error) {
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		for i := range p.Tasks {
			if p.Tasks[i].ID == taskID {
				p.Tasks[i].Completed = !p.Tasks[i].Completed
				return &change{event: model.EventTaskToggled, payload: map[string]any{
					"taskId":    taskID,
					"completed": p.Tasks[i].Completed,
				}}, nil
			}
		}
		return nil, nil
	})
}

// DeleteTask filters the task out.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) (model.Profile, error) {
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		n := len(p.Tasks)
		p.Tasks = slices.DeleteFunc(p.Tasks, func(t model.StudyTask) bool { return t.ID == taskID })
		if len(p.Tasks) == n {
			return nil, nil
		}
		return &change{event: model.EventTaskDeleted, payload: map[string]any{"taskId": taskID}}, nil
	})
}

// SetTargetExamDate requires a calendar date unless clearing.
func (s *TaskServiceImpl) SetTargetExamDate(ctx context.Context, userID, date string) (model.Profile, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, ok := ParseDate(date); !ok {
			return model.Profile{}, fmt.Errorf("target exam date %q: %w", date, errs.ErrValidation)
		}
	}
	return s.m.mutate(ctx, userID, func(p *model.Profile) (*change, error) {
		if p.TargetExamDate == date {
			return nil, nil
		}
		p.TargetExamDate = date
		return &change{event: model.EventTargetDateSet, payload: map[string]any{"date": date}}, nil
	})
}
