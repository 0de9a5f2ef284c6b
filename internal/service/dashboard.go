package service

import (
	"context"
	"math"
	"time"

	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository"
)

// recentScores is the number of scores shown in the trend.
const recentScores = 5

// DashboardService computes aggregate figures of a profile.
type DashboardService interface {
	Stats(ctx context.Context, userID string) (model.Stats, error)
}

type DashboardServiceImpl struct {
	m   mutator
	now func() time.Time
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(profiles repository.ProfileRepository, locks *Locks) *DashboardServiceImpl {
	return &DashboardServiceImpl{m: newMutator(profiles, locks, nil, nil), now: time.Now}
}

// Stats loads the profile and aggregates it.
func (s *DashboardServiceImpl) Stats(ctx context.Context, userID string) (model.Stats, error) {
	p, err := s.m.load(ctx, userID)
	if err != nil {
		return model.Stats{}, err
	}
	return ComputeStats(p, s.now()), nil
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// ComputeStats aggregates p as of now.
func ComputeStats(p model.Profile, now time.Time) model.Stats {
	st := model.Stats{
		Subjects:     make([]model.SubjectProgress, 0, len(p.Syllabus)),
		RecentScores: []model.ScorePoint{},
	}
	for _, sub := range p.Syllabus {
		done := 0
		for _, t := range sub.Topics {
			if t.Completed {
				done++
			}
		}
		st.TotalTopics += len(sub.Topics)
		st.CompletedTopics += done
		st.Subjects = append(st.Subjects, model.SubjectProgress{
			SubjectID:  sub.ID,
			Name:       sub.Name,
			Completed:  done,
			Total:      len(sub.Topics),
			Percentage: percent(done, len(sub.Topics)),
		})
	}
	st.CompletionPercentage = percent(st.CompletedTopics, st.TotalTopics)

	for i, sc := range p.Scores {
		if i == 0 || sc.ObtainedMarks > st.BestScore {
			st.BestScore = sc.ObtainedMarks
		}
	}
	// the trend runs oldest to newest
	sorted := append([]model.MockTestScore(nil), p.Scores...)
	SortScores(sorted)
	n := min(recentScores, len(sorted))
	for i := n - 1; i >= 0; i-- {
		sc := sorted[i]
		st.RecentScores = append(st.RecentScores, model.ScorePoint{Date: sc.Date, Obtained: sc.ObtainedMarks, Total: sc.TotalMarks})
	}

	for _, t := range p.Tasks {
		if !t.Completed {
			st.PendingTasks++
		}
	}

	if exam, ok := ParseDate(p.TargetExamDate); ok {
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		ey, em, ed := exam.Date()
		target := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
		days := int(target.Sub(today).Hours() / 24)
		st.DaysToExam = &days
	}
	return st
}
