package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository/kvrepo"
)

func TestComputeStats_Empty(t *testing.T) {
	t.Parallel()
	st := ComputeStats(model.Profile{}, time.Now())
	require.Zero(t, st.TotalTopics)
	require.Zero(t, st.CompletionPercentage)
	require.Zero(t, st.BestScore)
	require.Empty(t, st.RecentScores)
	require.Nil(t, st.DaysToExam)
}

func TestComputeStats(t *testing.T) {
	t.Parallel()
	p := model.Profile{
		Syllabus: []model.Subject{
			{ID: "a", Name: "A", Topics: []model.Topic{{ID: "1", Completed: true}, {ID: "2"}, {ID: "3"}}},
			{ID: "b", Name: "B", Topics: []model.Topic{}},
		},
		Tasks:          []model.StudyTask{{ID: "t1"}, {ID: "t2", Completed: true}, {ID: "t3"}},
		TargetExamDate: "2024-03-10",
	}
	for i, d := range []string{"2024-02-07", "2024-02-06", "2024-02-05", "2024-02-04", "2024-02-03", "2024-02-02"} {
		p.Scores = append(p.Scores, model.MockTestScore{ID: d, Date: d, ObtainedMarks: float64(60 + i*5), TotalMarks: 100})
	}

	now := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)
	st := ComputeStats(p, now)

	require.Equal(t, 3, st.TotalTopics)
	require.Equal(t, 1, st.CompletedTopics)
	require.Equal(t, 33, st.CompletionPercentage)
	require.Equal(t, []model.SubjectProgress{
		{SubjectID: "a", Name: "A", Completed: 1, Total: 3, Percentage: 33},
		{SubjectID: "b", Name: "B", Completed: 0, Total: 0, Percentage: 0},
	}, st.Subjects)
	require.Equal(t, float64(85), st.BestScore)
	require.Equal(t, 2, st.PendingTasks)

	require.Len(t, st.RecentScores, 5)
	require.Equal(t, "2024-02-03", st.RecentScores[0].Date)
	require.Equal(t, "2024-02-07", st.RecentScores[4].Date)

	require.NotNil(t, st.DaysToExam)
	require.Equal(t, 9, *st.DaysToExam)
}

func TestDashboard_Stats_DefaultProfile(t *testing.T) {
	t.Parallel()
	s := NewDashboardService(kvrepo.NewProfileRepo(kv.NewMemory(0)), NewLocks())
	st, err := s.Stats(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, 29, st.TotalTopics)
	require.Len(t, st.Subjects, 4)
}
