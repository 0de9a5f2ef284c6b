package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/bankprep/internal/crypto"
	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/export"
	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/repository/kvrepo"
	"github.com/and161185/bankprep/internal/service"
	"github.com/and161185/bankprep/internal/tutor"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeTutor struct {
	reply  tutor.Reply
	err    error
	prompt string
	prior  []model.ChatTurn
}

func (f *fakeTutor) Ask(_ context.Context, prompt string, prior []model.ChatTurn) (tutor.Reply, error) {
	f.prompt, f.prior = prompt, prior
	return f.reply, f.err
}

func newTestServer(t *testing.T, tut tutor.Asker) http.Handler {
	t.Helper()

	store := kv.NewMemory(0)
	users := kvrepo.NewUserRepo(store)
	profiles := kvrepo.NewProfileRepo(store)
	locks := service.NewLocks()
	log := zaptest.NewLogger(t)
	hasher := pkgcrypto.Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

	s := New(Deps{
		Auth:      service.NewAuthService(users, nil, hasher, locks, nil, log),
		Tokens:    service.NewTokenManager([]byte("test-key"), time.Hour),
		Profiles:  service.NewProfileService(profiles, locks),
		Syllabus:  service.NewSyllabusService(profiles, locks, nil, log),
		Scores:    service.NewScoreService(profiles, locks, nil, log),
		Tasks:     service.NewTaskService(profiles, locks, nil, log),
		Dashboard: service.NewDashboardService(profiles, locks),
		Tutor:     tut,
		Logger:    log,
	})
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func registerUser(t *testing.T, h http.Handler, name string) sessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Username: name, Email: name + "@example.com", Password: "pw-" + name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestID_Reused(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestRegisterLoginMe(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	reg := registerUser(t, h, "alice")
	require.NotEmpty(t, reg.AccessToken)
	require.Equal(t, "alice", reg.User.Username)

	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Username: "ALICE", Email: "a@example.com", Password: "x",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Username: "alice", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Username: "alice", Password: "pw-alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[sessionResponse](t, rec)
	require.Equal(t, reg.User.ID, login.User.ID)

	rec = do(t, h, http.MethodGet, "/api/v1/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[userView](t, rec)
	require.Equal(t, "alice@example.com", me.Email)
	require.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "bob", "password": "pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "email")

	rec = do(t, h, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Username: "bob", Email: "   ", Password: "pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/register", "", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Required(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/profile", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/profile", "garbage", nil).Code)

	other := service.NewTokenManager([]byte("other-key"), time.Hour)
	tok, err := other.Issue("u-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/profile", tok.AccessToken, nil).Code)
}

func TestMe_UnknownUser(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})

	tok, err := service.NewTokenManager([]byte("test-key"), time.Hour).Issue("ghost")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/me", tok.AccessToken, nil).Code)
}

func TestSyllabusFlow(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})
	tok := registerUser(t, h, "carol").AccessToken

	rec := do(t, h, http.MethodGet, "/api/v1/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.Profile](t, rec)
	require.Len(t, p.Syllabus, 4)

	rec = do(t, h, http.MethodPost, "/api/v1/syllabus/subjects", tok, nameRequest{Name: "Computer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[createdResponse](t, rec)
	require.NotEmpty(t, sub.ID)
	require.Len(t, sub.Profile.Syllabus, 5)

	rec = do(t, h, http.MethodPost, "/api/v1/syllabus/subjects/"+sub.ID+"/topics", tok, nameRequest{Name: "Networks"})
	require.Equal(t, http.StatusCreated, rec.Code)
	top := decode[createdResponse](t, rec)
	require.NotEmpty(t, top.ID)

	topicPath := fmt.Sprintf("/api/v1/syllabus/subjects/%s/topics/%s", sub.ID, top.ID)

	rec = do(t, h, http.MethodPatch, topicPath, tok, map[string]any{"completed": true, "prelimsRevisions": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p = decode[model.Profile](t, rec)
	got := p.Syllabus[4].Topics[0]
	require.True(t, got.Completed)
	require.Equal(t, 2, got.PrelimsRevisions)
	require.Equal(t, 0, got.MainsRevisions)

	rec = do(t, h, http.MethodPatch, topicPath, tok, map[string]any{"mainsRevisions": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, topicPath+"/revisions", tok, revisionRequest{Stage: model.FieldPrelimsRevisions, Delta: -5})
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[model.Profile](t, rec)
	require.Equal(t, 0, p.Syllabus[4].Topics[0].PrelimsRevisions)

	rec = do(t, h, http.MethodPost, topicPath+"/revisions", tok, map[string]any{"stage": "completed", "delta": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/syllabus/subjects/missing/topics", tok, nameRequest{Name: "X"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[createdResponse](t, rec).ID)

	rec = do(t, h, http.MethodDelete, topicPath, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[model.Profile](t, rec).Syllabus[4].Topics)

	rec = do(t, h, http.MethodDelete, "/api/v1/syllabus/subjects/"+sub.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[model.Profile](t, rec).Syllabus, 4)
}

func TestScoresTasksAndDashboard(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})
	tok := registerUser(t, h, "dave").AccessToken

	for _, d := range []string{"2024-01-10", "2024-03-01"} {
		rec := do(t, h, http.MethodPost, "/api/v1/scores", tok, scoreRequest{
			Date: d, Provider: "Oliveboard", TotalMarks: 100, ObtainedMarks: 60, Percentile: 90,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/api/v1/scores", tok, scoreRequest{Date: "2024-02-01", Percentile: 120})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// marks are free-form numbers; negative marking can push them below zero
	rec = do(t, h, http.MethodPost, "/api/v1/scores", tok, scoreRequest{Date: "2023-12-01", TotalMarks: 100, ObtainedMarks: -2.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lowID := decode[createdResponse](t, rec).ID

	rec = do(t, h, http.MethodDelete, "/api/v1/scores/"+lowID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/profile", tok, nil)
	p := decode[model.Profile](t, rec)
	require.Len(t, p.Scores, 2)
	require.Equal(t, "2024-03-01", p.Scores[0].Date)

	rec = do(t, h, http.MethodDelete, "/api/v1/scores/"+p.Scores[0].ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[model.Profile](t, rec).Scores, 1)

	rec = do(t, h, http.MethodPost, "/api/v1/tasks", tok, taskRequest{Title: "Mock 3", Date: "2024-04-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[createdResponse](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/tasks", tok, taskRequest{Title: ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[model.Stats](t, rec)
	require.Equal(t, 1, st.PendingTasks)
	require.Equal(t, float64(60), st.BestScore)
	require.Equal(t, 29, st.TotalTopics)

	rec = do(t, h, http.MethodPost, "/api/v1/tasks/"+task.ID+"/toggle", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[model.Profile](t, rec).Tasks[0].Completed)

	rec = do(t, h, http.MethodDelete, "/api/v1/tasks/"+task.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[model.Profile](t, rec).Tasks)

	rec = do(t, h, http.MethodPut, "/api/v1/profile/target-date", tok, targetDateRequest{Date: "soon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/profile/target-date", tok, targetDateRequest{Date: "2030-01-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2030-01-01", decode[model.Profile](t, rec).TargetExamDate)

	rec = do(t, h, http.MethodGet, "/api/v1/dashboard", tok, nil)
	require.NotNil(t, decode[model.Stats](t, rec).DaysToExam)
}

func TestExport(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeTutor{})
	tok := registerUser(t, h, "erin").AccessToken

	rec := do(t, h, http.MethodGet, "/api/v1/export.xlsx", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{export.ScoresSheet, export.SyllabusSheet}, f.GetSheetList())
}

func TestTutorAsk(t *testing.T) {
	t.Parallel()
	ft := &fakeTutor{reply: tutor.Reply{Text: "Simplify first.", Status: tutor.StatusOK}}
	h := newTestServer(t, ft)
	tok := registerUser(t, h, "frank").AccessToken

	rec := do(t, h, http.MethodPost, "/api/v1/tutor/ask", tok, askRequest{
		Prompt:  "How do I solve ratios?",
		History: []chatTurn{{Role: model.RoleUser, Text: "hi"}, {Role: model.RoleModel, Text: "hello"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[askResponse](t, rec)
	require.Equal(t, "Simplify first.", resp.Text)
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "How do I solve ratios?", ft.prompt)
	require.Len(t, ft.prior, 2)

	rec = do(t, h, http.MethodPost, "/api/v1/tutor/ask", tok, map[string]any{
		"prompt": "q", "history": []map[string]string{{"role": "system", "text": "x"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tutor/ask", tok, askRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTutorAsk_Failures(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &fakeTutor{err: fmt.Errorf("no key: %w", errs.ErrConfiguration)})
	tok := registerUser(t, h, "gina").AccessToken
	rec := do(t, h, http.MethodPost, "/api/v1/tutor/ask", tok, askRequest{Prompt: "q"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h = newTestServer(t, &fakeTutor{reply: tutor.Reply{
		Text: tutor.FailureReplyText, Status: tutor.StatusTransportFailure, Err: fmt.Errorf("dial"),
	}})
	tok = registerUser(t, h, "hank").AccessToken
	rec = do(t, h, http.MethodPost, "/api/v1/tutor/ask", tok, askRequest{Prompt: "q"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(tutor.StatusTransportFailure), decode[askResponse](t, rec).Status)
}

func TestRecover_CatchesPanic(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestID(), Recover(zaptest.NewLogger(t)))
	r.GET("/boom", func(*gin.Context) { panic("oh no") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal")
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := map[error]int{
		errs.ErrValidation:         http.StatusBadRequest,
		errs.ErrInvalidCredentials: http.StatusUnauthorized,
		errs.ErrDuplicateUsername:  http.StatusConflict,
		errs.ErrNotFound:           http.StatusNotFound,
		errs.ErrConfiguration:      http.StatusServiceUnavailable,
		errs.ErrStorageUnavailable: http.StatusServiceUnavailable,
		fmt.Errorf("boom"):         http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}
