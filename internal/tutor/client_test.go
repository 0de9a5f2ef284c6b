package tutor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
)

func noEnv(string) string { return "" }

// wireRequest is the part of the generateContent body the tests inspect.
type wireRequest struct {
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func newTestClient(t *testing.T, srv *httptest.Server, key string) *Client {
	t.Helper()
	return New(Options{
		APIKey:  key,
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Getenv:  noEnv,
		Logger:  zaptest.NewLogger(t),
	})
}

func TestAsk_OK(t *testing.T) {
	t.Parallel()
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "k-123", r.Header.Get("x-goog-api-key"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Use "},{"text":"PV = FV/(1+r)^n."}]}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "k-123")
	prior := []model.ChatTurn{
		{Role: model.RoleUser, Text: "What is CI?"},
		{Role: model.RoleModel, Text: "Compound interest."},
	}
	reply, err := c.Ask(context.Background(), "Formula for present value?", prior)
	require.NoError(t, err)
	require.Equal(t, StatusOK, reply.Status)
	require.Equal(t, "Use PV = FV/(1+r)^n.", reply.Text)

	require.Contains(t, got.SystemInstruction.Parts[0].Text, "Banking Exam Tutor")
	require.Len(t, got.Contents, 3)
	require.Equal(t, "user", got.Contents[0].Role)
	require.Equal(t, "model", got.Contents[1].Role)
	require.Equal(t, "Formula for present value?", got.Contents[2].Parts[0].Text)
}

func TestAsk_MissingKeyNoNetwork(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	_, err := c.Ask(context.Background(), "hi", nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
	require.Zero(t, calls.Load())
}

func TestAsk_KeyFromEnvCached(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "env-key", r.Header.Get("x-goog-api-key"))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	var lookups atomic.Int32
	c := New(Options{BaseURL: srv.URL, Getenv: func(k string) string {
		require.Equal(t, APIKeyEnv, k)
		lookups.Add(1)
		return "env-key"
	}})
	for i := 0; i < 3; i++ {
		reply, err := c.Ask(context.Background(), "hi", nil)
		require.NoError(t, err)
		require.Equal(t, "ok", reply.Text)
	}
	require.Equal(t, int32(1), lookups.Load())
}

func TestAsk_Empty(t *testing.T) {
	t.Parallel()
	for _, body := range []string{`{"candidates":[]}`, `{}`, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		reply, err := newTestClient(t, srv, "k").Ask(context.Background(), "hi", nil)
		srv.Close()
		require.NoError(t, err)
		require.Equal(t, StatusEmpty, reply.Status, body)
		require.Equal(t, EmptyReplyText, reply.Text)
	}
}

func TestAsk_TransportFailures(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	}))
	reply, err := newTestClient(t, srv, "k").Ask(context.Background(), "hi", nil)
	srv.Close()
	require.NoError(t, err)
	require.Equal(t, StatusTransportFailure, reply.Status)
	require.Equal(t, FailureReplyText, reply.Text)
	require.Equal(t, http.StatusForbidden, StatusCode(reply.Err))

	// server gone
	reply, err = newTestClient(t, srv, "k").Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, StatusTransportFailure, reply.Status)
	require.Error(t, reply.Err)
	require.Zero(t, StatusCode(reply.Err))

	// malformed body
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer bad.Close()
	reply, err = newTestClient(t, bad, "k").Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, StatusTransportFailure, reply.Status)
}

func TestAsk_TimeoutAndCancel(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Options{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Getenv: noEnv})
	start := time.Now()
	reply, err := c.Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, StatusTransportFailure, reply.Status)
	require.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply, err = newTestClient(t, srv, "k").Ask(ctx, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, StatusTransportFailure, reply.Status)
}

func TestAsk_Validation(t *testing.T) {
	t.Parallel()
	c := New(Options{APIKey: "k", Getenv: noEnv})
	_, err := c.Ask(context.Background(), "  ", nil)
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = c.Ask(context.Background(), "hi", []model.ChatTurn{{Role: "system", Text: "x"}})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestOpening_StartsWithGreeting(t *testing.T) {
	t.Parallel()

	a := Opening()
	require.Equal(t, []model.ChatTurn{{Role: model.RoleModel, Text: Greeting}}, a)

	a[0].Text = "changed"
	require.Equal(t, Greeting, Opening()[0].Text)

	hist, err := history(a)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, "model", hist[0].Role)
	require.Equal(t, Greeting, hist[0].Parts[0].Text)
}
