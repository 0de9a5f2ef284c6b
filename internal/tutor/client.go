// Package tutor talks to Gemini through the genai SDK on behalf of the chat
// assistant. It keeps no transcript; callers pass prior turns on each call.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-flash-preview"
	DefaultTimeout = 60 * time.Second
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv = "API_KEY"
)

const systemInstruction = "You are an expert Banking Exam Tutor (for exams like IBPS, SBI, RBI). " +
	"You help students with Quantitative Aptitude, Reasoning, English, and General Awareness. " +
	"Keep answers concise, motivating, and strictly relevant to banking exams. " +
	"If asked for a schedule, format it clearly. " +
	"If asked a math problem, explain the step-by-step solution clearly."

// User-facing replies substituted for missing or failed answers.
const (
	EmptyReplyText   = "I couldn't generate a response. Please try again."
	FailureReplyText = "Sorry, I encountered an error connecting to the AI tutor. Please check your connection or API key."
)

// Greeting opens every chat transcript as the first model turn.
const Greeting = "Hello! I'm your Banking Exam AI Tutor. I can help you with Quant tricks, " +
	"Reasoning puzzles, English grammar, or create a study plan for you. How can I help today?"

// Opening returns a fresh transcript holding only the greeting.
func Opening() []model.ChatTurn {
	return []model.ChatTurn{{Role: model.RoleModel, Text: Greeting}}
}

// Status classifies a Reply.
type Status string

const (
	StatusOK               Status = "ok"
	StatusEmpty            Status = "empty"
	StatusTransportFailure Status = "transport_failure"
)

// Reply is the outcome of one exchange. Text is always safe to show.
type Reply struct {
	Text   string
	Status Status
	Err    error // cause of a transport failure, for logging
}

// Asker is implemented by Client.
type Asker interface {
	Ask(ctx context.Context, prompt string, prior []model.ChatTurn) (Reply, error)
}

// Options configures a Client. Zero fields take defaults.
type Options struct {
	APIKey     string // empty: read APIKeyEnv at first use
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Getenv     func(string) string
	Logger     *zap.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
	getenv  func(string) string
	log     *zap.Logger

	mu     sync.Mutex
	apiKey string
	sdk    *genai.Client // built once a key is known
}

var _ Asker = (*Client)(nil)

// New builds a client. No network or environment access happens here.
func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   opts.Model,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		getenv:  opts.Getenv,
		log:     opts.Logger,
		apiKey:  strings.TrimSpace(opts.APIKey),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.getenv == nil {
		c.getenv = os.Getenv
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// genaiClient returns the cached SDK client, reading the API key from the
// environment until one is found.
func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sdk != nil {
		return c.sdk, nil
	}
	if c.apiKey == "" {
		c.apiKey = strings.TrimSpace(c.getenv(APIKeyEnv))
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("tutor: %s is not set: %w", APIKeyEnv, errs.ErrConfiguration)
	}
	sdk, err := genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
		APIKey:      c.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.http,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("tutor: client: %v: %w", err, errs.ErrConfiguration)
	}
	c.sdk = sdk
	return sdk, nil
}

// history converts prior turns into chat contents.
func history(prior []model.ChatTurn) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(prior))
	for i, t := range prior {
		var role genai.Role
		switch t.Role {
		case model.RoleUser:
			role = genai.RoleUser
		case model.RoleModel:
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("turn %d: role %q: %w", i, t.Role, errs.ErrValidation)
		}
		out = append(out, genai.NewContentFromText(t.Text, role))
	}
	return out, nil
}

// Ask sends one exchange. The only errors are ErrConfiguration, raised before
// any network call, and ErrValidation for a blank prompt or unknown role.
// Remote failures come back as a Reply with StatusTransportFailure.
func (c *Client) Ask(ctx context.Context, prompt string, prior []model.ChatTurn) (Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return Reply{}, fmt.Errorf("tutor: empty prompt: %w", errs.ErrValidation)
	}
	hist, err := history(prior)
	if err != nil {
		return Reply{}, err
	}
	sdk, err := c.genaiClient(ctx)
	if err != nil {
		return Reply{}, err
	}

	start := time.Now()
	text, err := c.send(ctx, sdk, prompt, hist)
	if err != nil {
		c.log.Warn("tutor request failed",
			zap.String("model", c.model),
			zap.Duration("dur", time.Since(start)),
			zap.Int("status", StatusCode(err)),
			zap.Error(err),
		)
		return Reply{Text: FailureReplyText, Status: StatusTransportFailure, Err: err}, nil
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Text: EmptyReplyText, Status: StatusEmpty}, nil
	}
	c.log.Debug("tutor reply", zap.String("model", c.model), zap.Duration("dur", time.Since(start)))
	return Reply{Text: text, Status: StatusOK}, nil
}

// send opens a chat seeded with hist and sends prompt as the next user turn.
func (c *Client) send(ctx context.Context, sdk *genai.Client, prompt string, hist []*genai.Content) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chat, err := sdk.Chats.Create(ctx, c.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}, hist)
	if err != nil {
		return "", err
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// StatusCode extracts the HTTP status of a failed reply, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
