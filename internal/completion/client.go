package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

// Options tunes a single completion call. A zero Model falls back to the
// configured default; MaxTokens defaults to 200. AttachmentCount adds a
// screenshot hint to the prompt.
type Options struct {
	Model           string
	MaxTokens       int
	AttachmentCount int
}

// Result is the uniform outcome of a completion call. Failures are normal
// results, not errors; every caller branches on Success.
type Result struct {
	Success bool
	Content string
	Err     string
}

// Client issues completion calls against a text-generation endpoint.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) Result
	Enabled() bool
}

type openAIClient struct {
	cfg     config.OpenAIConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient builds a chat-completions client. With no API key or with the
// feature disabled, every call fails closed.
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger, metrics *observability.Metrics) Client {
	return &openAIClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
		metrics: metrics,
	}
}

// Enabled reports whether completion calls can succeed at all.
func (c *openAIClient) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one prompt and normalizes every failure into the Result.
// Request shaping depends on the model identifier by substring: gpt-5
// models only accept temperature 1, and gpt-4o/gpt-5 models take the
// renamed max_completion_tokens parameter.
func (c *openAIClient) Complete(ctx context.Context, prompt string, opts Options) Result {
	if !c.Enabled() {
		return Result{Success: false, Err: "completion disabled"}
	}

	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}

	if opts.AttachmentCount > 0 {
		prompt += fmt.Sprintf("\n\n[The user has attached %d screenshot(s). Analyze these to understand the context.]", opts.AttachmentCount)
	}

	body := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if strings.Contains(model, "gpt-5") {
		body.Temperature = 1
	} else {
		body.Temperature = 0.3
	}
	if strings.Contains(model, "gpt-4o") || strings.Contains(model, "gpt-5") {
		body.MaxCompletionTokens = maxTokens
	} else {
		body.MaxTokens = maxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return c.failure("encode request: " + err.Error())
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return c.failure("build request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.failure(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failure("read response: " + err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return c.failure(apiErr.Error.Message)
		}
		return c.failure(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return c.failure("decode response: " + err.Error())
	}
	if len(parsed.Choices) == 0 {
		return c.failure("empty choices")
	}

	c.metrics.RecordCompletion(true)
	return Result{Success: true, Content: strings.TrimSpace(parsed.Choices[0].Message.Content)}
}

func (c *openAIClient) failure(msg string) Result {
	c.metrics.RecordCompletion(false)
	c.logger.Debug("completion call failed", zap.String("error", msg))
	return Result{Success: false, Err: msg}
}
