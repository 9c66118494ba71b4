// Package generation invokes the completion API on the pipeline hot
// path. It is the only network call a message ever waits on, so every
// request carries an explicit timeout.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/omnireplyhq/omnireply/internal/config"
)

// FailureKind classifies why generation produced no usable reply. The
// orchestrator treats all kinds identically (fall through to the
// fallback brain) but logs them distinctly.
type FailureKind string

const (
	FailureDisabled FailureKind = "disabled"
	FailureEmpty    FailureKind = "empty_response"
	FailureAPI      FailureKind = "api_error"
	FailureUnknown  FailureKind = "unknown"
)

// Error is a classified generation failure.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed: %s", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Usage is the provider-reported token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Engine calls an OpenAI-compatible chat completions endpoint.
type Engine struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger

	enabledOnce sync.Once
	enabled     bool
}

func NewEngine(log *slog.Logger, cfg config.OpenAIConfig) *Engine {
	if log == nil {
		log = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultOpenAIURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultChatModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Engine{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		logger:      log.With(slog.String("service", "generation")),
	}
}

// Enabled reports whether a credential is configured. The decision is
// made once and cached for the process lifetime; concurrent first use
// must not race on it.
func (e *Engine) Enabled() bool {
	e.enabledOnce.Do(func() {
		e.enabled = e.apiKey != ""
		if e.enabled {
			e.logger.Info("completion client initialized", slog.String("model", e.model))
		} else {
			e.logger.Warn("completion API key not configured, generation disabled")
		}
	})
	return e.enabled
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate requests one completion for the composed system prompt and
// the raw user text. On failure it returns a classified *Error.
func (e *Engine) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	if !e.Enabled() {
		return "", &Error{Kind: FailureDisabled}
	}

	payload := completionRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: FailureUnknown, Err: err}
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: FailureUnknown, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{Kind: FailureUnknown, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: FailureUnknown, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var apiErr completionResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &Error{Kind: FailureAPI, Err: fmt.Errorf("completion API status %d: %s", resp.StatusCode, msg)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &Error{Kind: FailureUnknown, Err: fmt.Errorf("parse completion response: %w", err)}
	}

	if len(parsed.Choices) == 0 {
		return "", &Error{Kind: FailureEmpty}
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &Error{Kind: FailureEmpty}
	}

	e.logger.Info("completion generated",
		slog.String("model", e.model),
		slog.Int("total_tokens", parsed.Usage.TotalTokens),
		slog.Duration("elapsed", time.Since(start)),
	)
	return content, nil
}

// Classify extracts the failure kind from a generation error, mapping
// anything unrecognized to FailureUnknown.
func Classify(err error) FailureKind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return FailureUnknown
}
