package generation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnireplyhq/omnireply/internal/config"
)

func testConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        baseURL,
		Model:          "gpt-4o",
		Temperature:    0.7,
		MaxTokens:      500,
		TimeoutSeconds: 10,
	}
}

func TestGenerateSuccess(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  Refunds take 30 days.  "}},
			},
			"usage": map[string]int{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
		})
	}))
	defer srv.Close()

	engine := NewEngine(slog.Default(), testConfig(srv.URL))
	reply, err := engine.Generate(context.Background(), "system prompt", "how do refunds work")
	require.NoError(t, err)
	assert.Equal(t, "Refunds take 30 days.", reply)

	assert.Equal(t, "gpt-4o", gotReq.Model)
	assert.InDelta(t, 0.7, float64(gotReq.Temperature), 0.001)
	assert.Equal(t, 500, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "how do refunds work", gotReq.Messages[1].Content)
}

func TestGenerateEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "   "}},
			},
		})
	}))
	defer srv.Close()

	engine := NewEngine(slog.Default(), testConfig(srv.URL))
	_, err := engine.Generate(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.Equal(t, FailureEmpty, Classify(err))
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	engine := NewEngine(slog.Default(), testConfig(srv.URL))
	_, err := engine.Generate(context.Background(), "sys", "hi")
	assert.Equal(t, FailureEmpty, Classify(err))
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	engine := NewEngine(slog.Default(), testConfig(srv.URL))
	_, err := engine.Generate(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.Equal(t, FailureAPI, Classify(err))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestGenerateDisabledWithoutKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	engine := NewEngine(slog.Default(), cfg)

	assert.False(t, engine.Enabled())
	_, err := engine.Generate(context.Background(), "sys", "hi")
	assert.Equal(t, FailureDisabled, Classify(err))
	assert.Zero(t, calls, "disabled engine must not reach the network")
}

func TestGenerateTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	engine := NewEngine(slog.Default(), testConfig(srv.URL))
	_, err := engine.Generate(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.Equal(t, FailureUnknown, Classify(err))
}

func TestClassifyUnwrapsWrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &Error{Kind: FailureAPI})
	assert.Equal(t, FailureAPI, Classify(wrapped))
	assert.Equal(t, FailureUnknown, Classify(errors.New("plain")))
}
