package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/infrastructure/config"
)

func newTestServer(t *testing.T, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status, payload := handler(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *config.LLMConfig {
	return &config.LLMConfig{BaseURL: url + "/", APIKey: "test-key", Model: "gemini-2.0-flash", Timeout: 5 * time.Second}
}

var echoPrompt = agent.NewPrompt("echo", "Pergunta: {{.question}}")

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, func(body map[string]any) (int, string) {
		got = body
		return http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"resposta"}}],"usage":{"total_tokens":12}}`
	})

	c := NewClient(testConfig(srv.URL))
	out, err := c.Generate(context.Background(), agent.Prompt{Name: "echo", Template: echoPrompt, Vars: map[string]string{"question": "qual a média?"}})
	require.NoError(t, err)
	assert.Equal(t, "resposta", out)

	assert.Equal(t, "gemini-2.0-flash", got["model"])
	assert.Greater(t, got["temperature"].(float64), 0.0)
	assert.Less(t, got["temperature"].(float64), 1e-6)
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "Pergunta: qual a média?", messages[0].(map[string]any)["content"])
}

func TestGenerate_APIError(t *testing.T) {
	srv := newTestServer(t, func(map[string]any) (int, string) {
		return http.StatusTooManyRequests, `{"error":{"message":"quota exceeded","type":"rate_limit"}}`
	})

	_, err := NewClient(testConfig(srv.URL)).Generate(context.Background(), agent.Prompt{Name: "ping", Template: pingPrompt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := newTestServer(t, func(map[string]any) (int, string) {
		return http.StatusOK, `{"choices":[]}`
	})
	err := NewClient(testConfig(srv.URL)).TestConnection(context.Background())
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerate_NotConfigured(t *testing.T) {
	c := NewClient(&config.LLMConfig{Model: "m", Timeout: time.Second})
	_, err := c.Generate(context.Background(), agent.Prompt{Name: "ping", Template: pingPrompt})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerate_MissingVariable(t *testing.T) {
	srv := newTestServer(t, func(map[string]any) (int, string) {
		t.Error("request must not be sent")
		return 0, ""
	})
	_, err := NewClient(testConfig(srv.URL)).Generate(context.Background(), agent.Prompt{Name: "echo", Template: echoPrompt})
	assert.Error(t, err)
}
