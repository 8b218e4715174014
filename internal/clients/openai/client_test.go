package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(logger.NewNop(), Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "gpt-4o",
		Temperature: 0.8,
		MaxTokens:   2000,
		Timeout:     5 * time.Second,
	})
}

func TestCompleteParsesContentAndContextID(t *testing.T) {
	var captured chatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","choices":[{"message":{"content":"<p>hi</p>"}}]}`))
	})

	out, err := c.Complete(context.Background(), []Message{
		TextMessage("system", "be mystical"),
		UserMessage(TextPart("read my palm"), ImagePart("data:image/jpeg;base64,AAAA", "high")),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", out.Content)
	assert.Equal(t, "chatcmpl-1", out.ContextID)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 0.8, captured.Temperature)
	assert.Equal(t, 2000, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
}

func TestCompleteEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"chatcmpl-2","choices":[]}`))
	})

	out, err := c.Complete(context.Background(), []Message{TextMessage("user", "hi")})
	require.NoError(t, err)
	assert.Empty(t, out.Content)
	assert.Equal(t, "chatcmpl-2", out.ContextID)
}

func TestCompleteHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Complete(context.Background(), []Message{TextMessage("user", "hi")})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "rate limited")
}

func TestCompleteMissingKey(t *testing.T) {
	c := New(logger.NewNop(), Config{})
	assert.False(t, c.Configured())

	_, err := c.Complete(context.Background(), []Message{TextMessage("user", "hi")})
	assert.Error(t, err)
}
