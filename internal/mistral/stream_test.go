package mistral

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseBody(lines ...string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString("data: ")
		sb.WriteString(l)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func chunkJSON(content string) string {
	return `{"id":"c1","model":"mistral-small","choices":[{"index":0,"delta":{"content":"` + content + `"},"finish_reason":""}]}`
}

func TestSSEReader(t *testing.T) {
	body := "data: one\n\n: comment\nid: 42\ndata: two\n\n"
	r := NewSSEReader(strings.NewReader(body))

	data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	data, err = r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, err = r.ReadEvent()
	assert.Error(t, err)
}

func TestSSEReaderCRLF(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: hello\r\n\r\n"))
	data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		body := sseBody(
			chunkJSON("Hello"),
			chunkJSON(", "),
			chunkJSON("world"),
			`{"id":"c1","model":"mistral-small","choices":[{"index":0,"delta":{"content":""},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":5,"total_tokens":8}}`,
			"[DONE]",
		)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.SetBaseURL(srv.URL)

	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), "mistral-small",
		[]ChatMessage{{Role: "user", Content: "Hello"}}, acc.Callback())

	require.NoError(t, err)
	assert.Equal(t, "Hello, world", acc.Content())
	assert.Equal(t, "stop", acc.FinishReason)
	assert.Equal(t, 8, acc.Usage.TotalTokens)
	assert.Equal(t, 3, acc.ChunkCount)
}

func TestChatStreamSkipsMalformedChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := sseBody(chunkJSON("ok"), "{not json", "[DONE]")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.SetBaseURL(srv.URL)

	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), "mistral-small", nil, acc.Callback())

	require.NoError(t, err)
	assert.Equal(t, "ok", acc.Content())
}

func TestChatStreamAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","type":"invalid_api_key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key")
	client.SetBaseURL(srv.URL)

	err := client.ChatStream(context.Background(), "mistral-small", nil, func(StreamChunk) {
		t.Error("callback must not run on error response")
	})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid_api_key", apiErr.Code)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestChatStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody(chunkJSON("partial"))))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient("test-key")
	client.SetBaseURL(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	err := client.ChatStream(ctx, "mistral-small", nil, func(chunk StreamChunk) {
		cancel()
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatStreamMissingKey(t *testing.T) {
	client := NewClient("")
	err := client.ChatStream(context.Background(), "mistral-small", nil, func(StreamChunk) {})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
