package mistral

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// doneSentinel terminates the server-sent event stream.
var doneSentinel = []byte("[DONE]")

// StreamCallback is invoked for each chunk received from the stream.
type StreamCallback func(chunk StreamChunk)

// SSEReader parses server-sent events from a response body.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the data of the next event. Lines other than "data:"
// fields (comments, ids, retry hints) are ignored. Returns io.EOF when the
// stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
	}
}

// ChatStream sends the message list with streaming enabled and invokes the
// callback for every chunk until the API signals completion. The stream is
// finite and non-restartable; cancel the context to abort it.
func (c *Client) ChatStream(ctx context.Context, model string, messages []ChatMessage, callback StreamCallback) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	reqBody := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads SSE events until the done sentinel, EOF, or a finish
// reason.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}

		if bytes.Equal(data, doneSentinel) {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks rather than killing the turn.
			continue
		}

		callback(chunk)

		if chunk.Done() {
			return nil
		}
	}
}

// StreamAccumulator collects streamed chunks into a complete reply.
type StreamAccumulator struct {
	content      strings.Builder
	Model        string
	FinishReason string
	Usage        Usage
	ChunkCount   int
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Add processes one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	a.content.WriteString(chunk.Content())
	if chunk.Content() != "" {
		a.ChunkCount++
	}
	if chunk.Model != "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = *chunk.Usage
	}
	if chunk.Done() {
		a.FinishReason = chunk.Choices[0].FinishReason
	}
}

// Content returns the accumulated reply text.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// Callback returns a StreamCallback that feeds this accumulator.
func (a *StreamAccumulator) Callback() StreamCallback {
	return func(chunk StreamChunk) {
		a.Add(chunk)
	}
}
