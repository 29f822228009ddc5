package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the base URL of the hosted Mistral API.
const DefaultBaseURL = "https://api.mistral.ai/v1"

// requestTimeout bounds non-streaming requests. Streaming requests are
// bounded by their context instead.
const requestTimeout = 60 * time.Second

// ErrMissingAPIKey indicates the client was built without a credential.
var ErrMissingAPIKey = errors.New("mistral API key not set")

// APIError represents an error response from the Mistral API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// Client talks to the Mistral chat completions API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// streamClient has no overall timeout; stream lifetime is controlled
	// by the caller's context.
	streamClient *http.Client
}

// NewClient creates a client for the hosted Mistral API.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
		streamClient: &http.Client{},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests and self-hosted
// deployments.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// Chat sends the message list and returns the complete response.
func (c *Client) Chat(ctx context.Context, model string, messages []ChatMessage) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqBody := ChatRequest{
		Model:    model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var apiResp ChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Content() == "" {
		return nil, fmt.Errorf("empty response from API")
	}

	return &apiResp, nil
}

// errorBody matches the error envelope returned by the API.
type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// parseAPIError builds an APIError from a non-200 response body. The API
// uses both flat and nested error envelopes depending on the failure.
func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: string(body)}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != nil {
			apiErr.Message = eb.Error.Message
			apiErr.Code = eb.Error.Code
			if apiErr.Code == "" {
				apiErr.Code = eb.Error.Type
			}
		} else if eb.Message != "" {
			apiErr.Message = eb.Message
			apiErr.Code = eb.Code
			if apiErr.Code == "" {
				apiErr.Code = eb.Type
			}
		}
	}

	return apiErr
}
