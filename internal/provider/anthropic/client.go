package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"claude-nodes/internal/provider"
	apperrors "claude-nodes/pkg/errors"
	"claude-nodes/pkg/logger"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
	maxRetries   = 3
)

// Client talks to the Anthropic Messages API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Messages API client. apiKey may be empty when
// every request carries its own key.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
	}
}

// Wire types for the Messages API.

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements provider.Provider.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	apiKey := c.apiKey
	if req.APIKey != "" {
		apiKey = req.APIKey
	}
	if apiKey == "" {
		return "", apperrors.NewConfigMissingRequired("ANTHROPIC_API_KEY")
	}

	content := make([]contentBlock, 0, len(req.Images)+1)
	for _, img := range req.Images {
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	content = append(content, contentBlock{Type: "text", Text: req.Prompt})

	body := messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages: []message{
			{Role: "user", Content: content},
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Retry logic with linear backoff
	var text string
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("Retrying Anthropic request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err = c.send(ctx, apiKey, jsonData)
		if err == nil {
			break
		}

		c.logger.Error("Anthropic request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", req.Model),
		)

		if !apperrors.IsRetryable(err) {
			return "", err
		}
	}

	if err != nil {
		return "", apperrors.NewProviderRequestFailed(req.Model, maxRetries, err)
	}

	c.logger.Debug("Anthropic response received",
		zap.String("model", req.Model),
		zap.Int("images", len(req.Images)),
		zap.Bool("has_content", text != ""),
	)

	return text, nil
}

func (c *Client) send(ctx context.Context, apiKey string, jsonData []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.NewBaseError(apperrors.ErrorTypeProvider, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", apperrors.NewProviderStatus(resp.StatusCode, apiErr.Error.Message)
		}
		return "", apperrors.NewProviderStatus(resp.StatusCode, string(respBody))
	}

	var msg messagesResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// First text block wins; tool-use and thinking blocks are ignored.
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", nil
}
