package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"claude-nodes/internal/provider"
	apperrors "claude-nodes/pkg/errors"
	"claude-nodes/pkg/logger"
)

const maxRetries = 3

// Client routes completions through an OpenAI-compatible relay such as
// LiteLLM or OpenRouter. Vision content is sent as data-URI image parts.
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

// NewClient creates a new gateway client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Relays generally accept any bearer token, but go-openai insists on one
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"
	config.HTTPClient.Timeout = timeout

	return &Client{
		client: openai.NewClientWithConfig(config),
		logger: logger.Get(),
	}
}

// Complete implements provider.Provider.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	if req.APIKey != "" {
		// The underlying client is bound to one credential; per-request
		// overrides only apply to the direct Anthropic provider.
		c.logger.Warn("Per-request API key ignored by gateway provider")
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	if len(req.Images) > 0 {
		parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
		for _, img := range req.Images {
			dataURI := fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: dataURI,
				},
			})
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: req.Prompt,
		})
		messages = append(messages, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}

	// Retry logic with linear backoff
	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("Retrying gateway request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err = c.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			break
		}

		c.logger.Error("Gateway request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", req.Model),
		)
	}

	if err != nil {
		return "", apperrors.NewProviderRequestFailed(req.Model, maxRetries, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrProviderNoResponse
	}

	content := resp.Choices[0].Message.Content

	c.logger.Debug("Gateway response received",
		zap.String("model", req.Model),
		zap.Int("images", len(req.Images)),
		zap.Bool("has_content", content != ""),
	)

	return content, nil
}
