package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claude-nodes/internal/provider"
	apperrors "claude-nodes/pkg/errors"
)

func TestCompleteSendsMessagesRequest(t *testing.T) {
	var captured messagesRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "a quiet harbor at dusk"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-config", 5*time.Second)

	text, err := client.Complete(context.Background(), provider.Request{
		Model:     "claude-sonnet-4-20250514",
		System:    "You are terse.",
		Prompt:    "Describe this image in detail.",
		MaxTokens: 4096,
		Images: []provider.Image{
			{MediaType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "a quiet harbor at dusk", text)

	assert.Equal(t, "sk-config", headers.Get("x-api-key"))
	assert.Equal(t, apiVersion, headers.Get("anthropic-version"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))

	assert.Equal(t, "claude-sonnet-4-20250514", captured.Model)
	assert.Equal(t, "You are terse.", captured.System)
	assert.Equal(t, 4096, captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)

	content := captured.Messages[0].Content
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].Type)
	require.NotNil(t, content[0].Source)
	assert.Equal(t, "base64", content[0].Source.Type)
	assert.Equal(t, "image/jpeg", content[0].Source.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}), content[0].Source.Data)
	assert.Equal(t, "text", content[1].Type)
	assert.Equal(t, "Describe this image in detail.", content[1].Text)
}

func TestCompletePerRequestKeyOverride(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-api-key")
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "ok"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-config", 5*time.Second)
	_, err := client.Complete(context.Background(), provider.Request{
		Model: "claude-3-5-haiku-20241022", Prompt: "hi", MaxTokens: 64, APIKey: "sk-override",
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-override", key)
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := NewClient("http://unused", "", 5*time.Second)
	_, err := client.Complete(context.Background(), provider.Request{
		Model: "claude-3-5-haiku-20241022", Prompt: "hi", MaxTokens: 64,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestCompleteAuthErrorNotRetried(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-bad", 5*time.Second)
	_, err := client.Complete(context.Background(), provider.Request{
		Model: "claude-3-5-haiku-20241022", Prompt: "hi", MaxTokens: 64,
	})
	require.Error(t, err)
	assert.Equal(t, 1, requests)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "recovered"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-ok", 5*time.Second)
	text, err := client.Complete(context.Background(), provider.Request{
		Model: "claude-3-5-haiku-20241022", Prompt: "hi", MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "recovered", text)
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(messagesResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-ok", 5*time.Second)
	text, err := client.Complete(context.Background(), provider.Request{
		Model: "claude-3-5-haiku-20241022", Prompt: "hi", MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
