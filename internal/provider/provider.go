package provider

import "context"

// Image is an encoded image attached to a completion request.
type Image struct {
	MediaType string // e.g. "image/jpeg"
	Data      []byte // encoded bytes, not base64
}

// Request is a single completion request. Images, when present, are sent
// ahead of the prompt text in the same user turn.
type Request struct {
	Model     string
	System    string
	Prompt    string
	Images    []Image
	MaxTokens int

	// APIKey overrides the provider's configured credential for this
	// request. Nodes expose it as an input so the host UI can supply keys.
	APIKey string
}

// Provider sends a completion request to a hosted model and returns the
// text of the response.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
