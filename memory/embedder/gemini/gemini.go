// Package gemini embeds text with the Gemini API.
package gemini

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/becomeliminal/nim-recall/memory"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "gemini-embedding-001"

// Embedder calls the Gemini embedding endpoint.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

var _ memory.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// New creates an embedder requesting vectors of dims components.
func New(ctx context.Context, apiKey string, dims int, opts ...Option) (*Embedder, error) {
	if apiKey == "" {
		return nil, goerr.New("gemini API key is required")
	}
	if dims <= 0 {
		return nil, goerr.New("dimensions must be positive", goerr.V("dims", dims))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	e := &Embedder{
		client:     client,
		model:      DefaultModel,
		dimensions: dims,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Model returns the embedding model requested.
func (e *Embedder) Model() string {
	return e.model
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(e.dimensions)
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", e.model))
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, goerr.New("no embedding returned", goerr.V("model", e.model))
	}

	values := resp.Embeddings[0].Values
	if len(values) != e.dimensions {
		return nil, goerr.Wrap(memory.ErrDimensionMismatch, "unexpected embedding size",
			goerr.V("model", e.model),
			goerr.V("expected", e.dimensions),
			goerr.V("actual", len(values)))
	}
	return values, nil
}

// Dimensions returns the requested embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
