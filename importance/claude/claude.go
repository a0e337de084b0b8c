// Package claude rates memory importance with Claude.
package claude

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5"

const prompt = `On a scale of 1 to 10, where 1 is purely mundane (e.g., brushing teeth, making bed) and 10 is extremely poignant (e.g., a break up, college acceptance), rate the likely poignancy of the following piece of memory.
Answer with a single integer only.

Memory: %s`

var ratingPattern = regexp.MustCompile(`\b(10|[1-9])\b`)

// MessageClient is the part of the Anthropic client the rater uses.
type MessageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Rater asks Claude for a 1-10 poignancy rating and maps it to 0.1-1.0.
type Rater struct {
	messages MessageClient
	model    string
}

var _ memory.ImportanceRater = (*Rater)(nil)

// Option configures a Rater.
type Option func(*Rater)

// WithModel sets the Claude model.
func WithModel(model string) Option {
	return func(r *Rater) {
		r.model = model
	}
}

// WithMessageClient replaces the Anthropic messages client.
func WithMessageClient(c MessageClient) Option {
	return func(r *Rater) {
		r.messages = c
	}
}

// New creates a rater using apiKey.
func New(apiKey string, opts ...Option) (*Rater, error) {
	r := &Rater{model: DefaultModel}
	for _, opt := range opts {
		opt(r)
	}

	if r.messages == nil {
		if apiKey == "" {
			return nil, goerr.New("anthropic API key is required")
		}
		client := anthropic.NewClient(option.WithAPIKey(apiKey))
		r.messages = &client.Messages
	}
	return r, nil
}

// Rate implements memory.ImportanceRater.
func (r *Rater) Rate(ctx context.Context, content string) (float64, error) {
	resp, err := r.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(prompt, content))),
		},
	})
	if err != nil {
		return 0, goerr.Wrap(err, "claude API error", goerr.V("model", r.model))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	rating, err := parseRating(text.String())
	if err != nil {
		return 0, err
	}

	logging.Component(ctx, "importance").Debug("importance rated", "rating", rating, "model", r.model)
	return float64(rating) / 10, nil
}

func parseRating(answer string) (int, error) {
	m := ratingPattern.FindString(answer)
	if m == "" {
		return 0, goerr.New("no rating in answer", goerr.V("answer", answer))
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid rating", goerr.V("answer", answer))
	}
	return n, nil
}
