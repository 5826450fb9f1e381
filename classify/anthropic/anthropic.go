// Package anthropic adapts the Anthropic Messages API as an intent
// classifier behind classify.Classifier.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/classify/internal/prompt"
	"github.com/hupe1980/agenthub/core"
)

// Options configure the Anthropic classifier adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	APIKey      string
}

// Classifier wraps the Anthropic Messages API behind classify.Classifier.
type Classifier struct {
	client *anthropic.Client
	opts   Options
}

var _ classify.Classifier = (*Classifier)(nil)

// New creates a classifier using the official client.
func New(optFns ...func(o *Options)) *Classifier {
	opts := Options{Model: anthropic.ModelClaude3_5Sonnet20241022, Temperature: 0}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Classifier{client: &client, opts: opts}
}

// NewFromClient creates a classifier from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{Model: anthropic.ModelClaude3_5Sonnet20241022, Temperature: 0}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Score implements classify.Classifier.
func (c *Classifier) Score(ctx context.Context, task string, history []string, cap core.Capability) (float64, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   8,
		Temperature: anthropic.Float(c.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.Build(task, history, cap))),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("anthropic api error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return prompt.ParseScore(block.AsText().Text), nil
		}
	}
	return 0, nil
}
