// Package openai adapts the OpenAI Chat Completions API as an intent
// classifier. The model is asked for a single integer relevance judgement;
// anything unparseable degrades to a zero score so routing never faults on
// classifier trouble.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/classify/internal/prompt"
	"github.com/hupe1980/agenthub/core"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI classifier adapter.
type Options struct {
	Model       string
	Temperature float64
}

// Classifier wraps the OpenAI Chat Completions API behind classify.Classifier.
type Classifier struct {
	client *openai.Client
	opts   Options
}

var _ classify.Classifier = (*Classifier)(nil)

// New creates a classifier using the official client with ambient credentials.
func New(optFns ...func(o *Options)) *Classifier {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a classifier from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{Model: openai.ChatModelGPT4oMini, Temperature: 0}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Score implements classify.Classifier.
func (c *Classifier) Score(ctx context.Context, task string, history []string, cap core.Capability) (float64, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(8),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.Build(task, history, cap)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices returned")
	}
	return prompt.ParseScore(resp.Choices[0].Message.Content), nil
}
