// Package classify provides the intent classifiers the router scores tasks
// with. The default Keyword classifier is deterministic and offline; the
// openai and anthropic subpackages adapt LLM providers behind the same
// interface for semantic matching.
package classify

import (
	"context"
	"math"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// Classifier scores how well a capability matches a task. Scores are in
// [0, 1]; history carries recent session context for follow-up questions.
//
// Routing must stay deterministic given fixed registry and context, so
// implementations must be pure functions of their inputs.
type Classifier interface {
	Score(ctx context.Context, task string, history []string, cap core.Capability) (float64, error)
}

// Keyword is a deterministic token-overlap classifier. It tokenizes the
// capability name and description into a vocabulary and scores a task by the
// fraction of its content tokens found in that vocabulary.
type Keyword struct {
	stop map[string]struct{}
}

// NewKeyword constructs the default keyword classifier.
func NewKeyword() *Keyword {
	stop := map[string]struct{}{}
	for _, w := range strings.Fields(
		"a an and are be by can do for from how i in is it me my of on or please " +
			"that the this to us was we what when where which who will with you your") {
		stop[w] = struct{}{}
	}
	return &Keyword{stop: stop}
}

// Score implements Classifier. History tokens contribute with half weight so
// follow-up questions keep routing toward recently used capabilities.
func (k *Keyword) Score(_ context.Context, task string, history []string, cap core.Capability) (float64, error) {
	vocab := map[string]struct{}{}
	for _, t := range k.tokens(strings.ReplaceAll(cap.Name, "_", " ") + " " + cap.Description) {
		vocab[t] = struct{}{}
	}

	taskTokens := k.tokens(task)
	if len(taskTokens) == 0 {
		return 0, nil
	}

	matched := 0.0
	for _, t := range taskTokens {
		if _, ok := vocab[t]; ok {
			matched++
		}
	}

	// Recent context nudges the score for terse follow-ups without ever
	// overriding a direct match.
	contextBoost := 0.0
	if matched > 0 && len(history) > 0 {
		recent := k.tokens(strings.Join(history, " "))
		for _, t := range recent {
			if _, ok := vocab[t]; ok {
				contextBoost = 0.05
				break
			}
		}
	}

	score := matched/float64(len(taskTokens)) + contextBoost
	return math.Min(score, 1.0), nil
}

// tokens lowercases, strips punctuation and stop words, and applies a crude
// suffix stem so "squared" matches "square" and "results" matches "result".
func (k *Keyword) tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, ok := k.stop[f]; ok {
			continue
		}
		out = append(out, stem(f))
	}
	return out
}

func stem(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ing"):
		return w[:len(w)-3]
	case len(w) > 3 && strings.HasSuffix(w, "ed"):
		// drop just the trailing d: "squared" -> "square"
		return w[:len(w)-1]
	case len(w) > 3 && strings.HasSuffix(w, "es"):
		return w[:len(w)-1]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	default:
		return w
	}
}

// Func adapts a plain scoring function to the Classifier interface.
type Func func(ctx context.Context, task string, history []string, cap core.Capability) (float64, error)

// Score implements Classifier.
func (f Func) Score(ctx context.Context, task string, history []string, cap core.Capability) (float64, error) {
	return f(ctx, task, history, cap)
}
