// Package synth turns per-capability outcomes into a single coherent
// response. Synthesis is a total function: whatever mix of successes,
// failures, timeouts and skips the executor hands over, the caller always
// receives exactly one response with an honest status.
package synth

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/registry"
)

// Options configures a Synthesizer.
type Options struct {
	Logger logging.Logger
}

// Synthesizer merges outcomes into responses. It consults the registry for
// knowledge flags when extracting accumulator entries.
type Synthesizer struct {
	reg    *registry.Registry
	logger logging.Logger
}

// New constructs a Synthesizer over the given registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Synthesizer{
		reg:    reg,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Synthesize merges the plan's outcomes into the task's single response.
// Payloads are concatenated in plan order with capability attribution when
// more than one capability contributed; every non-success is named
// explicitly with its reason so partial answers never pass as complete ones.
func (s *Synthesizer) Synthesize(task core.Task, plan core.Plan, outcomes []core.Outcome) core.Response {
	if len(outcomes) == 0 {
		return s.Failed(task, "no capability produced a result")
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded++
		}
	}

	resp := core.Response{
		TaskID:   task.ID,
		Outcomes: outcomes,
		Sources:  mergeSources(outcomes),
		Status:   census(succeeded, len(outcomes)),
	}

	var sb strings.Builder
	attribute := succeeded > 1
	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if attribute {
			fmt.Fprintf(&sb, "**%s**: ", o.Capability)
		}
		sb.WriteString(strings.TrimSpace(o.Payload))
	}

	if gaps := describeGaps(outcomes); gaps != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(gaps)
	}
	resp.Text = sb.String()

	s.logger.Info("response synthesized",
		"task_id", task.ID,
		"status", string(resp.Status),
		"outcomes", len(outcomes),
		"succeeded", succeeded,
	)

	return resp
}

// Failed builds the terminal response for a task that produced no usable
// outcomes, e.g. when routing matched nothing.
func (s *Synthesizer) Failed(task core.Task, reason string) core.Response {
	return core.Response{
		TaskID: task.ID,
		Text:   "Unable to answer: " + reason + ".",
		Status: core.StatusFailed,
	}
}

// Knowledge extracts accumulator entries from successful outcomes of
// knowledge-flagged capabilities. The topic key is the step's sub-query,
// lowercased, so a repeated lookup overwrites its earlier summary.
func (s *Synthesizer) Knowledge(plan core.Plan, outcomes []core.Outcome) map[string]string {
	entries := map[string]string{}

	for i, o := range outcomes {
		if !o.Succeeded() || i >= len(plan.Steps) {
			continue
		}
		entry, err := s.reg.Lookup(o.Capability)
		if err != nil || !entry.Capability.Knowledge {
			continue
		}
		topic := strings.ToLower(strings.TrimSpace(plan.Steps[i].Query))
		if topic == "" {
			continue
		}
		entries[topic] = o.Payload
	}

	if len(entries) == 0 {
		return nil
	}
	return entries
}

// census maps the success count to the response status.
func census(succeeded, total int) core.ResponseStatus {
	switch {
	case succeeded == total:
		return core.StatusComplete
	case succeeded == 0:
		return core.StatusFailed
	default:
		return core.StatusPartial
	}
}

// describeGaps names every non-successful capability and why it is missing
// from the answer.
func describeGaps(outcomes []core.Outcome) string {
	var gaps []string
	for _, o := range outcomes {
		switch o.Status {
		case core.StatusFailure:
			gaps = append(gaps, fmt.Sprintf("%s failed (%s)", o.Capability, o.Err))
		case core.StatusTimeout:
			gaps = append(gaps, fmt.Sprintf("%s timed out", o.Capability))
		case core.StatusSkipped:
			gaps = append(gaps, fmt.Sprintf("%s was skipped (%s)", o.Capability, o.Err))
		}
	}
	if len(gaps) == 0 {
		return ""
	}
	return "Missing: " + strings.Join(gaps, "; ") + "."
}

// mergeSources deduplicates sources across outcomes, keeping first-seen
// order.
func mergeSources(outcomes []core.Outcome) []string {
	seen := map[string]struct{}{}
	var merged []string
	for _, o := range outcomes {
		for _, src := range o.Sources {
			if _, ok := seen[src]; ok {
				continue
			}
			seen[src] = struct{}{}
			merged = append(merged, src)
		}
	}
	return merged
}
