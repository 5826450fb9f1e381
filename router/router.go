// Package router maps a task (plus session context) to an execution plan.
//
// Routing is a pure scoring function over registered capability descriptors:
// each capability's description is scored against the task text by a
// pluggable classifier, capabilities above a configurable threshold are
// selected, and the plan's execution mode is derived from dependency cues in
// the task. Given a fixed registry and session state the router is
// deterministic, which also makes its decisions safely cacheable.
package router

import (
	"context"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/registry"
)

// defaultSequencePattern detects ordering cues that force sequential mode
// when more than one capability is selected and one of them writes to a
// declared resource.
var defaultSequencePattern = regexp.MustCompile(`(?i)\bthen\b|\bafter that\b|\busing (the|that|its) (result|output)\b|\bsave\b|\bwrite\b`)

// clauseSplitter breaks a task into independently routable clauses.
var clauseSplitter = regexp.MustCompile(`(?i)\s+and\s+|\s+then\s+|\s*;\s*`)

// Options configures a Router. Routing policy is deliberately configurable:
// the threshold, selection cap and dependency cues are defaults, not
// contracts.
type Options struct {
	// Classifier scores task/capability pairs. Defaults to the keyword
	// classifier.
	Classifier classify.Classifier

	// Threshold is the minimum score for a capability to be selected.
	Threshold float64

	// MaxSelections caps how many capabilities one task may fan out to.
	MaxSelections int

	// HistoryDepth is how many recent exchanges feed the classifier as
	// context for follow-up questions.
	HistoryDepth int

	// CacheSize bounds the routing decision cache. Zero disables caching.
	CacheSize int

	// SequencePattern overrides the dependency cue detection.
	SequencePattern *regexp.Regexp

	Logger logging.Logger
}

// Router selects capabilities and builds plans. Safe for concurrent use.
type Router struct {
	reg           *registry.Registry
	classifier    classify.Classifier
	threshold     float64
	maxSelections int
	historyDepth  int
	seqPattern    *regexp.Regexp
	cache         *lru.Cache[string, cachedPlan]
	logger        logging.Logger
}

type cachedPlan struct {
	mode  core.ExecutionMode
	steps []core.Step
}

// New constructs a Router over the given registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Router {
	opts := Options{
		Classifier:      classify.NewKeyword(),
		Threshold:       0.2,
		MaxSelections:   3,
		HistoryDepth:    3,
		CacheSize:       128,
		SequencePattern: defaultSequencePattern,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Router{
		reg:           reg,
		classifier:    opts.Classifier,
		threshold:     opts.Threshold,
		maxSelections: opts.MaxSelections,
		historyDepth:  opts.HistoryDepth,
		seqPattern:    opts.SequencePattern,
		logger:        logging.OrNoOp(opts.Logger),
	}
	if opts.CacheSize > 0 {
		// lru.New only errors on non-positive sizes.
		r.cache, _ = lru.New[string, cachedPlan](opts.CacheSize)
	}
	return r
}

// candidate is a scored registry entry; pos is its registration position.
type candidate struct {
	entry registry.Entry
	score float64
	pos   int
}

// Route maps the task to a plan. It fails with
// *core.NoMatchingCapabilityError (and an empty plan) when nothing scores
// above the threshold; the caller then skips the executor and synthesizes a
// failed response directly.
func (r *Router) Route(ctx context.Context, task core.Task, sess *core.Session) (core.Plan, error) {
	var history []string
	if sess != nil {
		history = append(sess.RecentTexts(r.historyDepth), sess.Topics()...)
	}

	key := cacheKey(task.Text, history)
	if r.cache != nil {
		if hit, ok := r.cache.Get(key); ok {
			return r.buildPlan(task.ID, hit), nil
		}
	}

	selected, err := r.selectCapabilities(ctx, task.Text, history)
	if err != nil {
		return core.Plan{TaskID: task.ID}, err
	}
	if len(selected) == 0 {
		return core.Plan{TaskID: task.ID}, &core.NoMatchingCapabilityError{Task: task.Text}
	}

	cached := cachedPlan{
		mode:  r.executionMode(task.Text, selected),
		steps: r.buildSteps(ctx, task.Text, history, selected),
	}
	if cached.mode == core.ModeSequential && len(cached.steps) > 1 {
		orderForDependencies(cached.steps, selected)
	}

	if r.cache != nil {
		r.cache.Add(key, cached)
	}

	names := make([]string, len(cached.steps))
	for i, s := range cached.steps {
		names[i] = s.Capability
	}
	logging.Route(r.logger, task.ID, string(cached.mode), names)

	return r.buildPlan(task.ID, cached), nil
}

// selectCapabilities scores every registered capability and returns those at
// or above the threshold, best first. Ties prefer the narrower input schema
// (more required fields) and then registration order.
func (r *Router) selectCapabilities(ctx context.Context, text string, history []string) ([]candidate, error) {
	entries := r.reg.List()
	candidates := make([]candidate, 0, len(entries))

	for pos, entry := range entries {
		score, err := r.classifier.Score(ctx, text, history, entry.Capability)
		if err != nil {
			// A failing classifier never faults routing; the capability
			// simply does not match this time.
			r.logger.Warn("classifier error, scoring capability as zero",
				"capability", entry.Capability.Name, "error", err.Error())
			continue
		}
		if score >= r.threshold {
			candidates = append(candidates, candidate{entry: entry, score: score, pos: pos})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		ri, rj := candidates[i].entry.Capability.RequiredFields(), candidates[j].entry.Capability.RequiredFields()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].pos < candidates[j].pos
	})

	if len(candidates) > r.maxSelections {
		candidates = candidates[:r.maxSelections]
	}
	return candidates, nil
}

// executionMode decides parallel vs sequential for multi-capability plans.
// A single selection is trivially sequential. Multiple selections run in
// parallel unless the task carries an ordering cue and one of the selected
// adapters writes to a declared resource, in which case later entries must
// see earlier outcomes.
func (r *Router) executionMode(text string, selected []candidate) core.ExecutionMode {
	if len(selected) <= 1 {
		return core.ModeSequential
	}
	if r.seqPattern != nil && r.seqPattern.MatchString(text) && hasResourceWriter(selected) {
		return core.ModeSequential
	}
	return core.ModeParallel
}

func hasResourceWriter(selected []candidate) bool {
	for _, c := range selected {
		if _, ok := c.entry.Adapter.(core.ResourceKeyer); ok {
			return true
		}
	}
	return false
}

// buildSteps derives a sub-query for each selected capability. Single-clause
// or single-capability tasks pass through verbatim. Multi-clause tasks are
// assigned clause by clause to the best-scoring capability; a tie prefers a
// capability that has no clause yet so every selection gets its own work.
// Capabilities left without a clause fall back to the full task text.
func (r *Router) buildSteps(ctx context.Context, text string, history []string, selected []candidate) []core.Step {
	steps := make([]core.Step, len(selected))
	for i, c := range selected {
		steps[i] = core.Step{Capability: c.entry.Capability.Name, Query: text}
	}

	clauses := splitClauses(text)
	if len(clauses) < 2 || len(selected) < 2 {
		return steps
	}

	assigned := make([]string, len(selected))
	for _, clause := range clauses {
		best, bestScore := -1, 0.0
		for i, c := range selected {
			s, err := r.classifier.Score(ctx, clause, history, c.entry.Capability)
			if err != nil {
				continue
			}
			betterTie := s == bestScore && best >= 0 && assigned[best] != "" && assigned[i] == ""
			if s > bestScore || (s > 0 && betterTie) {
				best, bestScore = i, s
			}
		}
		if best < 0 || bestScore == 0 {
			continue
		}
		if assigned[best] == "" {
			assigned[best] = clause
		} else {
			assigned[best] += "; " + clause
		}
	}

	for i := range steps {
		if assigned[i] != "" {
			steps[i].Query = assigned[i]
		}
	}
	return steps
}

// orderForDependencies moves resource-writing steps behind the producers
// whose output they consume and records the dependency edges. Order among
// producers (and among writers) is preserved.
func orderForDependencies(steps []core.Step, selected []candidate) {
	writers := map[string]bool{}
	for _, c := range selected {
		if _, ok := c.entry.Adapter.(core.ResourceKeyer); ok {
			writers[c.entry.Capability.Name] = true
		}
	}

	producers := make([]core.Step, 0, len(steps))
	consumers := make([]core.Step, 0, len(steps))
	for _, s := range steps {
		if writers[s.Capability] {
			consumers = append(consumers, s)
		} else {
			producers = append(producers, s)
		}
	}

	copy(steps, producers)
	for i, s := range consumers {
		deps := make([]int, len(producers))
		for d := range producers {
			deps[d] = d
		}
		s.DependsOn = deps
		steps[len(producers)+i] = s
	}
}

func (r *Router) buildPlan(taskID string, c cachedPlan) core.Plan {
	steps := make([]core.Step, len(c.steps))
	copy(steps, c.steps)
	return core.Plan{TaskID: taskID, Mode: c.mode, Steps: steps}
}

func splitClauses(text string) []string {
	parts := clauseSplitter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "?.!,"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cacheKey(text string, history []string) string {
	return text + "\x1f" + strings.Join(history, "\x1f")
}
