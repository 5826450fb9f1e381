// Package prompt holds the shared scoring prompt and response parsing used
// by the LLM-backed classifiers.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// System is the instruction shared by all provider adapters.
const System = "You judge whether a capability can satisfy a task. " +
	"Answer with a single integer from 0 (irrelevant) to 100 (perfect match). No other text."

// Build renders the user message for one (task, capability) pair.
func Build(task string, history []string, cap core.Capability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Capability %q: %s\n", cap.Name, cap.Description)
	if len(history) > 0 {
		fmt.Fprintf(&b, "Recent conversation: %s\n", strings.Join(history, " | "))
	}
	fmt.Fprintf(&b, "Task: %s", task)
	return b.String()
}

// ParseScore extracts the leading integer of a model reply and normalizes it
// to [0, 1]. Unparseable replies score zero.
func ParseScore(reply string) float64 {
	reply = strings.TrimSpace(reply)
	end := 0
	for end < len(reply) && reply[end] >= '0' && reply[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(reply[:end])
	if err != nil || n < 0 {
		return 0
	}
	if n > 100 {
		n = 100
	}
	return float64(n) / 100
}
