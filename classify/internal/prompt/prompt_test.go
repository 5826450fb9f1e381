package prompt

import (
	"testing"

	"github.com/hupe1980/agenthub/core"
	"github.com/stretchr/testify/assert"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		reply string
		want  float64
	}{
		{"85", 0.85},
		{" 100 ", 1.0},
		{"0", 0},
		{"120", 1.0},
		{"42 because it matches", 0.42},
		{"not a number", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseScore(tt.reply), "reply %q", tt.reply)
	}
}

func TestBuild(t *testing.T) {
	msg := Build("what is 2+2", []string{"earlier question"}, core.Capability{Name: "calculator", Description: "does math"})
	assert.Contains(t, msg, `Capability "calculator"`)
	assert.Contains(t, msg, "earlier question")
	assert.Contains(t, msg, "Task: what is 2+2")
}
