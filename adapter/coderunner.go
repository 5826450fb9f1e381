package adapter

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// codeFencePattern extracts a fenced code block from the query.
var codeFencePattern = regexp.MustCompile("(?s)```(?:[a-z]*\n)?(.*?)```")

// CodeRunnerOptions configures the code execution adapter.
type CodeRunnerOptions struct {
	// Interpreter is the executable that receives the code. Defaults to
	// python3.
	Interpreter string

	// Args precede the code argument. Defaults to ["-c"].
	Args []string

	// MaxOutputBytes truncates captured stdout. Defaults to 16 KiB.
	MaxOutputBytes int
}

// CodeRunner executes a snippet in a subprocess and captures stdout. Running
// arbitrary code twice can double its side effects, so the capability is
// at-most-once: one dispatch, never retried.
type CodeRunner struct {
	interpreter    string
	args           []string
	maxOutputBytes int
}

// NewCodeRunner constructs the code execution adapter.
func NewCodeRunner(optFns ...func(o *CodeRunnerOptions)) *CodeRunner {
	opts := CodeRunnerOptions{
		Interpreter:    "python3",
		Args:           []string{"-c"},
		MaxOutputBytes: 16 << 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CodeRunner{
		interpreter:    opts.Interpreter,
		args:           opts.Args,
		maxOutputBytes: opts.MaxOutputBytes,
	}
}

// Capability returns the registration descriptor.
func (c *CodeRunner) Capability() core.Capability {
	return core.Capability{
		Name: "code_runner",
		Description: "Run or execute a short code snippet or script and " +
			"return its printed output.",
		InputSchema: queryStringSchema(1),
		Idempotency: core.AtMostOnce,
	}
}

// Invoke implements core.Adapter. The subprocess inherits the call context,
// so a per-call timeout kills the interpreter.
func (c *CodeRunner) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	code := extractCode(call)
	if code == "" {
		return nil, core.NewPermanentError("no code found in request", nil)
	}

	args := append(append([]string{}, c.args...), code)
	cmd := exec.CommandContext(ctx, c.interpreter, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, core.NewPermanentError("execution failed: "+msg, nil)
	}

	out := stdout.String()
	if len(out) > c.maxOutputBytes {
		out = out[:c.maxOutputBytes] + "\n... (output truncated)"
	}
	out = strings.TrimSpace(out)
	if out == "" {
		out = "(no output)"
	}
	return &core.Result{Payload: out}, nil
}

// extractCode prefers a fenced block in the query, then an upstream payload
// that looks like code, then the raw query.
func extractCode(call core.Call) string {
	if m := codeFencePattern.FindStringSubmatch(call.Query); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, payload := range call.Context {
		if m := codeFencePattern.FindStringSubmatch(payload); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(call.Query)
}
