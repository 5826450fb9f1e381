package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/agenthub/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellRunner() *CodeRunner {
	return NewCodeRunner(func(o *CodeRunnerOptions) {
		o.Interpreter = "sh"
		o.Args = []string{"-c"}
	})
}

func TestCodeRunner_CapturesStdout(t *testing.T) {
	runner := newShellRunner()

	result, err := runner.Invoke(context.Background(), core.Call{Query: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Payload)
}

func TestCodeRunner_PrefersFencedBlock(t *testing.T) {
	runner := newShellRunner()

	result, err := runner.Invoke(context.Background(), core.Call{
		Query: "run this snippet:\n```sh\necho from fence\n```",
	})
	require.NoError(t, err)
	assert.Equal(t, "from fence", result.Payload)
}

func TestCodeRunner_FailureIsPermanent(t *testing.T) {
	runner := newShellRunner()

	_, err := runner.Invoke(context.Background(), core.Call{Query: "exit 3"})
	var perm *core.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestCodeRunner_HonorsContext(t *testing.T) {
	runner := newShellRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Invoke(ctx, core.Call{Query: "sleep 5"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCodeRunner_Capability(t *testing.T) {
	cap := NewCodeRunner().Capability()
	assert.Equal(t, "code_runner", cap.Name)
	assert.Equal(t, core.AtMostOnce, cap.Idempotency)
}
