package adapter

import (
	"context"

	"github.com/hupe1980/agenthub/core"
)

// Func exposes a plain Go function as a capability adapter. Handy for custom
// capabilities and tests where a full adapter type would be noise.
type Func func(ctx context.Context, call core.Call) (*core.Result, error)

// Invoke implements core.Adapter.
func (f Func) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	return f(ctx, call)
}
