package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

var workspaceNamePattern = regexp.MustCompile(`[a-z0-9][a-z0-9._-]*`)

// WorkspaceOptions configures the workspace adapter.
type WorkspaceOptions struct {
	// BaseDir is where workspaces are scaffolded. Defaults to "workspaces".
	BaseDir string

	// Template maps relative file names to initial content for new
	// workspaces.
	Template map[string]string
}

// Workspace scaffolds project directories. Creating a directory tree twice
// is not safe, so the capability is at-most-once and same-named workspaces
// are serialized via the resource key.
type Workspace struct {
	baseDir  string
	template map[string]string
}

// NewWorkspace constructs the workspace adapter.
func NewWorkspace(optFns ...func(o *WorkspaceOptions)) *Workspace {
	opts := WorkspaceOptions{
		BaseDir: "workspaces",
		Template: map[string]string{
			"README.md": "# %s\n\nScaffolded workspace.\n",
			"notes.txt": "",
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Workspace{baseDir: opts.BaseDir, template: opts.Template}
}

// Capability returns the registration descriptor.
func (w *Workspace) Capability() core.Capability {
	return core.Capability{
		Name: "workspace",
		Description: "Create or scaffold a new project workspace directory " +
			"with starter files for a named project.",
		InputSchema: queryStringSchema(1),
		Idempotency: core.AtMostOnce,
	}
}

// ResourceKey serializes scaffolding of the same workspace name.
func (w *Workspace) ResourceKey(call core.Call) string {
	name := w.workspaceName(call.Query)
	if name == "" {
		return ""
	}
	return "workspace/" + name
}

// Invoke implements core.Adapter.
func (w *Workspace) Invoke(_ context.Context, call core.Call) (*core.Result, error) {
	name := w.workspaceName(call.Query)
	if name == "" {
		return nil, core.NewPermanentError("no workspace name in request", nil)
	}

	dir := filepath.Join(w.baseDir, name)
	if _, err := os.Stat(dir); err == nil {
		return nil, core.NewPermanentError("workspace already exists: "+name, nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.NewTransientError("creating workspace directory", err)
	}

	created := make([]string, 0, len(w.template))
	for file, content := range w.template {
		if strings.Contains(content, "%s") {
			content = fmt.Sprintf(content, name)
		}
		path := filepath.Join(dir, filepath.Clean(file))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, core.NewTransientError("creating workspace subdirectory", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, core.NewTransientError("writing workspace file", err)
		}
		created = append(created, file)
	}

	return &core.Result{
		Payload: fmt.Sprintf("created workspace %q with %d starter files", name, len(created)),
	}, nil
}

// workspaceName pulls the project name out of the query: the first plausible
// token after a "named"/"called"/"for" cue, or the last token as fallback.
func (w *Workspace) workspaceName(query string) string {
	q := strings.ToLower(strings.TrimRight(strings.TrimSpace(query), "?.!"))
	fields := strings.Fields(q)
	for i, f := range fields {
		if (f == "named" || f == "called" || f == "for") && i+1 < len(fields) {
			return workspaceNamePattern.FindString(fields[i+1])
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return workspaceNamePattern.FindString(fields[len(fields)-1])
}
