package adapter

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// fileNamePattern extracts the first file-looking token from a query.
var fileNamePattern = regexp.MustCompile(`[\w./-]+\.(?:txt|md|csv|json|log)`)

// FileStoreOptions configures the file adapter.
type FileStoreOptions struct {
	// Store is the backing byte store. Defaults to an in-memory store; use
	// NewDirStore for real files.
	Store Store
}

// FileStore saves and reads named files. Writes are externally visible per
// call, so the capability is non-idempotent and invocations targeting the
// same file are serialized via the resource key.
type FileStore struct {
	store Store
}

// NewFileStore constructs the file adapter.
func NewFileStore(optFns ...func(o *FileStoreOptions)) *FileStore {
	opts := FileStoreOptions{Store: NewMemStore()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileStore{store: opts.Store}
}

// Capability returns the registration descriptor.
func (f *FileStore) Capability() core.Capability {
	return core.Capability{
		Name: "file_store",
		Description: "Save data to a txt file, read the content of an " +
			"existing file or list the saved files in the files directory.",
		InputSchema: queryStringSchema(1),
		Idempotency: core.NonIdempotent,
	}
}

// ResourceKey serializes concurrent invocations that target the same file.
func (f *FileStore) ResourceKey(call core.Call) string {
	name := fileNamePattern.FindString(call.Query)
	if name == "" {
		return ""
	}
	return "files/" + filepath.Clean(name)
}

// Invoke implements core.Adapter. The verb is inferred from the query; the
// content of a save comes from upstream step payloads when present, falling
// back to the query text itself.
func (f *FileStore) Invoke(_ context.Context, call core.Call) (*core.Result, error) {
	q := strings.ToLower(call.Query)

	if strings.Contains(q, "list") && fileNamePattern.FindString(call.Query) == "" {
		names, err := f.store.List()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return &core.Result{Payload: "no files saved yet"}, nil
		}
		return &core.Result{Payload: strings.Join(names, "\n")}, nil
	}

	name := fileNamePattern.FindString(call.Query)
	if name == "" {
		return nil, core.NewPermanentError("no file name in request", nil)
	}
	name = filepath.Clean(name)

	if isReadVerb(q) {
		data, err := f.store.Read(name)
		if err != nil {
			return nil, err
		}
		return &core.Result{Payload: string(data)}, nil
	}

	content := upstreamContent(call)
	if content == "" {
		content = call.Query
	}
	if err := f.store.Write(name, []byte(content)); err != nil {
		return nil, err
	}
	return &core.Result{Payload: "saved to " + name}, nil
}

func isReadVerb(q string) bool {
	if strings.Contains(q, "save") || strings.Contains(q, "write") || strings.Contains(q, "store") {
		return false
	}
	return strings.Contains(q, "read") || strings.Contains(q, "open") || strings.Contains(q, "show")
}

// upstreamContent joins prior step payloads in deterministic key order.
func upstreamContent(call core.Call) string {
	if len(call.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(call.Context))
	for k := range call.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, call.Context[k])
	}
	return strings.Join(parts, "\n\n")
}
