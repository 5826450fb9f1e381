package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/agenthub/core"
)

// maxBodyBytes caps response bodies so a misbehaving upstream cannot balloon
// memory.
const maxBodyBytes = 2 << 20

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// fetch performs a GET and maps the reply onto the executor's error model:
// network faults and 5xx/429 are transient, 4xx are permanent.
func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewPermanentError("building request", err)
	}
	req.Header.Set("User-Agent", "agenthub/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.NewTransientError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, core.NewTransientError("reading response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, core.NewTransientError(fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
	default:
		return nil, core.NewPermanentError(fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
	}
}

// queryStringSchema is the minimal input contract shared by the query-driven
// adapters.
func queryStringSchema(minLength int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "minLength": minLength},
		},
		"required": []string{"query"},
	}
}
