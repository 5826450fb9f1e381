package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// HackerNewsOptions configures the tech news adapter.
type HackerNewsOptions struct {
	// BaseURL of the Hacker News Firebase API. Overridable for tests.
	BaseURL string

	// MaxStories caps how many top stories are fetched.
	MaxStories int

	HTTPClient *http.Client
}

// HackerNews aggregates the current top stories from the Hacker News API.
type HackerNews struct {
	baseURL    string
	maxStories int
	client     *http.Client
}

// NewHackerNews constructs the tech news adapter.
func NewHackerNews(optFns ...func(o *HackerNewsOptions)) *HackerNews {
	opts := HackerNewsOptions{
		BaseURL:    "https://hacker-news.firebaseio.com",
		MaxStories: 5,
		HTTPClient: defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HackerNews{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxStories: opts.MaxStories,
		client:     opts.HTTPClient,
	}
}

// Capability returns the registration descriptor.
func (h *HackerNews) Capability() core.Capability {
	return core.Capability{
		Name: "tech_news",
		Description: "Get the current top technology and startup news " +
			"headlines from hacker news.",
		InputSchema: queryStringSchema(2),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
	}
}

type hnStory struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	By    string `json:"by"`
}

// Invoke implements core.Adapter.
func (h *HackerNews) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	body, err := fetch(ctx, h.client, h.baseURL+"/v0/topstories.json")
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, core.NewPermanentError("decoding story ids", err)
	}
	if len(ids) > h.maxStories {
		ids = ids[:h.maxStories]
	}

	var lines, sources []string
	for _, id := range ids {
		storyBody, err := fetch(ctx, h.client, fmt.Sprintf("%s/v0/item/%d.json", h.baseURL, id))
		if err != nil {
			// One broken item must not sink the digest.
			continue
		}
		var story hnStory
		if err := json.Unmarshal(storyBody, &story); err != nil || story.Title == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%d points, by %s)", story.Title, story.Score, story.By))
		if story.URL != "" {
			sources = append(sources, story.URL)
		}
	}

	if len(lines) == 0 {
		return nil, core.NewTransientError("no stories could be fetched", nil)
	}
	return &core.Result{Payload: strings.Join(lines, "\n"), Sources: sources}, nil
}
