package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// WebSearchOptions configures the web search adapter.
type WebSearchOptions struct {
	// BaseURL of the DuckDuckGo instant answer API. Overridable for tests.
	BaseURL string

	// MaxResults caps the related topics included in the payload.
	MaxResults int

	HTTPClient *http.Client
}

// WebSearch queries the DuckDuckGo instant answer API: abstract first,
// related topics as fallback, every result with its source URL.
type WebSearch struct {
	baseURL    string
	maxResults int
	client     *http.Client
}

// NewWebSearch constructs the web search adapter.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		BaseURL:    "https://api.duckduckgo.com",
		MaxResults: 5,
		HTTPClient: defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WebSearch{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxResults: opts.MaxResults,
		client:     opts.HTTPClient,
	}
}

// Capability returns the registration descriptor.
func (w *WebSearch) Capability() core.Capability {
	return core.Capability{
		Name: "web_search",
		Description: "Search the web or the news for any query and return " +
			"the top results with a short summary and source for each.",
		InputSchema: queryStringSchema(2),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
	}
}

type searchReply struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Invoke implements core.Adapter.
func (w *WebSearch) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		w.baseURL, url.QueryEscape(call.Query))

	body, err := fetch(ctx, w.client, endpoint)
	if err != nil {
		return nil, err
	}

	var reply searchReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, core.NewPermanentError("decoding search results", err)
	}

	var lines, sources []string
	if reply.AbstractText != "" {
		lines = append(lines, reply.AbstractText)
		if reply.AbstractURL != "" {
			sources = append(sources, reply.AbstractURL)
		}
	}
	for _, topic := range reply.RelatedTopics {
		if len(lines) >= w.maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		lines = append(lines, "- "+topic.Text)
		if topic.FirstURL != "" {
			sources = append(sources, topic.FirstURL)
		}
	}

	if len(lines) == 0 {
		return nil, core.NewPermanentError("no results for query", nil)
	}
	return &core.Result{Payload: strings.Join(lines, "\n"), Sources: sources}, nil
}
