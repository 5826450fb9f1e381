package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// WikipediaOptions configures the encyclopedia adapter.
type WikipediaOptions struct {
	// BaseURL of the Wikipedia REST API host. Overridable for tests.
	BaseURL string

	HTTPClient *http.Client
}

// Wikipedia fetches article summaries from the Wikipedia REST API. Read-only
// and knowledge-flagged: successful summaries feed the session accumulator.
type Wikipedia struct {
	baseURL string
	client  *http.Client
}

// NewWikipedia constructs the encyclopedia adapter.
func NewWikipedia(optFns ...func(o *WikipediaOptions)) *Wikipedia {
	opts := WikipediaOptions{
		BaseURL:    "https://en.wikipedia.org",
		HTTPClient: defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Wikipedia{baseURL: strings.TrimRight(opts.BaseURL, "/"), client: opts.HTTPClient}
}

// Capability returns the registration descriptor.
func (w *Wikipedia) Capability() core.Capability {
	return core.Capability{
		Name: "wikipedia",
		Description: "Look up an encyclopedia summary for a topic, person, " +
			"place or concept on wikipedia.",
		InputSchema: queryStringSchema(2),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
		Knowledge:   true,
	}
}

// wikiSummary is the subset of the REST summary payload we consume.
type wikiSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Invoke implements core.Adapter.
func (w *Wikipedia) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	topic := extractTopic(call.Query)
	if topic == "" {
		return nil, core.NewPermanentError("no topic in request", nil)
	}

	title := url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	body, err := fetch(ctx, w.client, w.baseURL+"/api/rest_v1/page/summary/"+title)
	if err != nil {
		return nil, err
	}

	var summary wikiSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, core.NewPermanentError("decoding summary", err)
	}
	if summary.Extract == "" {
		return nil, core.NewPermanentError("no summary available for "+topic, nil)
	}

	result := &core.Result{Payload: summary.Extract}
	if page := summary.ContentURLs.Desktop.Page; page != "" {
		result.Sources = []string{page}
	}
	return result, nil
}

// leadPhrases are trimmed from the front of lookup queries before the rest
// becomes the article title.
var leadPhrases = []string{
	"look up", "lookup", "tell me about", "who is", "who was", "what is",
	"what are", "search wikipedia for", "wikipedia",
}

func extractTopic(query string) string {
	topic := strings.ToLower(strings.TrimSpace(query))
	topic = strings.TrimRight(topic, "?.!")
	for changed := true; changed; {
		changed = false
		for _, p := range leadPhrases {
			if strings.HasPrefix(topic, p+" ") {
				topic = strings.TrimSpace(strings.TrimPrefix(topic, p))
				changed = true
			}
		}
	}
	topic = strings.TrimSuffix(topic, " on wikipedia")
	return strings.TrimSpace(topic)
}
