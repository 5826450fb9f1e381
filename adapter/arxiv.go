package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// ArxivOptions configures the research paper adapter.
type ArxivOptions struct {
	// BaseURL of the arXiv query API. Overridable for tests.
	BaseURL string

	// MaxResults caps the papers returned per query.
	MaxResults int

	HTTPClient *http.Client
}

// Arxiv searches arXiv for research papers via its Atom feed API. Read-only
// and knowledge-flagged: abstracts feed the session accumulator.
type Arxiv struct {
	baseURL    string
	maxResults int
	client     *http.Client
}

// NewArxiv constructs the research paper adapter.
func NewArxiv(optFns ...func(o *ArxivOptions)) *Arxiv {
	opts := ArxivOptions{
		BaseURL:    "https://export.arxiv.org",
		MaxResults: 3,
		HTTPClient: defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Arxiv{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxResults: opts.MaxResults,
		client:     opts.HTTPClient,
	}
}

// Capability returns the registration descriptor.
func (a *Arxiv) Capability() core.Capability {
	return core.Capability{
		Name: "research_papers",
		Description: "Search arxiv for academic research papers and preprints " +
			"on a scientific topic and summarize the abstracts.",
		InputSchema: queryStringSchema(2),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
		Knowledge:   true,
	}
}

// atomFeed is the subset of the arXiv Atom response we consume.
type atomFeed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		ID      string `xml:"id"`
		Authors []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// Invoke implements core.Adapter.
func (a *Arxiv) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	endpoint := fmt.Sprintf("%s/api/query?search_query=all:%s&start=0&max_results=%d",
		a.baseURL, url.QueryEscape(call.Query), a.maxResults)

	body, err := fetch(ctx, a.client, endpoint)
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, core.NewPermanentError("decoding atom feed", err)
	}
	if len(feed.Entries) == 0 {
		return nil, core.NewPermanentError("no papers found for query", nil)
	}

	var lines, sources []string
	for _, entry := range feed.Entries {
		title := collapseWhitespace(entry.Title)
		summary := collapseWhitespace(entry.Summary)
		if len(summary) > 300 {
			summary = summary[:300] + "..."
		}

		authors := make([]string, 0, len(entry.Authors))
		for _, au := range entry.Authors {
			authors = append(authors, au.Name)
		}

		lines = append(lines, fmt.Sprintf("- %s (%s): %s", title, strings.Join(authors, ", "), summary))
		if entry.ID != "" {
			sources = append(sources, entry.ID)
		}
	}

	return &core.Result{Payload: strings.Join(lines, "\n"), Sources: sources}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
