package adapter

import (
	"context"
	"net/http"
	"regexp"

	"github.com/hupe1980/agenthub/core"
)

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s"'<>]+`)
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// nonContentPatterns remove whole elements whose inner text would
	// pollute the summary.
	nonContentPatterns = func() []*regexp.Regexp {
		tags := []string{"script", "style", "nav", "header", "footer", "aside"}
		out := make([]*regexp.Regexp, len(tags))
		for i, tag := range tags {
			out[i] = regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		}
		return out
	}()
)

// ArticleReaderOptions configures the article reader adapter.
type ArticleReaderOptions struct {
	// MaxSummaryBytes caps the extracted article text.
	MaxSummaryBytes int

	HTTPClient *http.Client
}

// ArticleReader fetches a web article and reduces it to a readable lead:
// title plus the first stretch of visible text.
type ArticleReader struct {
	maxSummaryBytes int
	client          *http.Client
}

// NewArticleReader constructs the article reader adapter.
func NewArticleReader(optFns ...func(o *ArticleReaderOptions)) *ArticleReader {
	opts := ArticleReaderOptions{
		MaxSummaryBytes: 1200,
		HTTPClient:      defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ArticleReader{maxSummaryBytes: opts.MaxSummaryBytes, client: opts.HTTPClient}
}

// Capability returns the registration descriptor.
func (a *ArticleReader) Capability() core.Capability {
	return core.Capability{
		Name: "article_reader",
		Description: "Fetch a news article or blog post from a url and " +
			"extract its title and lead text for reading.",
		InputSchema: queryStringSchema(10),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
	}
}

// Invoke implements core.Adapter. The article URL is taken from the query,
// falling back to a URL in an upstream payload.
func (a *ArticleReader) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	target := urlPattern.FindString(call.Query)
	if target == "" {
		for _, payload := range call.Context {
			if target = urlPattern.FindString(payload); target != "" {
				break
			}
		}
	}
	if target == "" {
		return nil, core.NewPermanentError("no article url in request", nil)
	}

	body, err := fetch(ctx, a.client, target)
	if err != nil {
		return nil, err
	}
	html := string(body)

	var title string
	if m := titlePattern.FindStringSubmatch(html); m != nil {
		title = collapseWhitespace(m[1])
	}

	text := collapseWhitespace(tagPattern.ReplaceAllString(stripNonContent(html), " "))
	if text == "" {
		return nil, core.NewPermanentError("no readable text at "+target, nil)
	}
	if len(text) > a.maxSummaryBytes {
		text = text[:a.maxSummaryBytes] + "..."
	}

	payload := text
	if title != "" {
		payload = title + "\n\n" + text
	}
	return &core.Result{Payload: payload, Sources: []string{target}}, nil
}

func stripNonContent(html string) string {
	for _, re := range nonContentPatterns {
		html = re.ReplaceAllString(html, " ")
	}
	return html
}
