package adapter

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// tickerPattern matches an explicit uppercase ticker symbol in the query.
var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}(?:\.[A-Z]{1,3})?\b`)

// tickerStopwords are uppercase words that look like tickers but are not.
var tickerStopwords = map[string]struct{}{
	"I": {}, "A": {}, "THE": {}, "USD": {}, "EUR": {}, "GET": {}, "NOW": {},
}

// StockQuotesOptions configures the financial data adapter.
type StockQuotesOptions struct {
	// BaseURL of the Stooq quote endpoint. Overridable for tests.
	BaseURL string

	HTTPClient *http.Client
}

// StockQuotes fetches latest quotes from the Stooq CSV endpoint.
type StockQuotes struct {
	baseURL string
	client  *http.Client
}

// NewStockQuotes constructs the financial data adapter.
func NewStockQuotes(optFns ...func(o *StockQuotesOptions)) *StockQuotes {
	opts := StockQuotesOptions{
		BaseURL:    "https://stooq.com",
		HTTPClient: defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StockQuotes{baseURL: strings.TrimRight(opts.BaseURL, "/"), client: opts.HTTPClient}
}

// Capability returns the registration descriptor.
func (s *StockQuotes) Capability() core.Capability {
	return core.Capability{
		Name: "stock_quotes",
		Description: "Retrieve the latest stock price quote for a ticker " +
			"symbol including open, close, high, low and volume.",
		InputSchema: queryStringSchema(1),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
	}
}

// Invoke implements core.Adapter. Stooq replies with a one-row CSV:
// Symbol,Date,Time,Open,High,Low,Close,Volume.
func (s *StockQuotes) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	ticker := extractTicker(call.Query)
	if ticker == "" {
		return nil, core.NewPermanentError("no ticker symbol in request", nil)
	}

	symbol := strings.ToLower(ticker)
	if !strings.Contains(symbol, ".") {
		symbol += ".us"
	}
	endpoint := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", s.baseURL, url.QueryEscape(symbol))

	body, err := fetch(ctx, s.client, endpoint)
	if err != nil {
		return nil, err
	}

	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil || len(rows) < 2 || len(rows[1]) < 8 {
		return nil, core.NewPermanentError("unexpected quote format for "+ticker, err)
	}

	row := rows[1]
	if row[3] == "N/D" || row[6] == "N/D" {
		return nil, core.NewPermanentError("no quote data for "+ticker, nil)
	}

	payload := fmt.Sprintf("%s on %s: open %s, high %s, low %s, close %s, volume %s",
		ticker, row[1], row[3], row[4], row[5], row[6], row[7])

	return &core.Result{
		Payload: payload,
		Sources: []string{s.baseURL + "/q/?s=" + url.QueryEscape(symbol)},
	}, nil
}

// extractTicker prefers an explicit uppercase symbol in the original query.
func extractTicker(query string) string {
	for _, m := range tickerPattern.FindAllString(query, -1) {
		if _, skip := tickerStopwords[m]; !skip {
			return m
		}
	}
	return ""
}
