package feed

import (
	"context"
	"net/http"
	"time"
)

const (
	userAgent = "feedling/1.0 (feed aggregator)"
	accept    = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"
	timeout   = 30 * time.Second
)

type Fetcher struct {
	client *http.Client
	parser *Parser
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		parser: NewParser(),
	}
}

// Fetch performs a single GET against url and parses the body. There are no
// retries and no conditional headers: the store deduplicates re-fetched
// entries by id, so a full response is always acceptable.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	return f.parser.Parse(resp.Body, url)
}
