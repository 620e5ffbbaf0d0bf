// Package research enriches prompts with market and web context before a
// model sees them. Every fetch here is best-effort: a failure degrades to
// the unenriched prompt and never aborts an agent turn.
package research

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SearchResult is one hit from the search collaborator.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse is the collaborator's reply.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Queries   []string       `json:"queries"`
	Rationale string         `json:"rationale,omitempty"`
}

// SearchClient talks to the external web-search collaborator.
type SearchClient struct {
	client   *resty.Client
	endpoint string
}

func NewSearchClient(endpoint string) *SearchClient {
	client := resty.New()
	client.SetTimeout(45 * time.Second)
	client.SetHeader("User-Agent", "Quorum/1.0")
	return &SearchClient{client: client, endpoint: endpoint}
}

// Search asks the collaborator for web context on a topic.
func (sc *SearchClient) Search(ctx context.Context, topic string) (*SearchResponse, error) {
	if sc.endpoint == "" {
		return nil, fmt.Errorf("search endpoint not configured")
	}

	var out SearchResponse
	resp, err := sc.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"context": topic}).
		SetResult(&out).
		Post(sc.endpoint)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("search error %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}
