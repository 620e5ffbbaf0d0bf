package research

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// NewsArticle is a scraped headline used as prompt context.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// NewsClient scrapes Google News RSS for recent headlines.
type NewsClient struct {
	client *resty.Client
	cache  *fileCache
}

func NewNewsClient(cacheDir string, cacheEnabled bool) *NewsClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; Quorum/1.0)")

	return &NewsClient{
		client: client,
		cache:  newFileCache(filepath.Join(cacheDir, "news"), 2*time.Hour, cacheEnabled),
	}
}

// Headlines fetches up to maxResults recent articles for a query.
func (nc *NewsClient) Headlines(ctx context.Context, query string, maxResults int) ([]*NewsArticle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("news query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	cacheKey := map[string]any{"query": query, "max": maxResults}
	var cached []*NewsArticle
	if nc.cache.get("google_news", "rss", cacheKey, &cached) {
		return cached, nil
	}

	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(query))

	var result []*NewsArticle
	err := withRetry(3, time.Second, func() error {
		resp, err := nc.client.R().SetContext(ctx).Get(feedURL)
		if err != nil {
			return fmt.Errorf("fetch news feed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("news feed error %d", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse news feed: %w", err)
		}

		result = result[:0]
		doc.Find("item").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if len(result) >= maxResults {
				return false
			}
			article := &NewsArticle{
				Title:  strings.TrimSpace(s.Find("title").Text()),
				URL:    strings.TrimSpace(s.Find("link").Text()),
				Source: strings.TrimSpace(s.Find("source").Text()),
			}
			if pub := strings.TrimSpace(s.Find("pubDate").Text()); pub != "" {
				if t, err := time.Parse(time.RFC1123, pub); err == nil {
					article.PublishedAt = t
				}
			}
			if article.Title != "" {
				result = append(result, article)
			}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	nc.cache.set("google_news", "rss", cacheKey, result)
	return result, nil
}
