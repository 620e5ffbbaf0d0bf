package research

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SentimentSummary condenses news and social chatter into one line of
// prompt context.
type SentimentSummary struct {
	Symbol        string  `json:"symbol"`
	NewsCount     int     `json:"news_count"`
	RedditCount   int     `json:"reddit_count"`
	RedditScore   float64 `json:"reddit_score"`
	TopHeadline   string  `json:"top_headline,omitempty"`
	TopSubmission string  `json:"top_submission,omitempty"`
}

// SentimentClient pulls company news from Finnhub and chatter from
// Reddit's public search API.
type SentimentClient struct {
	client        *resty.Client
	cache         *fileCache
	finnhubAPIKey string
}

func NewSentimentClient(cacheDir, finnhubAPIKey string, cacheEnabled bool) *SentimentClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Quorum/1.0 (by /u/quorumtrade)")

	return &SentimentClient{
		client:        client,
		cache:         newFileCache(filepath.Join(cacheDir, "sentiment"), time.Hour, cacheEnabled),
		finnhubAPIKey: finnhubAPIKey,
	}
}

type finnhubNews struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	DateTime int64  `json:"datetime"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string  `json:"title"`
				Score int     `json:"score"`
				Ups   float64 `json:"upvote_ratio"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Summarize gathers sentiment signals for a symbol. Each source is
// optional: a missing API key or a failed fetch just leaves its fields
// zero.
func (sc *SentimentClient) Summarize(ctx context.Context, symbol string) (*SentimentSummary, error) {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	var cached SentimentSummary
	if sc.cache.get("sentiment", "summary", symbol, &cached) {
		return &cached, nil
	}

	summary := &SentimentSummary{Symbol: symbol}

	if sc.finnhubAPIKey != "" {
		if news, err := sc.companyNews(ctx, symbol); err == nil && len(news) > 0 {
			summary.NewsCount = len(news)
			summary.TopHeadline = news[0].Headline
		}
	}

	if listing, err := sc.redditSearch(ctx, symbol); err == nil {
		children := listing.Data.Children
		summary.RedditCount = len(children)
		var totalRatio float64
		for _, c := range children {
			totalRatio += c.Data.Ups
		}
		if len(children) > 0 {
			summary.RedditScore = totalRatio / float64(len(children))
			summary.TopSubmission = children[0].Data.Title
		}
	}

	sc.cache.set("sentiment", "summary", symbol, summary)
	return summary, nil
}

func (sc *SentimentClient) companyNews(ctx context.Context, symbol string) ([]finnhubNews, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	resp, err := sc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  sc.finnhubAPIKey,
		}).
		Get("https://finnhub.io/api/v1/company-news")
	if err != nil {
		return nil, fmt.Errorf("fetch finnhub news: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("finnhub error %d: %s", resp.StatusCode(), resp.String())
	}

	var news []finnhubNews
	if err := json.Unmarshal(resp.Body(), &news); err != nil {
		return nil, fmt.Errorf("parse finnhub news: %w", err)
	}
	return news, nil
}

func (sc *SentimentClient) redditSearch(ctx context.Context, symbol string) (*redditListing, error) {
	var listing redditListing
	resp, err := sc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     symbol,
			"sort":  "hot",
			"t":     "week",
			"limit": "10",
		}).
		SetResult(&listing).
		Get("https://www.reddit.com/r/stocks/search.json")
	if err != nil {
		return nil, fmt.Errorf("fetch reddit: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit error %d", resp.StatusCode())
	}
	return &listing, nil
}

func (s *SentimentSummary) Format() string {
	var parts []string
	if s.NewsCount > 0 {
		parts = append(parts, fmt.Sprintf("%d news articles this week (latest: %q)", s.NewsCount, s.TopHeadline))
	}
	if s.RedditCount > 0 {
		parts = append(parts, fmt.Sprintf("%d reddit threads, avg upvote ratio %.2f", s.RedditCount, s.RedditScore))
	}
	if len(parts) == 0 {
		return ""
	}
	return s.Symbol + ": " + strings.Join(parts, "; ")
}
