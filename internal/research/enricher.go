package research

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Research tiers. None skips enrichment, basic adds a quote snapshot,
// deep adds headlines and sentiment on top.
const (
	TierNone  = "none"
	TierBasic = "basic"
	TierDeep  = "deep"
)

// Enricher assembles pre-fetched research context for orchestrators.
type Enricher struct {
	quotes    *QuoteClient
	news      *NewsClient
	sentiment *SentimentClient
	search    *SearchClient
}

// Config holds enricher wiring; zero values disable the matching source.
type Config struct {
	CacheDir       string
	CacheEnabled   bool
	FinnhubAPIKey  string
	SearchEndpoint string
}

func NewEnricher(cfg Config) *Enricher {
	return &Enricher{
		quotes:    NewQuoteClient(cfg.CacheDir, cfg.CacheEnabled),
		news:      NewNewsClient(cfg.CacheDir, cfg.CacheEnabled),
		sentiment: NewSentimentClient(cfg.CacheDir, cfg.FinnhubAPIKey, cfg.CacheEnabled),
		search:    NewSearchClient(cfg.SearchEndpoint),
	}
}

// Context builds a research block for a symbol or topic at the given
// tier. Sources fail independently; whatever succeeded is returned, and
// an empty string means nothing was available.
func (e *Enricher) Context(ctx context.Context, topic, tier string) string {
	if tier == "" || tier == TierNone {
		return ""
	}

	var sections []string

	if snap, err := e.quotes.Snapshot(topic); err == nil {
		sections = append(sections, "Market: "+snap.Format())
	} else {
		log.Printf("research: quote snapshot for %q unavailable: %v", topic, err)
	}

	if tier == TierDeep {
		if articles, err := e.news.Headlines(ctx, topic, 5); err == nil && len(articles) > 0 {
			var lines []string
			for _, a := range articles {
				lines = append(lines, "- "+a.Title)
			}
			sections = append(sections, "Recent headlines:\n"+strings.Join(lines, "\n"))
		} else if err != nil {
			log.Printf("research: headlines for %q unavailable: %v", topic, err)
		}

		if summary, err := e.sentiment.Summarize(ctx, topic); err == nil {
			if formatted := summary.Format(); formatted != "" {
				sections = append(sections, "Sentiment: "+formatted)
			}
		}
	}

	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n")
}

// Search runs the web-search collaborator for one agent turn and formats
// the hits for prompt injection.
func (e *Enricher) Search(ctx context.Context, topic string) (string, []string, error) {
	resp, err := e.search.Search(ctx, topic)
	if err != nil {
		return "", nil, err
	}
	if len(resp.Results) == 0 {
		return "", resp.Queries, nil
	}

	var lines []string
	for _, r := range resp.Results {
		line := "- " + r.URL
		if r.Title != "" {
			line = fmt.Sprintf("- %s (%s)", r.Title, r.URL)
		}
		if r.Snippet != "" {
			line += ": " + r.Snippet
		}
		lines = append(lines, line)
	}
	return "Web search findings:\n" + strings.Join(lines, "\n"), resp.Queries, nil
}
