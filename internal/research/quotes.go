package research

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// QuoteSnapshot is a condensed market view injected into prompts.
type QuoteSnapshot struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    int64           `json:"volume"`
	Exchange  string          `json:"exchange"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QuoteClient fetches quote snapshots from Yahoo Finance.
type QuoteClient struct {
	cache *fileCache
}

func NewQuoteClient(cacheDir string, cacheEnabled bool) *QuoteClient {
	return &QuoteClient{
		cache: newFileCache(filepath.Join(cacheDir, "quotes"), 15*time.Minute, cacheEnabled),
	}
}

// Snapshot gets the current quote for a symbol.
func (qc *QuoteClient) Snapshot(symbol string) (*QuoteSnapshot, error) {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	var cached QuoteSnapshot
	if qc.cache.get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var snap *QuoteSnapshot
	err := withRetry(3, time.Second, func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("get quote for %s: %w", symbol, err)
		}
		snap = &QuoteSnapshot{
			Symbol:    symbol,
			Price:     decimal.NewFromFloat(q.RegularMarketPrice),
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Volume:    int64(q.RegularMarketVolume),
			Exchange:  q.FullExchangeName,
			FetchedAt: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	qc.cache.set("yahoo", "quote", symbol, snap)
	return snap, nil
}

func (s *QuoteSnapshot) Format() string {
	return fmt.Sprintf("%s @ %s (open %s, range %s-%s, volume %d, %s)",
		s.Symbol, s.Price, s.Open, s.Low, s.High, s.Volume, s.Exchange)
}
