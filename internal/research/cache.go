package research

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileCache is a TTL file cache for fetched research data. Research is
// advisory context, so every cache error degrades to a miss.
type fileCache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

func newFileCache(dir string, ttl time.Duration, enabled bool) *fileCache {
	return &fileCache{dir: dir, ttl: ttl, enabled: enabled}
}

func (c *fileCache) key(source, method string, params any) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s_%s_%x.json", source, method, md5.Sum(data))
}

func (c *fileCache) get(source, method string, params, result any) bool {
	if !c.enabled {
		return false
	}
	path := filepath.Join(c.dir, c.key(source, method, params))
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(path)
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

func (c *fileCache) set(source, method string, params, data any) {
	if !c.enabled {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.dir, c.key(source, method, params)), encoded, 0o644)
}

// withRetry runs fn with exponential backoff. Research fetches retry a
// couple of times and then give up; the caller degrades to an unenriched
// prompt.
func withRetry(attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := baseDelay << (i - 1)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}
			time.Sleep(delay)
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("retries exhausted: %w", lastErr)
}
