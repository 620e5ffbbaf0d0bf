// Package fallback decides which model to try next after a failed call
// and tracks rolling failure counts so repeat offenders can be flagged.
package fallback

import "github.com/quorumtrade/quorum/internal/models"

// MaxHops bounds how many fallback candidates an orchestrator walks for a
// single agent turn.
const MaxHops = 3

// chains is the static ranked fallback order per model family. Chains are
// finite and acyclic by configuration; termination is still guaranteed by
// the caller's growing attempted set, not by trusting this table.
var chains = map[string][]models.ModelID{
	"gpt-5": {
		{Provider: "openai", Model: "gpt-5-mini"},
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"gpt-5-mini": {
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"gpt-4.1": {
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"gpt-4o-mini": {
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"o4-mini": {
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"claude-sonnet": {
		{Provider: "anthropic", Model: "claude-haiku"},
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"claude-haiku": {
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"gemini-pro": {
		{Provider: "gemini", Model: "gemini-flash"},
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"gemini-flash": {
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "deepseek", Model: "deepseek-chat"},
	},
	"deepseek-chat": {
		{Provider: "deepseek", Model: "deepseek-reasoner"},
		{Provider: "openai", Model: "gpt-4o-mini"},
	},
	"deepseek-reasoner": {
		{Provider: "deepseek", Model: "deepseek-chat"},
		{Provider: "openai", Model: "gpt-4o-mini"},
	},
}

// defaultChain serves models with no configured family.
var defaultChain = []models.ModelID{
	{Provider: "openai", Model: "gpt-4o-mini"},
	{Provider: "deepseek", Model: "deepseek-chat"},
}

// Resolver walks static ranked fallback chains. It carries the shared
// failure tracker so call sites have one handle for both concerns.
type Resolver struct {
	tracker *Tracker
	chains  map[string][]models.ModelID
}

func NewResolver(tracker *Tracker) *Resolver {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Resolver{tracker: tracker, chains: chains}
}

func (r *Resolver) Tracker() *Tracker {
	return r.tracker
}

// Chain returns the configured fallback chain for a model.
func (r *Resolver) Chain(id models.ModelID) []models.ModelID {
	if chain, ok := r.chains[id.Model]; ok {
		return chain
	}
	return defaultChain
}

// NextFallback returns the first chain entry not already attempted, or a
// zero ModelID when the chain is exhausted. The attempted set must grow
// monotonically at the call site; that invariant, not the chain shape, is
// what guarantees termination.
func (r *Resolver) NextFallback(id models.ModelID, attempted map[models.ModelID]bool) (models.ModelID, bool) {
	for _, candidate := range r.Chain(id) {
		if candidate == id || attempted[candidate] {
			continue
		}
		return candidate, true
	}
	return models.ModelID{}, false
}

// RecordFailure forwards to the shared tracker.
func (r *Resolver) RecordFailure(id models.ModelID, errMsg string) {
	r.tracker.RecordFailure(id, errMsg)
}

// IsUnstable forwards to the shared tracker.
func (r *Resolver) IsUnstable(id models.ModelID) bool {
	return r.tracker.IsUnstable(id)
}
