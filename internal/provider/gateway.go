// Package provider exposes a uniform query contract over heterogeneous
// model backends. Orchestrators never inspect provider-specific behavior;
// the one capability they consult (native web search) lives in a static
// table, not in code.
package provider

import (
	"context"

	"github.com/quorumtrade/quorum/internal/models"
)

// Gateway is the collaborator boundary for one model backend. Query never
// returns a nil result: transport and provider errors are folded into
// QueryResult.ErrorMessage so the caller's Failed() predicate is the single
// gate for fallback.
type Gateway interface {
	Query(ctx context.Context, prompt string, opts models.QueryOptions) *models.QueryResult
}

// Querier is the orchestrator-facing surface of the registry: one call
// per (model, prompt) with the gateway resolution folded in. Tests stub
// this to script per-model outcomes.
type Querier interface {
	Query(ctx context.Context, id models.ModelID, prompt string, opts models.QueryOptions) *models.QueryResult
	ProviderType(id models.ModelID) string
}

// Settings configures gateway construction. All of it is data from the
// config layer; the core never branches on provider names elsewhere.
type Settings struct {
	// APIKeys maps provider name to API key.
	APIKeys map[string]string
	// BaseURLs maps provider name to an OpenAI-compatible endpoint.
	// Providers absent from this map use their binding's default.
	BaseURLs map[string]string
	// CLICommands maps provider name to the argv of a local agent binary.
	// Presence here makes the provider a CLI provider.
	CLICommands map[string][]string
	// DefaultMaxTokens applies when QueryOptions does not set one.
	DefaultMaxTokens int
}

// ProviderType reports how a model is reached.
func (s Settings) ProviderType(id models.ModelID) string {
	if _, ok := s.CLICommands[id.Provider]; ok {
		return models.ProviderTypeCLI
	}
	return models.ProviderTypeAPI
}

func errorResult(err error) *models.QueryResult {
	return &models.QueryResult{ErrorMessage: err.Error()}
}
