package provider

import (
	"context"
	"sync"

	"github.com/quorumtrade/quorum/internal/models"
)

// Registry builds and caches gateways per model. Construction is lazy: a
// model that is never queried never costs a client.
type Registry struct {
	mu       sync.Mutex
	settings Settings
	gateways map[models.ModelID]Gateway
}

func NewRegistry(settings Settings) *Registry {
	return &Registry{
		settings: settings,
		gateways: make(map[models.ModelID]Gateway),
	}
}

func (r *Registry) Settings() Settings {
	return r.settings
}

// Gateway returns the gateway for a model, constructing it on first use.
func (r *Registry) Gateway(ctx context.Context, id models.ModelID) (Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gateways[id]; ok {
		return g, nil
	}

	var (
		g   Gateway
		err error
	)
	if argv, ok := r.settings.CLICommands[id.Provider]; ok {
		g = &cliGateway{id: id, argv: argv}
	} else {
		g, err = newAPIGateway(ctx, id, r.settings)
	}
	if err != nil {
		return nil, err
	}
	r.gateways[id] = g
	return g, nil
}

// Query resolves the gateway and runs one call. Gateway construction
// failures (missing key, bad config) surface as a failed QueryResult so
// callers treat them exactly like any other per-call failure.
func (r *Registry) Query(ctx context.Context, id models.ModelID, prompt string, opts models.QueryOptions) *models.QueryResult {
	g, err := r.Gateway(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return g.Query(ctx, prompt, opts)
}

// ProviderType reports CLI or API for a model.
func (r *Registry) ProviderType(id models.ModelID) string {
	return r.settings.ProviderType(id)
}
