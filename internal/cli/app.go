package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/quorumtrade/quorum/config"
	"github.com/quorumtrade/quorum/internal/consensus"
	"github.com/quorumtrade/quorum/internal/debate"
	"github.com/quorumtrade/quorum/internal/display"
	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/fallback"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/provider"
	"github.com/quorumtrade/quorum/internal/research"
	"github.com/quorumtrade/quorum/internal/storage"
	"github.com/quorumtrade/quorum/internal/training"
)

// app holds the wired collaborators every command shares.
type app struct {
	mgr      *config.Manager
	cfg      config.Config
	registry *provider.Registry
	resolver *fallback.Resolver
	enricher *research.Enricher
	store    *storage.Store
	exporter *training.Exporter
}

func newApp(configPath string) (*app, error) {
	opts := []config.ManagerOption{
		config.WithInitialConfig(config.DefaultConfig()),
	}
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := mgr.Get()
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	a := &app{
		mgr:      mgr,
		cfg:      cfg,
		registry: provider.NewRegistry(cfg.ProviderSettings()),
		resolver: fallback.NewResolver(nil),
		enricher: research.NewEnricher(research.Config{
			CacheDir:       cfg.CacheDir,
			CacheEnabled:   cfg.CacheEnabled,
			FinnhubAPIKey:  cfg.FinnhubAPIKey,
			SearchEndpoint: cfg.SearchEndpoint,
		}),
		exporter: training.NewExporter(cfg.TrainingEndpoint),
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		// Persistence is optional for CLI runs.
		log.Printf("cli: persistence disabled: %v", err)
	} else {
		a.store = store
	}

	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *app) debateOrchestrator() *debate.Orchestrator {
	return debate.NewOrchestrator(a.registry, a.resolver, a.enricher)
}

func (a *app) consensusOrchestrator() *consensus.Orchestrator {
	return consensus.NewOrchestrator(a.registry, a.resolver, a.enricher)
}

// runDebate executes a debate in the terminal with live progress.
func (a *app) runDebate(ctx context.Context, req models.DebateRequest) error {
	stream := events.NewStream()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range stream.Events() {
			if line := display.RenderEvent(e); line != "" {
				fmt.Println(line)
			}
		}
	}()

	result, err := a.debateOrchestrator().Run(ctx, req, stream)
	stream.Close()
	<-done
	if err != nil {
		return err
	}

	fmt.Println(display.RenderSynthesis(req.Query, result.Synthesis))
	fmt.Printf("Tokens used: %d\n", result.Usage.Total)

	if a.store != nil {
		record := storage.SessionRecord{ID: result.SessionID, Kind: storage.KindDebate, Topic: req.Query, Status: storage.StatusDone}
		if err := a.store.CreateSession(ctx, record); err == nil {
			if err := a.store.SaveDebateResult(ctx, result); err != nil {
				log.Printf("cli: save debate: %v", err)
			}
		}
	}
	a.exporter.ExportDebate(req.Query, result)
	return nil
}

// runConsensus executes a consensus round in the terminal.
func (a *app) runConsensus(ctx context.Context, req models.ConsensusRequest) error {
	stream := events.NewStream()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range stream.Events() {
			if line := display.RenderEvent(e); line != "" {
				fmt.Println(line)
			}
		}
	}()

	result, err := a.consensusOrchestrator().Run(ctx, req, stream)
	stream.Close()
	<-done
	if err != nil {
		return err
	}

	fmt.Println(display.RenderConsensus(result))

	if a.store != nil {
		record := storage.SessionRecord{ID: result.SessionID, Kind: storage.KindConsensus, Topic: req.Symbol, Status: storage.StatusDone}
		if err := a.store.CreateSession(ctx, record); err == nil {
			if err := a.store.SaveConsensusResult(ctx, result); err != nil {
				log.Printf("cli: save consensus: %v", err)
			}
		}
	}
	a.exporter.ExportConsensus(result)
	return nil
}
