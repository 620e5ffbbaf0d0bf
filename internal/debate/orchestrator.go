// Package debate runs the sequential multi-round debate: agents speak one
// at a time so each can react to the full prior transcript, rounds build
// on each other, and a synthesis pass closes the session.
package debate

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/fallback"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/provider"
	"github.com/quorumtrade/quorum/internal/taxonomy"
)

const (
	defaultRounds = 2
	// minSynthesisLen rejects synthesis replies that are too short to be
	// a real summary, pushing the cascade to the next model.
	minSynthesisLen = 40
)

// defaultSynthesisChain is the synthesis cascade: a fast general model
// first, then at least two further fallbacks.
var defaultSynthesisChain = []models.ModelID{
	{Provider: "openai", Model: "gpt-4o-mini"},
	{Provider: "deepseek", Model: "deepseek-chat"},
	{Provider: "openai", Model: "gpt-4.1"},
}

// Enricher is the research collaborator surface the orchestrator needs.
type Enricher interface {
	Context(ctx context.Context, topic, tier string) string
	Search(ctx context.Context, topic string) (string, []string, error)
}

// Orchestrator drives one debate request from first round to synthesis.
type Orchestrator struct {
	querier        provider.Querier
	resolver       *fallback.Resolver
	enricher       Enricher // nil disables enrichment
	synthesisChain []models.ModelID
}

func NewOrchestrator(querier provider.Querier, resolver *fallback.Resolver, enricher Enricher) *Orchestrator {
	return &Orchestrator{
		querier:        querier,
		resolver:       resolver,
		enricher:       enricher,
		synthesisChain: defaultSynthesisChain,
	}
}

// Run executes the debate and emits progress on stream. It returns an
// error only when the process itself cannot proceed (no agents); any
// number of individual agent failures still reaches a terminal state.
func (o *Orchestrator) Run(ctx context.Context, req models.DebateRequest, stream *events.Stream) (*models.DebateResult, error) {
	if len(req.Agents) == 0 {
		err := fmt.Errorf("debate requires at least one agent")
		stream.Emit(events.Event{Type: events.TypeError, Message: err.Error(), Terminal: true})
		return nil, err
	}

	rounds := req.Rounds
	if rounds <= 0 {
		rounds = defaultRounds
	}

	agents := sortAgents(req.Agents)
	sessionID := uuid.New().String()

	var researchCtx string
	if o.enricher != nil {
		researchCtx = o.enricher.Context(ctx, req.Query, req.ResearchTier)
	}

	var (
		transcript []models.RoundMessage
		usage      models.TokenUsage
	)

	for round := 1; round <= rounds; round++ {
		stream.Emit(events.Event{Type: events.TypeRoundStarted, Round: round})

		for _, agent := range agents {
			stream.Emit(events.Event{
				Type:        events.TypeModelStarted,
				Round:       round,
				AgentID:     agent.ID,
				DisplayName: agent.DisplayName,
				Model:       &agent.Model,
			})

			webCtx := o.enrichTurn(ctx, req, agent, round, stream)
			prompt := buildAgentPrompt(req.Query, agent, transcript, researchCtx, webCtx, round)

			opts := models.QueryOptions{MaxTokens: req.MaxTokens, UseWebSearch: provider.HasNativeSearch(agent.Model.Provider)}
			result, usedModel := o.queryWithFallback(ctx, agent.Model, prompt, opts, round, agent.ID, stream)
			if result == nil {
				// Skipped for this round only; the agent speaks again
				// next round.
				continue
			}

			msg := models.RoundMessage{
				AgentID:    agent.ID,
				Role:       agent.Role,
				Round:      round,
				Content:    strings.TrimSpace(result.Text),
				TokensUsed: result.Usage.Total,
				Timestamp:  time.Now(),
			}
			transcript = append(transcript, msg)
			usage = usage.Add(result.Usage)

			stream.Emit(events.Event{
				Type:        events.TypeModelCompleted,
				Round:       round,
				AgentID:     agent.ID,
				DisplayName: agent.DisplayName,
				Model:       &usedModel,
				TokensUsed:  result.Usage.Total,
			})
		}

		stream.Emit(events.Event{Type: events.TypeRoundCompleted, Round: round, Results: countRound(transcript, round)})
	}

	stream.Emit(events.Event{Type: events.TypeSynthesisStarted})
	synthesis := o.synthesize(ctx, req.Query, transcript, &usage)
	stream.Emit(events.Event{Type: events.TypeSynthesisCompleted, Synthesis: synthesis})

	result := &models.DebateResult{
		SessionID:  sessionID,
		Transcript: transcript,
		Synthesis:  synthesis,
		Usage:      usage,
	}
	stream.Emit(events.Event{Type: events.TypeDebateCompleted, Debate: result})
	return result, nil
}

// sortAgents orders by role precedence, stable so configuration order
// breaks ties.
func sortAgents(in []models.AgentDescriptor) []models.AgentDescriptor {
	agents := make([]models.AgentDescriptor, len(in))
	copy(agents, in)
	sort.SliceStable(agents, func(i, j int) bool {
		return models.RolePrecedence(agents[i].Role) < models.RolePrecedence(agents[j].Role)
	})
	return agents
}

// enrichTurn runs per-agent web search. Native-search providers skip it;
// failure degrades to the unenriched prompt.
func (o *Orchestrator) enrichTurn(ctx context.Context, req models.DebateRequest, agent models.AgentDescriptor, round int, stream *events.Stream) string {
	if o.enricher == nil || req.ResearchTier == "" {
		return ""
	}
	if provider.HasNativeSearch(agent.Model.Provider) {
		return ""
	}

	stream.Emit(events.Event{Type: events.TypeWebSearchStarted, Round: round, AgentID: agent.ID})
	webCtx, queries, err := o.enricher.Search(ctx, req.Query)
	if err != nil {
		stream.Emit(events.Event{Type: events.TypeWebSearchFailed, Round: round, AgentID: agent.ID, Message: err.Error()})
		return ""
	}
	stream.Emit(events.Event{Type: events.TypeWebSearchCompleted, Round: round, AgentID: agent.ID, Queries: queries})
	return webCtx
}

// queryWithFallback walks the fallback chain up to MaxHops past the
// primary. Returns nil when everything failed; the caller skips the turn.
func (o *Orchestrator) queryWithFallback(ctx context.Context, primary models.ModelID, prompt string, opts models.QueryOptions, round int, agentID string, stream *events.Stream) (*models.QueryResult, models.ModelID) {
	attempted := map[models.ModelID]bool{}
	current := primary
	var lastErr string

	for hop := 0; hop <= fallback.MaxHops; hop++ {
		attempted[current] = true
		result := o.querier.Query(ctx, current, prompt, opts)
		if !result.Failed() {
			if hop > 0 {
				stream.Emit(events.Event{
					Type:     events.TypeFallbackUsed,
					Round:    round,
					AgentID:  agentID,
					Model:    &primary,
					Fallback: &current,
				})
			}
			if o.resolver.IsUnstable(current) {
				stream.Emit(events.Event{
					Type:     events.TypeWarning,
					Round:    round,
					AgentID:  agentID,
					Model:    &current,
					Message:  fmt.Sprintf("%s has failed repeatedly and may be unstable", current),
					Category: string(o.resolver.Tracker().LastCategory(current)),
				})
			}
			return result, current
		}

		lastErr = result.ErrorMessage
		if lastErr == "" {
			lastErr = "empty response"
		}
		o.resolver.RecordFailure(current, lastErr)
		log.Printf("debate: %s failed for agent %s round %d: %s", current, agentID, round, lastErr)

		next, ok := o.resolver.NextFallback(current, attempted)
		if !ok {
			break
		}
		current = next
	}

	cls := taxonomy.Classify(lastErr)
	stream.Emit(events.Event{
		Type:     events.TypeModelError,
		Round:    round,
		AgentID:  agentID,
		Model:    &primary,
		Message:  cls.UserMessage,
		Category: string(cls.Category),
		Color:    cls.DisplayColor,
	})
	return nil, models.ModelID{}
}

// synthesize cascades through the synthesis chain and falls back to a
// deterministic transcript summary. It never returns nil.
func (o *Orchestrator) synthesize(ctx context.Context, query string, transcript []models.RoundMessage, usage *models.TokenUsage) *models.SynthesisReport {
	if len(transcript) == 0 {
		return fallbackSynthesis(transcript)
	}

	prompt := buildSynthesisPrompt(query, transcript)
	for _, id := range o.synthesisChain {
		result := o.querier.Query(ctx, id, prompt, models.QueryOptions{})
		if result.Failed() || len(strings.TrimSpace(result.Text)) < minSynthesisLen {
			if result.ErrorMessage != "" {
				o.resolver.RecordFailure(id, result.ErrorMessage)
			}
			log.Printf("debate: synthesis model %s unusable, cascading", id)
			continue
		}
		*usage = usage.Add(result.Usage)
		return ParseSynthesis(result.Text)
	}
	return fallbackSynthesis(transcript)
}

func countRound(transcript []models.RoundMessage, round int) int {
	n := 0
	for _, m := range transcript {
		if m.Round == round {
			n++
		}
	}
	return n
}
