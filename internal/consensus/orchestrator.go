package consensus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/fallback"
	"github.com/quorumtrade/quorum/internal/jsonrepair"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/provider"
	"github.com/quorumtrade/quorum/internal/taxonomy"
)

// defaultJudge unifies the decision set. Its own fallback chain applies
// like any other model's.
var defaultJudge = models.ModelID{Provider: "openai", Model: "gpt-4.1"}

// Enricher is the research collaborator surface the orchestrator needs.
type Enricher interface {
	Context(ctx context.Context, topic, tier string) string
}

// Orchestrator drives one consensus request: fan out, tally, judge.
type Orchestrator struct {
	querier  provider.Querier
	resolver *fallback.Resolver
	enricher Enricher // nil disables enrichment
	judge    models.ModelID
}

func NewOrchestrator(querier provider.Querier, resolver *fallback.Resolver, enricher Enricher) *Orchestrator {
	return &Orchestrator{
		querier:  querier,
		resolver: resolver,
		enricher: enricher,
		judge:    defaultJudge,
	}
}

// Run executes the consensus round and emits progress on stream. Every
// selected model runs concurrently; the run waits for all of them before
// tallying. It fails only when no model at all produced a decision.
func (o *Orchestrator) Run(ctx context.Context, req models.ConsensusRequest, stream *events.Stream) (*models.ConsensusResult, error) {
	if req.Symbol == "" || len(req.SelectedModels) == 0 {
		err := fmt.Errorf("consensus requires a symbol and at least one model")
		stream.Emit(events.Event{Type: events.TypeError, Message: err.Error(), Terminal: true})
		return nil, err
	}

	sessionID := uuid.New().String()

	var researchCtx string
	if o.enricher != nil {
		researchCtx = o.enricher.Context(ctx, req.Symbol, req.ResearchTier)
	}

	prompt := buildDecisionPrompt(req, researchCtx)
	opts := models.QueryOptions{MaxTokens: req.MaxTokens}

	// Slots keep result order aligned with the request; failed models
	// leave a nil slot that is compacted after the join.
	slots := make([]*models.Decision, len(req.SelectedModels))
	var wg sync.WaitGroup
	for i, id := range req.SelectedModels {
		wg.Add(1)
		go func(i int, id models.ModelID) {
			defer wg.Done()
			slots[i] = o.decide(ctx, id, prompt, opts, req.Symbol, stream)
		}(i, id)
	}
	wg.Wait()

	var decisions []models.Decision
	for _, d := range slots {
		if d != nil {
			decisions = append(decisions, *d)
		}
	}

	if len(decisions) == 0 {
		err := fmt.Errorf("no model produced a decision for %s", req.Symbol)
		stream.Emit(events.Event{Type: events.TypeError, Message: err.Error(), Terminal: true})
		return nil, err
	}

	tally := Tally(decisions)
	verdict := o.adjudicate(ctx, req, decisions, tally, stream)

	result := &models.ConsensusResult{
		SessionID:       sessionID,
		Symbol:          req.Symbol,
		Decisions:       decisions,
		Tally:           tally,
		ConsensusAction: ConsensusAction(tally),
		AgreementLevel:  AgreementLevel(tally),
		Verdict:         verdict,
		ResearchSummary: researchCtx,
	}
	stream.Emit(events.Event{Type: events.TypeFinalResult, Consensus: result, Tally: &tally})
	return result, nil
}

// decide runs one model's decision task, walking its fallback chain.
// Returns nil when every candidate failed; the model simply casts no vote.
func (o *Orchestrator) decide(ctx context.Context, primary models.ModelID, prompt string, opts models.QueryOptions, symbol string, stream *events.Stream) *models.Decision {
	stream.Emit(events.Event{Type: events.TypeDecisionStart, Model: &primary})

	result, usedModel := o.queryWithFallback(ctx, primary, prompt, opts, stream)
	if result == nil {
		return nil
	}

	decision := parseDecision(result.Text, symbol)
	decision.Model = usedModel
	decision.ProviderType = o.querier.ProviderType(usedModel)

	stream.Emit(events.Event{
		Type:       events.TypeDecisionComplete,
		Model:      &usedModel,
		Decision:   decision,
		TokensUsed: result.Usage.Total,
	})
	return decision
}

func (o *Orchestrator) queryWithFallback(ctx context.Context, primary models.ModelID, prompt string, opts models.QueryOptions, stream *events.Stream) (*models.QueryResult, models.ModelID) {
	attempted := map[models.ModelID]bool{}
	current := primary
	var lastErr string

	for hop := 0; hop <= fallback.MaxHops; hop++ {
		attempted[current] = true
		result := o.querier.Query(ctx, current, prompt, opts)
		if !result.Failed() {
			return result, current
		}

		lastErr = result.ErrorMessage
		if lastErr == "" {
			lastErr = "empty response"
		}
		o.resolver.RecordFailure(current, lastErr)
		log.Printf("consensus: %s failed: %s", current, lastErr)

		next, ok := o.resolver.NextFallback(current, attempted)
		if !ok {
			break
		}
		// Every failed hop is announced before the next candidate runs,
		// naming the model that failed and the one taking over.
		failed := current
		cls := taxonomy.Classify(lastErr)
		stream.Emit(events.Event{
			Type:     events.TypeFallback,
			Model:    &failed,
			Fallback: &next,
			Message:  cls.UserMessage,
			Category: string(cls.Category),
			Color:    cls.DisplayColor,
		})
		current = next
	}

	cls := taxonomy.Classify(lastErr)
	stream.Emit(events.Event{
		Type:     events.TypeError,
		Model:    &primary,
		Message:  cls.UserMessage,
		Category: string(cls.Category),
		Color:    cls.DisplayColor,
	})
	return nil, models.ModelID{}
}

// adjudicate runs the judge phase. A failed or unparsable judge degrades
// to a tally-derived verdict; the verdict is never nil.
func (o *Orchestrator) adjudicate(ctx context.Context, req models.ConsensusRequest, decisions []models.Decision, tally models.VoteTally, stream *events.Stream) *models.JudgeVerdict {
	stream.Emit(events.Event{Type: events.TypeJudgeStart, Model: &o.judge, Tally: &tally})

	prompt := buildJudgePrompt(req, decisions, tally)
	result, _ := o.queryWithFallback(ctx, o.judge, prompt, models.QueryOptions{MaxTokens: req.MaxTokens}, stream)

	verdict := tallyVerdict(req.Symbol, tally)
	if result != nil {
		if parsed := parseVerdict(result.Text, req.Symbol); parsed != nil {
			verdict = parsed
		} else {
			log.Printf("consensus: judge reply unparsable, using tally verdict")
		}
	}

	stream.Emit(events.Event{Type: events.TypeJudgeComplete, Verdict: verdict})
	return verdict
}

type decisionPayload struct {
	Action     string          `json:"action"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
}

// parseDecision extracts a decision from noisy model output. A reply with
// no recoverable JSON, or JSON with no action, still counts as a vote: it
// becomes a zero-quantity HOLD carrying the reply as reasoning.
func parseDecision(text, symbol string) *models.Decision {
	decision := &models.Decision{
		Action:   models.ActionHold,
		Symbol:   symbol,
		Quantity: decimal.Zero,
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(jsonrepair.Extract(text)), &payload); err != nil {
		decision.Reasoning = strings.TrimSpace(text)
		return decision
	}

	decision.Reasoning = strings.TrimSpace(payload.Reasoning)
	if decision.Reasoning == "" {
		decision.Reasoning = strings.TrimSpace(text)
	}
	decision.Confidence = payload.Confidence
	if payload.Symbol != "" {
		decision.Symbol = payload.Symbol
	}
	if payload.Action != "" {
		decision.Action = normalizeAction(payload.Action)
	}
	if decision.Action != models.ActionHold {
		decision.Quantity = payload.Quantity
	}
	return decision
}

type verdictPayload struct {
	BestAction       string          `json:"best_action"`
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnifiedReasoning string          `json:"unified_reasoning"`
	Confidence       float64         `json:"confidence"`
	RiskLevel        string          `json:"risk_level"`
}

// parseVerdict returns nil when the judge reply has no recoverable
// verdict; the caller falls back to the tally.
func parseVerdict(text, symbol string) *models.JudgeVerdict {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(jsonrepair.Extract(text)), &payload); err != nil {
		return nil
	}
	if payload.BestAction == "" {
		return nil
	}

	verdict := &models.JudgeVerdict{
		BestAction:       normalizeAction(payload.BestAction),
		Symbol:           payload.Symbol,
		Quantity:         payload.Quantity,
		UnifiedReasoning: strings.TrimSpace(payload.UnifiedReasoning),
		Confidence:       payload.Confidence,
		RiskLevel:        strings.ToLower(strings.TrimSpace(payload.RiskLevel)),
	}
	if verdict.Symbol == "" {
		verdict.Symbol = symbol
	}
	return verdict
}
