package consensus

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/fallback"
	"github.com/quorumtrade/quorum/internal/models"
)

// stubQuerier answers from a fixed reply table; any model absent from the
// table fails. The judge prompt is routed to its own reply.
type stubQuerier struct {
	mu         sync.Mutex
	replies    map[models.ModelID]string
	judgeReply string
	calls      int
}

func (s *stubQuerier) Query(ctx context.Context, id models.ModelID, prompt string, opts models.QueryOptions) *models.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if strings.Contains(prompt, "risk judge") {
		if s.judgeReply == "" {
			return &models.QueryResult{ErrorMessage: "rate limit exceeded"}
		}
		return &models.QueryResult{Text: s.judgeReply, Usage: models.TokenUsage{Total: 30}}
	}
	if reply, ok := s.replies[id]; ok {
		return &models.QueryResult{Text: reply, Usage: models.TokenUsage{Total: 20}}
	}
	return &models.QueryResult{ErrorMessage: "rate limit exceeded"}
}

func (s *stubQuerier) ProviderType(id models.ModelID) string { return models.ProviderTypeAPI }

func drain(stream *events.Stream) []events.Event {
	var got []events.Event
	for e := range stream.Events() {
		got = append(got, e)
	}
	return got
}

var (
	gpt5     = models.ModelID{Provider: "openai", Model: "gpt-5"}
	deepseek = models.ModelID{Provider: "deepseek", Model: "deepseek-chat"}
	gemini   = models.ModelID{Provider: "gemini", Model: "gemini-pro"}
	claude   = models.ModelID{Provider: "anthropic", Model: "claude-sonnet"}
)

const buyReply = `{"action": "BUY", "symbol": "AAPL", "quantity": 10, "reasoning": "strong momentum", "confidence": 0.8}`
const holdReply = `{"action": "HOLD", "symbol": "AAPL", "quantity": 0, "reasoning": "wait for earnings", "confidence": 0.6}`

func TestConsensusAllModelsSucceed(t *testing.T) {
	q := &stubQuerier{
		replies: map[models.ModelID]string{
			gpt5:     buyReply,
			deepseek: buyReply,
			gemini:   holdReply,
		},
		judgeReply: `{"best_action": "BUY", "symbol": "AAPL", "quantity": 8, "unified_reasoning": "two of three see upside", "confidence": 0.75, "risk_level": "medium"}`,
	}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.ConsensusRequest{
		Symbol:         "AAPL",
		SelectedModels: []models.ModelID{gpt5, deepseek, gemini},
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Decisions) != 3 {
		t.Fatalf("decisions = %d, want 3", len(result.Decisions))
	}
	if result.Tally.Buy != 2 || result.Tally.Hold != 1 || result.Tally.Sell != 0 {
		t.Errorf("tally = %+v, want 2 BUY / 1 HOLD", result.Tally)
	}
	if result.ConsensusAction != models.ActionBuy {
		t.Errorf("consensus action = %s, want BUY (strict majority)", result.ConsensusAction)
	}
	if result.AgreementLevel != 0.7 {
		t.Errorf("agreement = %v, want 0.7 for a 2/3 majority", result.AgreementLevel)
	}
	if result.Verdict == nil || result.Verdict.BestAction != models.ActionBuy {
		t.Fatalf("verdict = %+v, want judge BUY", result.Verdict)
	}
	if result.Verdict.RiskLevel != "medium" {
		t.Errorf("risk level = %s", result.Verdict.RiskLevel)
	}

	// Decisions keep the request order even though tasks are concurrent.
	for i, want := range []models.ModelID{gpt5, deepseek, gemini} {
		if result.Decisions[i].Model != want {
			t.Errorf("decisions[%d].Model = %s, want %s", i, result.Decisions[i].Model, want)
		}
	}

	evts := drain(stream)
	var starts, completes, judgeStarts int
	for _, e := range evts {
		switch e.Type {
		case events.TypeDecisionStart:
			starts++
		case events.TypeDecisionComplete:
			completes++
		case events.TypeJudgeStart:
			judgeStarts++
		}
	}
	if starts != 3 || completes != 3 {
		t.Errorf("decision events = %d/%d, want 3/3", starts, completes)
	}
	if judgeStarts != 1 {
		t.Errorf("judge_start events = %d, want 1", judgeStarts)
	}
	last := evts[len(evts)-1]
	if last.Type != events.TypeFinalResult || !last.IsTerminal() {
		t.Errorf("last event = %s, want terminal final_result", last.Type)
	}
}

func TestConsensusSingleSurvivor(t *testing.T) {
	// gemini-pro and claude-sonnet fail with their whole chains; only
	// gpt-5 answers. One vote is still a run, never an error.
	q := &stubQuerier{replies: map[models.ModelID]string{gpt5: buyReply}}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.ConsensusRequest{
		Symbol:         "AAPL",
		SelectedModels: []models.ModelID{gemini, gpt5, claude},
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(result.Decisions))
	}
	if result.ConsensusAction != models.ActionBuy {
		t.Errorf("consensus action = %s, want BUY", result.ConsensusAction)
	}
	if result.AgreementLevel != 0.9 {
		t.Errorf("agreement = %v, want 0.9 for a single unanimous vote", result.AgreementLevel)
	}
	// Judge (and its chain) is not in the reply table, so the verdict
	// must be tally-derived.
	if result.Verdict == nil || result.Verdict.Confidence != 0 {
		t.Fatalf("verdict = %+v, want tally verdict with confidence 0", result.Verdict)
	}

	var modelErrors int
	var terminal bool
	for _, e := range drain(stream) {
		if e.Type == events.TypeError && !e.Terminal {
			modelErrors++
		}
		if e.IsTerminal() {
			terminal = true
		}
	}
	// Two failed decision tasks plus the exhausted judge.
	if modelErrors != 3 {
		t.Errorf("non-terminal error events = %d, want 3", modelErrors)
	}
	if !terminal {
		t.Error("missing terminal event")
	}
}

func TestConsensusZeroSurvivors(t *testing.T) {
	q := &stubQuerier{}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	_, err := o.Run(context.Background(), models.ConsensusRequest{
		Symbol:         "AAPL",
		SelectedModels: []models.ModelID{gemini, claude},
	}, stream)
	stream.Close()
	if err == nil {
		t.Fatal("expected error when every model fails")
	}

	evts := drain(stream)
	for _, e := range evts {
		if e.Type == events.TypeJudgeStart {
			t.Error("judge must not run with zero decisions")
		}
	}
	last := evts[len(evts)-1]
	if last.Type != events.TypeError || !last.Terminal {
		t.Errorf("last event = %+v, want terminal error", last)
	}
}

func TestConsensusFallbackVote(t *testing.T) {
	// claude-sonnet fails but its first chain entry answers; the
	// decision must carry the model that actually produced it.
	haiku := models.ModelID{Provider: "anthropic", Model: "claude-haiku"}
	q := &stubQuerier{replies: map[models.ModelID]string{haiku: holdReply}}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.ConsensusRequest{
		Symbol:         "AAPL",
		SelectedModels: []models.ModelID{claude},
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Decisions) != 1 || result.Decisions[0].Model != haiku {
		t.Fatalf("decision model = %+v, want claude-haiku", result.Decisions)
	}

	var sawFallback bool
	for _, e := range drain(stream) {
		if e.Type == events.TypeFallback {
			sawFallback = true
			if e.Model == nil || *e.Model != claude || e.Fallback == nil || *e.Fallback != haiku {
				t.Errorf("fallback event = %+v", e)
			}
		}
	}
	if !sawFallback {
		t.Error("expected a fallback event")
	}
}

func TestConsensusFallbackPerHop(t *testing.T) {
	// gpt-5 and gpt-5-mini both fail; gpt-4.1 answers on the second hop.
	// One fallback event per failed hop, each naming the model that failed
	// and the candidate taking over, emitted while the chain is walked.
	gpt5mini := models.ModelID{Provider: "openai", Model: "gpt-5-mini"}
	gpt41 := models.ModelID{Provider: "openai", Model: "gpt-4.1"}
	q := &stubQuerier{
		replies:    map[models.ModelID]string{gpt41: buyReply},
		judgeReply: `{"best_action": "BUY", "symbol": "AAPL", "quantity": 5, "unified_reasoning": "lone voter", "confidence": 0.6, "risk_level": "low"}`,
	}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.ConsensusRequest{
		Symbol:         "AAPL",
		SelectedModels: []models.ModelID{gpt5},
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Decisions) != 1 || result.Decisions[0].Model != gpt41 {
		t.Fatalf("decision model = %+v, want gpt-4.1", result.Decisions)
	}

	var hops []events.Event
	for _, e := range drain(stream) {
		if e.Type == events.TypeFallback {
			hops = append(hops, e)
		}
	}
	if len(hops) != 2 {
		t.Fatalf("fallback events = %d, want one per failed hop (2)", len(hops))
	}
	wantHops := []struct{ failed, next models.ModelID }{
		{gpt5, gpt5mini},
		{gpt5mini, gpt41},
	}
	for i, want := range wantHops {
		if hops[i].Model == nil || *hops[i].Model != want.failed {
			t.Errorf("hop %d failed model = %v, want %s", i, hops[i].Model, want.failed)
		}
		if hops[i].Fallback == nil || *hops[i].Fallback != want.next {
			t.Errorf("hop %d next model = %v, want %s", i, hops[i].Fallback, want.next)
		}
	}
}

func TestConsensusRejectsEmptyRequest(t *testing.T) {
	o := NewOrchestrator(&stubQuerier{}, fallback.NewResolver(nil), nil)
	stream := events.NewStream()
	if _, err := o.Run(context.Background(), models.ConsensusRequest{Symbol: "AAPL"}, stream); err == nil {
		t.Fatal("expected error for empty model set")
	}
	stream.Close()
}
