package debate

import (
	"context"
	"strings"
	"testing"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/fallback"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/taxonomy"
)

// scriptQuerier fails scripted models for round-1 agent prompts and
// answers everything else, including synthesis.
type scriptQuerier struct {
	failRound1 map[models.ModelID]bool
	calls      []models.ModelID
}

func (s *scriptQuerier) Query(ctx context.Context, id models.ModelID, prompt string, opts models.QueryOptions) *models.QueryResult {
	s.calls = append(s.calls, id)

	if strings.Contains(prompt, "Synthesize the debate") {
		return &models.QueryResult{Text: cannedSynthesis, Usage: models.TokenUsage{Total: 50}}
	}
	if s.failRound1[id] && strings.Contains(prompt, "speaking in round 1") {
		return &models.QueryResult{ErrorMessage: "request timed out"}
	}
	return &models.QueryResult{Text: "argument from " + id.String(), Usage: models.TokenUsage{Total: 10}}
}

func (s *scriptQuerier) ProviderType(id models.ModelID) string { return models.ProviderTypeAPI }

const cannedSynthesis = `CONCLUSION:
The agents leaned toward a cautious yes.

AGREEMENTS:
- Momentum is improving

DISAGREEMENTS:
- Valuation risk

CONFIDENCE: 70

FOLLOW-UP QUESTIONS:
- What does next quarter look like?
`

func drain(stream *events.Stream) []events.Event {
	var got []events.Event
	for e := range stream.Events() {
		got = append(got, e)
	}
	return got
}

func testAgents() []models.AgentDescriptor {
	return []models.AgentDescriptor{
		{ID: "judge-1", Role: models.RoleJudge, DisplayName: "Judge", Model: models.ModelID{Provider: "gemini", Model: "gemini-pro"}},
		{ID: "analyst-1", Role: models.RoleAnalyst, DisplayName: "Analyst", Model: models.ModelID{Provider: "openai", Model: "gpt-5"}},
		{ID: "critic-1", Role: models.RoleCritic, DisplayName: "Critic", Model: models.ModelID{Provider: "openai", Model: "mystery-critic"}},
	}
}

func TestDebateCriticFailsRoundOneOnly(t *testing.T) {
	// The critic's primary and its whole (default) fallback chain fail
	// in round 1. Round 1 must end with 2 messages, round 2 with 3, and
	// synthesis must still complete.
	q := &scriptQuerier{failRound1: map[models.ModelID]bool{
		{Provider: "openai", Model: "mystery-critic"}:  true,
		{Provider: "openai", Model: "gpt-4o-mini"}:     true,
		{Provider: "deepseek", Model: "deepseek-chat"}: true,
	}}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.DebateRequest{
		Query:  "Is AAPL a buy?",
		Agents: testAgents(),
		Rounds: 2,
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	round1, round2 := 0, 0
	for _, m := range result.Transcript {
		switch m.Round {
		case 1:
			round1++
		case 2:
			round2++
		}
	}
	if round1 != 2 {
		t.Errorf("round 1 messages = %d, want 2", round1)
	}
	if round2 != 3 {
		t.Errorf("round 2 messages = %d, want 3 (no permanent exclusion after a failed round)", round2)
	}

	if result.Synthesis == nil {
		t.Fatal("synthesis missing")
	}
	if result.Synthesis.Conclusion == "" {
		t.Error("synthesis conclusion empty")
	}
	if result.Synthesis.Confidence != 70 {
		t.Errorf("confidence = %d, want 70", result.Synthesis.Confidence)
	}

	evts := drain(stream)
	var modelErrors, roundStarts int
	var terminal bool
	for _, e := range evts {
		switch e.Type {
		case events.TypeModelError:
			modelErrors++
		case events.TypeRoundStarted:
			roundStarts++
		case events.TypeDebateCompleted:
			terminal = true
		}
	}
	if modelErrors != 1 {
		t.Errorf("model_error events = %d, want 1", modelErrors)
	}
	if roundStarts != 2 {
		t.Errorf("round_started events = %d, want 2", roundStarts)
	}
	if !terminal {
		t.Error("missing terminal debate_completed event")
	}
}

func TestDebateTranscriptOrder(t *testing.T) {
	q := &scriptQuerier{}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.DebateRequest{
		Query:  "test",
		Agents: testAgents(),
		Rounds: 2,
	}, stream)
	stream.Close()
	drain(stream)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Round-then-agent order with analyst < critic < judge inside each
	// round, regardless of request order.
	want := []string{"analyst-1", "critic-1", "judge-1", "analyst-1", "critic-1", "judge-1"}
	if len(result.Transcript) != len(want) {
		t.Fatalf("transcript length = %d, want %d", len(result.Transcript), len(want))
	}
	for i, m := range result.Transcript {
		if m.AgentID != want[i] {
			t.Errorf("transcript[%d] = %s, want %s", i, m.AgentID, want[i])
		}
		wantRound := i/3 + 1
		if m.Round != wantRound {
			t.Errorf("transcript[%d] round = %d, want %d", i, m.Round, wantRound)
		}
	}

	// Every message appears exactly once in the formatted transcript.
	formatted := FormatTranscript(result.Transcript)
	for _, m := range result.Transcript {
		if strings.Count(formatted, m.Content) != 1 {
			t.Errorf("message %q not present exactly once", m.Content)
		}
	}
}

func TestDebateFallbackUsedEvent(t *testing.T) {
	// Primary fails, first chain entry succeeds.
	q := &scriptQuerier{failRound1: map[models.ModelID]bool{
		{Provider: "openai", Model: "mystery-critic"}: true,
	}}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	_, err := o.Run(context.Background(), models.DebateRequest{
		Query: "test",
		Agents: []models.AgentDescriptor{
			{ID: "critic-1", Role: models.RoleCritic, Model: models.ModelID{Provider: "openai", Model: "mystery-critic"}},
		},
		Rounds: 1,
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sawFallback bool
	for _, e := range drain(stream) {
		if e.Type == events.TypeFallbackUsed {
			sawFallback = true
			if e.Fallback == nil || e.Fallback.Model != "gpt-4o-mini" {
				t.Errorf("fallback event should name the surviving model, got %+v", e.Fallback)
			}
		}
	}
	if !sawFallback {
		t.Error("expected a fallback_used event")
	}
}

func TestDebateUnstableWarningCategory(t *testing.T) {
	// A model past the failure threshold still answers on the first try;
	// the warning must carry its last recorded failure category, not a
	// classification of the empty error from the successful call.
	resolver := fallback.NewResolver(nil)
	gemini := models.ModelID{Provider: "gemini", Model: "gemini-pro"}
	for i := 0; i < fallback.DefaultThreshold; i++ {
		resolver.RecordFailure(gemini, "rate limit exceeded")
	}

	o := NewOrchestrator(&scriptQuerier{}, resolver, nil)

	stream := events.NewStream()
	_, err := o.Run(context.Background(), models.DebateRequest{
		Query:  "test",
		Agents: []models.AgentDescriptor{{ID: "analyst-1", Role: models.RoleAnalyst, Model: gemini}},
		Rounds: 1,
	}, stream)
	stream.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var warnings []events.Event
	for _, e := range drain(stream) {
		if e.Type == events.TypeWarning {
			warnings = append(warnings, e)
		}
	}
	if len(warnings) == 0 {
		t.Fatal("expected an instability warning")
	}
	if got := warnings[0].Category; got != string(taxonomy.RateLimit) {
		t.Errorf("warning category = %q, want %q", got, taxonomy.RateLimit)
	}
}

func TestDebateNoAgents(t *testing.T) {
	o := NewOrchestrator(&scriptQuerier{}, fallback.NewResolver(nil), nil)
	stream := events.NewStream()
	if _, err := o.Run(context.Background(), models.DebateRequest{Query: "x"}, stream); err == nil {
		t.Fatal("expected error for empty agent set")
	}
	stream.Close()

	evts := drain(stream)
	if len(evts) == 0 || !evts[len(evts)-1].IsTerminal() {
		t.Fatal("empty agent set must still end with a terminal error event")
	}
}

func TestSynthesisCascadeToDeterministicFallback(t *testing.T) {
	// Synthesis models all fail; agents succeed. The report must be
	// synthesized deterministically from the transcript, never nil.
	q := &failingSynthesisQuerier{}
	o := NewOrchestrator(q, fallback.NewResolver(nil), nil)

	stream := events.NewStream()
	result, err := o.Run(context.Background(), models.DebateRequest{
		Query: "test",
		Agents: []models.AgentDescriptor{
			{ID: "analyst-1", Role: models.RoleAnalyst, Model: models.ModelID{Provider: "gemini", Model: "gemini-pro"}},
		},
		Rounds: 1,
	}, stream)
	stream.Close()
	drain(stream)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Synthesis == nil || result.Synthesis.Conclusion == "" {
		t.Fatal("deterministic synthesis fallback missing")
	}
	if !strings.Contains(result.Synthesis.Conclusion, "analyst-1") {
		t.Errorf("fallback synthesis should cite the closing agent, got %q", result.Synthesis.Conclusion)
	}
}

type failingSynthesisQuerier struct{}

func (f *failingSynthesisQuerier) Query(ctx context.Context, id models.ModelID, prompt string, opts models.QueryOptions) *models.QueryResult {
	if strings.Contains(prompt, "Synthesize the debate") {
		return &models.QueryResult{ErrorMessage: "rate limit exceeded"}
	}
	return &models.QueryResult{Text: "a thorough argument", Usage: models.TokenUsage{Total: 5}}
}

func (f *failingSynthesisQuerier) ProviderType(id models.ModelID) string {
	return models.ProviderTypeAPI
}
