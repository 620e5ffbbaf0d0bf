package debate

import (
	"strings"
	"testing"

	"github.com/quorumtrade/quorum/internal/models"
)

func TestParseSynthesisLabeledSections(t *testing.T) {
	text := `CONCLUSION:
The debate supports a cautious yes.

AGREEMENTS:
- Revenue growth is real
- Margins are stable

DISAGREEMENTS:
1. Valuation multiple
2) Competitive moat

CONFIDENCE: 85

FOLLOW-UP QUESTIONS:
- How does guidance change next quarter?
`
	r := ParseSynthesis(text)
	if r.Conclusion != "The debate supports a cautious yes." {
		t.Errorf("conclusion = %q", r.Conclusion)
	}
	if len(r.Agreements) != 2 || r.Agreements[1] != "Margins are stable" {
		t.Errorf("agreements = %v", r.Agreements)
	}
	if len(r.Disagreements) != 2 || r.Disagreements[0] != "Valuation multiple" {
		t.Errorf("disagreements = %v", r.Disagreements)
	}
	if r.Confidence != 85 {
		t.Errorf("confidence = %d, want 85", r.Confidence)
	}
	if len(r.FollowUpQuestions) != 1 {
		t.Errorf("follow-ups = %v", r.FollowUpQuestions)
	}
}

func TestParseSynthesisMarkdownHeadings(t *testing.T) {
	text := "## Conclusion\nBuy the dip.\n\n**Agreements:**\n* fundamentals hold\n\n### Confidence: 60\n"
	r := ParseSynthesis(text)
	if r.Conclusion != "Buy the dip." {
		t.Errorf("conclusion = %q", r.Conclusion)
	}
	if len(r.Agreements) != 1 || r.Agreements[0] != "fundamentals hold" {
		t.Errorf("agreements = %v", r.Agreements)
	}
	if r.Confidence != 60 {
		t.Errorf("confidence = %d, want 60", r.Confidence)
	}
}

func TestParseSynthesisUnstructured(t *testing.T) {
	r := ParseSynthesis("The models mostly agreed that the outlook is positive.")
	if r.Conclusion != "The models mostly agreed that the outlook is positive." {
		t.Errorf("unstructured reply should become the conclusion, got %q", r.Conclusion)
	}
	if r.Confidence != 0 {
		t.Errorf("confidence = %d, want 0 when absent", r.Confidence)
	}
	if r.Agreements == nil || r.Disagreements == nil || r.FollowUpQuestions == nil {
		t.Error("list fields must be empty slices, not nil")
	}
}

func TestParseSynthesisMissingSections(t *testing.T) {
	r := ParseSynthesis("CONCLUSION: short answer\n")
	if r.Conclusion != "short answer" {
		t.Errorf("conclusion = %q", r.Conclusion)
	}
	if len(r.Agreements) != 0 || len(r.Disagreements) != 0 {
		t.Errorf("missing sections should stay empty, got %v / %v", r.Agreements, r.Disagreements)
	}
}

func TestParseConfidenceClamped(t *testing.T) {
	if got := ParseSynthesis("CONFIDENCE: 250").Confidence; got != 100 {
		t.Errorf("confidence = %d, want clamp to 100", got)
	}
}

func TestFallbackSynthesis(t *testing.T) {
	transcript := []models.RoundMessage{
		{AgentID: "analyst-1", Round: 1, Content: "opening view"},
		{AgentID: "judge-1", Round: 2, Content: "the final weighing of arguments"},
	}
	r := fallbackSynthesis(transcript)
	if r.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", r.Confidence)
	}
	if r.Conclusion == "" {
		t.Fatal("conclusion empty")
	}
	// The closing agent's statement is what stands in for synthesis.
	if !strings.Contains(r.Conclusion, "judge-1") {
		t.Errorf("conclusion %q should cite judge-1", r.Conclusion)
	}

	empty := fallbackSynthesis(nil)
	if empty.Conclusion == "" {
		t.Error("empty transcript still needs a conclusion")
	}
}
