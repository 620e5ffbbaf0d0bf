// Package display renders orchestration progress and results for the
// terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)
)

func actionStyle(action string) lipgloss.Style {
	switch action {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderEvent returns one progress line for a live event, or "" for
// events that have no terminal representation.
func RenderEvent(e events.Event) string {
	switch e.Type {
	case events.TypeRoundStarted:
		return titleStyle.Render(fmt.Sprintf("Round %d", e.Round))
	case events.TypeModelStarted:
		return dimStyle.Render(fmt.Sprintf("  %s (%s) thinking...", e.AgentID, e.Model))
	case events.TypeModelCompleted:
		return fmt.Sprintf("  %s done (%d tokens)", e.AgentID, e.TokensUsed)
	case events.TypeFallbackUsed:
		return warnStyle.Render(fmt.Sprintf("  %s unavailable, %s answered instead", e.Model, e.Fallback))
	case events.TypeFallback:
		return warnStyle.Render(fmt.Sprintf("  %s unavailable, trying %s", e.Model, e.Fallback))
	case events.TypeModelError:
		return errStyle.Render(fmt.Sprintf("  %s: %s", e.AgentID, e.Message))
	case events.TypeWarning:
		return warnStyle.Render("  " + e.Message)
	case events.TypeWebSearchCompleted:
		return dimStyle.Render(fmt.Sprintf("  web search done (%d queries)", len(e.Queries)))
	case events.TypeDecisionStart:
		return dimStyle.Render(fmt.Sprintf("  %s deciding...", e.Model))
	case events.TypeDecisionComplete:
		if e.Decision != nil {
			return fmt.Sprintf("  %s votes %s", e.Model, actionStyle(e.Decision.Action).Render(e.Decision.Action))
		}
	case events.TypeJudgeStart:
		return titleStyle.Render("Judging")
	case events.TypeError:
		if e.Terminal {
			return errStyle.Render("error: " + e.Message)
		}
		return errStyle.Render("  " + e.Message)
	}
	return ""
}

// RenderSynthesis renders a finished debate.
func RenderSynthesis(query string, report *models.SynthesisReport) string {
	if report == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Question: "))
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Conclusion"))
	b.WriteString("\n")
	b.WriteString(report.Conclusion)
	b.WriteString("\n")

	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		for _, item := range items {
			b.WriteString("  - " + item + "\n")
		}
	}
	writeList("Agreements", report.Agreements)
	writeList("Disagreements", report.Disagreements)
	writeList("Open questions", report.FollowUpQuestions)

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Confidence: %d/100", report.Confidence)))

	return panelStyle.Render(b.String())
}

// RenderConsensus renders a finished consensus round.
func RenderConsensus(result *models.ConsensusResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Symbol: "))
	b.WriteString(result.Symbol)
	b.WriteString("\n\n")

	for _, d := range result.Decisions {
		fmt.Fprintf(&b, "%s  %s (confidence %.2f)\n",
			actionStyle(d.Action).Render(fmt.Sprintf("%-4s", d.Action)), d.Model, d.Confidence)
	}

	fmt.Fprintf(&b, "\n%s BUY %d / SELL %d / HOLD %d\n",
		labelStyle.Render("Tally:"), result.Tally.Buy, result.Tally.Sell, result.Tally.Hold)
	fmt.Fprintf(&b, "%s %s (agreement %.1f)\n",
		labelStyle.Render("Consensus:"),
		actionStyle(result.ConsensusAction).Render(result.ConsensusAction),
		result.AgreementLevel)

	if v := result.Verdict; v != nil {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Verdict"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s, quantity %s, risk %s\n",
			actionStyle(v.BestAction).Render(v.BestAction), v.Symbol, v.Quantity, v.RiskLevel)
		b.WriteString(v.UnifiedReasoning)
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Confidence: %.2f", v.Confidence)))
	}

	return panelStyle.Render(b.String())
}
