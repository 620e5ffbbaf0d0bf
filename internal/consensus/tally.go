// Package consensus runs the parallel trading consensus: every selected
// model decides independently and concurrently, votes are tallied, and a
// judge model unifies the surviving decisions into one verdict.
package consensus

import (
	"fmt"
	"strings"

	"github.com/quorumtrade/quorum/internal/models"
)

// Tally counts the categorical votes in a decision set. Unrecognized
// actions were already coerced to HOLD upstream, so every decision counts.
func Tally(decisions []models.Decision) models.VoteTally {
	var t models.VoteTally
	for _, d := range decisions {
		switch d.Action {
		case models.ActionBuy:
			t.Buy++
		case models.ActionSell:
			t.Sell++
		default:
			t.Hold++
		}
	}
	return t
}

// ConsensusAction resolves the tally to a single action. Only a strict
// majority wins; any tie, including a three-way split, resolves to HOLD
// because HOLD is the only action that is safe without agreement.
func ConsensusAction(t models.VoteTally) string {
	total := t.Total()
	if total == 0 {
		return models.ActionHold
	}
	action, votes := models.ActionHold, t.Hold
	if t.Buy > votes {
		action, votes = models.ActionBuy, t.Buy
	}
	if t.Sell > votes {
		action, votes = models.ActionSell, t.Sell
	}
	if 2*votes > total {
		return action
	}
	return models.ActionHold
}

// AgreementLevel maps the winning vote share to a coarse tier rather than
// reporting the raw ratio: 0.9 for near-unanimity (share >= 0.75), 0.7
// for a majority (share >= 0.5), 0.4 otherwise. Boundaries are inclusive.
func AgreementLevel(t models.VoteTally) float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	max := t.Buy
	if t.Sell > max {
		max = t.Sell
	}
	if t.Hold > max {
		max = t.Hold
	}
	share := float64(max) / float64(total)
	switch {
	case share >= 0.75:
		return 0.9
	case share >= 0.5:
		return 0.7
	default:
		return 0.4
	}
}

// tallyVerdict synthesizes a verdict directly from the tally when the
// judge is unavailable. Confidence 0 signals that no model stands behind
// the unification.
func tallyVerdict(symbol string, tally models.VoteTally) *models.JudgeVerdict {
	return &models.JudgeVerdict{
		BestAction: ConsensusAction(tally),
		Symbol:     symbol,
		UnifiedReasoning: fmt.Sprintf(
			"Judge unavailable; verdict derived from the vote tally alone (BUY %d / SELL %d / HOLD %d).",
			tally.Buy, tally.Sell, tally.Hold),
		Confidence: 0,
		RiskLevel:  "unknown",
	}
}

// normalizeAction coerces free-form model output to a valid action.
// Anything unrecognized becomes HOLD.
func normalizeAction(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case models.ActionBuy, "LONG":
		return models.ActionBuy
	case models.ActionSell, "SHORT":
		return models.ActionSell
	default:
		return models.ActionHold
	}
}
