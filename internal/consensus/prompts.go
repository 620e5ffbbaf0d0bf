package consensus

import (
	"fmt"
	"strings"

	"github.com/quorumtrade/quorum/internal/models"
)

func buildDecisionPrompt(req models.ConsensusRequest, researchCtx string) string {
	var b strings.Builder

	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = "1 day"
	}

	fmt.Fprintf(&b, "You are an independent trading analyst. Decide whether to BUY, SELL, or HOLD %s over a %s horizon.\n\n",
		req.Symbol, timeframe)

	if researchCtx != "" {
		b.WriteString("Market research:\n")
		b.WriteString(researchCtx)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, `Respond with a single JSON object and nothing else:

{
  "action": "BUY" | "SELL" | "HOLD",
  "symbol": "%s",
  "quantity": <number of shares, 0 for HOLD>,
  "reasoning": "<your argument in 2-4 sentences>",
  "confidence": <0.0 to 1.0>
}
`, req.Symbol)

	return b.String()
}

func buildJudgePrompt(req models.ConsensusRequest, decisions []models.Decision, tally models.VoteTally) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Independent analysts voted on %s. Tally: BUY %d, SELL %d, HOLD %d.\n\nTheir decisions:\n\n",
		req.Symbol, tally.Buy, tally.Sell, tally.Hold)

	for _, d := range decisions {
		fmt.Fprintf(&b, "%s voted %s (quantity %s, confidence %.2f):\n%s\n\n",
			d.Model, d.Action, d.Quantity, d.Confidence, d.Reasoning)
	}

	fmt.Fprintf(&b, `You are the risk judge. Weigh the arguments, not just the vote count, and produce the single best unified call.

Respond with a single JSON object and nothing else:

{
  "best_action": "BUY" | "SELL" | "HOLD",
  "symbol": "%s",
  "quantity": <number of shares>,
  "unified_reasoning": "<why this is the best combined call>",
  "confidence": <0.0 to 1.0>,
  "risk_level": "low" | "medium" | "high"
}
`, req.Symbol)

	return b.String()
}
