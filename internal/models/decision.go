package models

import "github.com/shopspring/decimal"

// Trading actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Decision is one model's resolved trading call in a consensus round.
// Absent entirely when every fallback in the model's chain failed.
type Decision struct {
	Action       string          `json:"action"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reasoning    string          `json:"reasoning"`
	Confidence   float64         `json:"confidence"`
	Model        ModelID         `json:"model"`
	ProviderType string          `json:"provider_type"`
}

// VoteTally counts categorical votes across the decision set.
type VoteTally struct {
	Buy  int `json:"BUY"`
	Sell int `json:"SELL"`
	Hold int `json:"HOLD"`
}

func (t VoteTally) Total() int {
	return t.Buy + t.Sell + t.Hold
}

// JudgeVerdict is the judge model's unified verdict. Never nil on a
// successful consensus run: judge failure synthesizes one from the tally.
type JudgeVerdict struct {
	BestAction       string          `json:"best_action"`
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnifiedReasoning string          `json:"unified_reasoning"`
	Confidence       float64         `json:"confidence"`
	RiskLevel        string          `json:"risk_level"`
}

// SynthesisReport is the parsed structure of a debate synthesis. Missing
// sections yield empty lists/strings, never errors.
type SynthesisReport struct {
	Conclusion        string   `json:"conclusion"`
	Agreements        []string `json:"agreements"`
	Disagreements     []string `json:"disagreements"`
	Confidence        int      `json:"confidence"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Raw               string   `json:"raw,omitempty"`
}
