package consensus

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/quorum/internal/models"
)

func decisionsFor(actions ...string) []models.Decision {
	ds := make([]models.Decision, len(actions))
	for i, a := range actions {
		ds[i] = models.Decision{Action: a, Symbol: "AAPL"}
	}
	return ds
}

func TestConsensusAction(t *testing.T) {
	cases := []struct {
		name    string
		actions []string
		want    string
	}{
		{"unanimous buy", []string{models.ActionBuy, models.ActionBuy}, models.ActionBuy},
		{"majority sell", []string{models.ActionSell, models.ActionSell, models.ActionBuy}, models.ActionSell},
		{"three way split holds", []string{models.ActionBuy, models.ActionSell, models.ActionHold}, models.ActionHold},
		{"two way tie holds", []string{models.ActionBuy, models.ActionBuy, models.ActionSell, models.ActionSell}, models.ActionHold},
		{"plurality without majority holds", []string{models.ActionBuy, models.ActionBuy, models.ActionSell, models.ActionHold}, models.ActionHold},
		{"single voter", []string{models.ActionSell}, models.ActionSell},
		{"empty", nil, models.ActionHold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ConsensusAction(Tally(decisionsFor(tc.actions...)))
			if got != tc.want {
				t.Errorf("ConsensusAction = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAgreementLevel(t *testing.T) {
	cases := []struct {
		name    string
		actions []string
		want    float64
	}{
		{"unanimous", []string{models.ActionBuy, models.ActionBuy, models.ActionBuy}, 0.9},
		{"exactly three quarters", []string{models.ActionBuy, models.ActionBuy, models.ActionBuy, models.ActionSell}, 0.9},
		{"four fifths", []string{models.ActionBuy, models.ActionBuy, models.ActionBuy, models.ActionBuy, models.ActionSell}, 0.9},
		{"three fifths", []string{models.ActionBuy, models.ActionBuy, models.ActionBuy, models.ActionSell, models.ActionHold}, 0.7},
		{"exactly half", []string{models.ActionBuy, models.ActionBuy, models.ActionSell, models.ActionHold}, 0.7},
		{"three way split", []string{models.ActionBuy, models.ActionSell, models.ActionHold}, 0.4},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AgreementLevel(Tally(decisionsFor(tc.actions...)))
			if got != tc.want {
				t.Errorf("AgreementLevel = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		d := parseDecision("```json\n{\"action\": \"buy\", \"symbol\": \"TSLA\", \"quantity\": 10, \"reasoning\": \"momentum\", \"confidence\": 0.8}\n```", "AAPL")
		if d.Action != models.ActionBuy {
			t.Errorf("action = %s, want BUY", d.Action)
		}
		if d.Symbol != "TSLA" {
			t.Errorf("symbol = %s, want TSLA (payload overrides request)", d.Symbol)
		}
		if !d.Quantity.Equal(decimal.NewFromInt(10)) {
			t.Errorf("quantity = %s, want 10", d.Quantity)
		}
		if d.Confidence != 0.8 {
			t.Errorf("confidence = %v, want 0.8", d.Confidence)
		}
	})

	t.Run("missing action defaults to hold", func(t *testing.T) {
		d := parseDecision(`{"reasoning": "too uncertain to call"}`, "AAPL")
		if d.Action != models.ActionHold {
			t.Errorf("action = %s, want HOLD", d.Action)
		}
		if d.Reasoning != "too uncertain to call" {
			t.Errorf("reasoning = %q", d.Reasoning)
		}
		if !d.Quantity.IsZero() {
			t.Errorf("quantity = %s, want 0", d.Quantity)
		}
	})

	t.Run("plain prose still votes hold", func(t *testing.T) {
		d := parseDecision("I cannot produce structured output right now.", "AAPL")
		if d.Action != models.ActionHold {
			t.Errorf("action = %s, want HOLD", d.Action)
		}
		if d.Reasoning == "" {
			t.Error("reasoning should carry the raw reply")
		}
		if d.Symbol != "AAPL" {
			t.Errorf("symbol = %s, want request symbol", d.Symbol)
		}
	})

	t.Run("long aliases buy and hold zeroes quantity", func(t *testing.T) {
		d := parseDecision(`{"action": "LONG", "quantity": 5, "reasoning": "x"}`, "AAPL")
		if d.Action != models.ActionBuy {
			t.Errorf("action = %s, want BUY", d.Action)
		}
		d = parseDecision(`{"action": "hold", "quantity": 5, "reasoning": "x"}`, "AAPL")
		if !d.Quantity.IsZero() {
			t.Errorf("HOLD quantity = %s, want 0", d.Quantity)
		}
	})
}

func TestTallyVerdict(t *testing.T) {
	v := tallyVerdict("AAPL", models.VoteTally{Buy: 2, Sell: 1})
	if v.BestAction != models.ActionBuy {
		t.Errorf("best_action = %s, want BUY", v.BestAction)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 for tally-derived verdict", v.Confidence)
	}
	if v.Symbol != "AAPL" {
		t.Errorf("symbol = %s", v.Symbol)
	}
}
