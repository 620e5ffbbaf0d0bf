package jsonrepair

import (
	"encoding/json"
	"testing"
)

func TestExtractValidPassthrough(t *testing.T) {
	in := `{"action":"BUY","confidence":0.8}`
	if got := Extract(in); got != in {
		t.Fatalf("valid JSON should pass through unchanged, got %q", got)
	}
}

func TestExtractIdempotence(t *testing.T) {
	inputs := []string{
		`{"a":1}`,
		"```json\n{\"a\": {\"b\": 2}}\n```",
		`noise before {"x": "y"} noise after`,
	}
	for _, in := range inputs {
		once := Extract(in)
		twice := Extract(once)
		if once != twice {
			t.Errorf("Extract not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestExtractStripsFences(t *testing.T) {
	in := "```json\n{\"action\": \"HOLD\"}\n```"
	got := Extract(in)
	if !json.Valid([]byte(got)) {
		t.Fatalf("expected valid JSON, got %q", got)
	}
	var parsed map[string]string
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed["action"] != "HOLD" {
		t.Fatalf("unexpected payload: %v", parsed)
	}
}

func TestExtractNestedBracesInStrings(t *testing.T) {
	// A naive first-{/last-} cut breaks here because the reasoning value
	// contains braces and a trailing } appears in prose after the object.
	in := `The decision is {"action":"SELL","reasoning":"pattern {head and shoulders} forming"} as noted}`
	got := Extract(in)
	var parsed struct {
		Action    string `json:"action"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("unmarshal %q: %v", got, err)
	}
	if parsed.Action != "SELL" {
		t.Fatalf("action = %q", parsed.Action)
	}
	if parsed.Reasoning != "pattern {head and shoulders} forming" {
		t.Fatalf("reasoning corrupted: %q", parsed.Reasoning)
	}
}

func TestExtractRepairsTrailingCommas(t *testing.T) {
	in := `{"a": 1, "b": [1, 2, 3,],}`
	got := Extract(in)
	if !json.Valid([]byte(got)) {
		t.Fatalf("expected repaired JSON, got %q", got)
	}
}

func TestExtractRepairsSingleQuotesAndBareKeys(t *testing.T) {
	in := `{action: 'BUY', symbol: 'AAPL'}`
	got := Extract(in)
	var parsed map[string]string
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("unmarshal %q: %v", got, err)
	}
	if parsed["action"] != "BUY" || parsed["symbol"] != "AAPL" {
		t.Fatalf("unexpected payload: %v", parsed)
	}
}

func TestExtractStripsComments(t *testing.T) {
	in := "{\n  \"a\": 1, // inline note\n  /* block */ \"b\": 2\n}"
	got := Extract(in)
	if !json.Valid([]byte(got)) {
		t.Fatalf("expected valid JSON, got %q", got)
	}
}

func TestExtractBalancesTruncatedObject(t *testing.T) {
	in := `{"action": "BUY", "nested": {"q": 10`
	got := Extract(in)
	if !json.Valid([]byte(got)) {
		t.Fatalf("expected balanced JSON, got %q", got)
	}
}

func TestExtractCommentWithURLInString(t *testing.T) {
	in := `{"url": "https://example.com/x", "a": 1}`
	if got := Extract(in); got != in {
		t.Fatalf("URL inside string must survive comment stripping, got %q", got)
	}
}

func TestExtractSimpleSliceRescuesMisleadingBrace(t *testing.T) {
	// The closing brace inside the single-quoted key ends the brace scan
	// early, and the truncated slice cannot be repaired into an object.
	// The first-to-last cut keeps the full payload, which repairs cleanly.
	in := `{'size}': 'large', 'action': 'BUY'}`
	got := Extract(in)
	var parsed map[string]string
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("unmarshal %q: %v", got, err)
	}
	if parsed["action"] != "BUY" {
		t.Fatalf("action = %q, want BUY", parsed["action"])
	}
	if parsed["size}"] != "large" {
		t.Fatalf("key with brace corrupted: %v", parsed)
	}
}

func TestExtractNeverPanicsAndAlwaysReturns(t *testing.T) {
	inputs := []string{"", "no json here", "}{", "```", `{"`, "[1,2,3]"}
	for _, in := range inputs {
		_ = Extract(in)
	}
}

func TestScanObjectUnterminatedString(t *testing.T) {
	got := ScanObject(`{"a": "unterminated`)
	if got == "" {
		t.Fatal("expected partial object back for repair")
	}
}
