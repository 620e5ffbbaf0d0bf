package taxonomy

import "testing"

func TestClassifyKnownSignatures(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"429 Too Many Requests", RateLimit},
		{"openai: rate limit exceeded, retry after 20s", RateLimit},
		{"you have exceeded your monthly quota", BudgetLimit},
		{"insufficient funds on account", BudgetLimit},
		{"context deadline exceeded", Timeout},
		{"request timed out after 120s", Timeout},
		{"provider returned empty response", EmptyResponse},
		{"invalid_api_key: incorrect API key provided", AuthConfig},
		{"401 Unauthorized", AuthConfig},
		{"failed to unmarshal model output", ParseFailure},
		{"unexpected token '<' at position 0", ParseFailure},
		{"something completely novel happened", Unknown},
	}

	for _, tc := range cases {
		got := Classify(tc.msg)
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.msg, got.Category, tc.want)
		}
		if got.UserMessage == "" {
			t.Errorf("Classify(%q) returned empty user message", tc.msg)
		}
		if got.DisplayColor == "" {
			t.Errorf("Classify(%q) returned empty display color", tc.msg)
		}
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	got := Classify("   ")
	if got.Category != EmptyResponse {
		t.Fatalf("expected EMPTY_RESPONSE for blank input, got %s", got.Category)
	}
}

func TestClassifyRetryability(t *testing.T) {
	if !Classify("rate limit hit").Retryable {
		t.Fatal("rate limit should be retryable")
	}
	if Classify("quota exceeded").Retryable {
		t.Fatal("budget limit should not be retryable")
	}
	if Classify("403 forbidden").Retryable {
		t.Fatal("auth failures should not be retryable")
	}
}

func TestClassifyNeverPanics(t *testing.T) {
	inputs := []string{"", "\x00\xff", "{{{{", "multi\nline\nerror", "日本語エラー"}
	for _, in := range inputs {
		_ = Classify(in)
	}
}
