package taxonomy

import "strings"

// Category is an error taxonomy entry.
type Category string

const (
	RateLimit     Category = "RATE_LIMIT"
	BudgetLimit   Category = "BUDGET_LIMIT"
	Timeout       Category = "TIMEOUT"
	EmptyResponse Category = "EMPTY_RESPONSE"
	AuthConfig    Category = "AUTH_CONFIG"
	ParseFailure  Category = "PARSE_FAILURE"
	Unknown       Category = "UNKNOWN"
)

// Classification is advisory/diagnostic only; it never blocks fallback.
type Classification struct {
	Category     Category `json:"category"`
	UserMessage  string   `json:"user_message"`
	Retryable    bool     `json:"retryable"`
	DisplayColor string   `json:"display_color"`
}

type signature struct {
	phrases      []string
	category     Category
	userMessage  string
	retryable    bool
	displayColor string
}

// Ordered: first match wins. Rate limits before budget because some
// providers mention "quota" in both.
var signatures = []signature{
	{
		phrases:      []string{"rate limit", "rate_limit", "429", "too many requests", "requests per minute", "tpm", "rpm"},
		category:     RateLimit,
		userMessage:  "Model is rate limited, trying an alternative",
		retryable:    true,
		displayColor: "yellow",
	},
	{
		phrases:      []string{"quota", "credit", "billing", "budget", "insufficient funds", "payment required", "402"},
		category:     BudgetLimit,
		userMessage:  "Model quota exhausted, trying an alternative",
		retryable:    false,
		displayColor: "red",
	},
	{
		phrases:      []string{"timeout", "timed out", "deadline exceeded", "context canceled", "connection reset", "econnreset"},
		category:     Timeout,
		userMessage:  "Model took too long to answer, trying an alternative",
		retryable:    true,
		displayColor: "orange",
	},
	{
		phrases:      []string{"empty response", "no response", "empty completion", "blank output", "returned nothing"},
		category:     EmptyResponse,
		userMessage:  "Model returned an empty answer, trying an alternative",
		retryable:    true,
		displayColor: "orange",
	},
	{
		phrases:      []string{"api key", "unauthorized", "401", "403", "forbidden", "not configured", "missing credential", "invalid_api_key"},
		category:     AuthConfig,
		userMessage:  "Model is not configured correctly",
		retryable:    false,
		displayColor: "red",
	},
	{
		phrases:      []string{"parse", "unmarshal", "invalid json", "malformed", "unexpected token"},
		category:     ParseFailure,
		userMessage:  "Model answer could not be parsed",
		retryable:    true,
		displayColor: "orange",
	},
}

// Classify maps a raw error string to a taxonomy entry. It is total:
// any input, including empty, yields a usable classification.
func Classify(errMsg string) Classification {
	lowered := strings.ToLower(strings.TrimSpace(errMsg))
	if lowered == "" {
		return Classification{
			Category:     EmptyResponse,
			UserMessage:  "Model returned an empty answer, trying an alternative",
			Retryable:    true,
			DisplayColor: "orange",
		}
	}

	for _, sig := range signatures {
		for _, phrase := range sig.phrases {
			if strings.Contains(lowered, phrase) {
				return Classification{
					Category:     sig.category,
					UserMessage:  sig.userMessage,
					Retryable:    sig.retryable,
					DisplayColor: sig.displayColor,
				}
			}
		}
	}

	return Classification{
		Category:     Unknown,
		UserMessage:  "Model call failed, trying an alternative",
		Retryable:    true,
		DisplayColor: "gray",
	}
}
