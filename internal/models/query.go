package models

import "strings"

// QueryOptions is passed opaquely to the provider gateway. Orchestrators
// only consult MaxTokens and UseWebSearch for cost and search decisions.
type QueryOptions struct {
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	UseWebSearch bool    `json:"use_web_search"`
	UseTools     bool    `json:"use_tools"`
	MaxSteps     int     `json:"max_steps"`
}

// TokenUsage reports prompt/completion token counts for a single query.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		Prompt:     u.Prompt + other.Prompt,
		Completion: u.Completion + other.Completion,
		Total:      u.Total + other.Total,
	}
}

// QueryResult is the uniform result of one provider call.
type QueryResult struct {
	Text         string     `json:"text"`
	Usage        TokenUsage `json:"token_usage"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Failed is the single gate for triggering fallback: a result failed if
// the provider reported an error or returned only whitespace.
func (r *QueryResult) Failed() bool {
	if r == nil {
		return true
	}
	return r.ErrorMessage != "" || strings.TrimSpace(r.Text) == ""
}
