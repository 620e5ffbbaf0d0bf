package models

// DebateRequest starts a sequential multi-round debate.
type DebateRequest struct {
	Query        string            `json:"query"`
	Agents       []AgentDescriptor `json:"agents"`
	Rounds       int               `json:"rounds"`
	ResponseMode string            `json:"response_mode,omitempty"`
	ResearchTier string            `json:"research_tier,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
}

// ConsensusRequest starts a parallel trading consensus round.
type ConsensusRequest struct {
	Symbol         string    `json:"symbol"`
	SelectedModels []ModelID `json:"selected_models"`
	Timeframe      string    `json:"timeframe,omitempty"`
	ResearchTier   string    `json:"research_tier,omitempty"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
}

// DebateResult is the terminal payload of a debate run.
type DebateResult struct {
	SessionID  string           `json:"session_id"`
	Transcript []RoundMessage   `json:"transcript"`
	Synthesis  *SynthesisReport `json:"synthesis"`
	Usage      TokenUsage       `json:"token_usage"`
}

// ConsensusResult is the terminal payload of a consensus run.
type ConsensusResult struct {
	SessionID       string        `json:"session_id"`
	Symbol          string        `json:"symbol"`
	Decisions       []Decision    `json:"decisions"`
	Tally           VoteTally     `json:"tally"`
	ConsensusAction string        `json:"consensus_action"`
	AgreementLevel  float64       `json:"agreement_level"`
	Verdict         *JudgeVerdict `json:"verdict"`
	ResearchSummary string        `json:"research_summary,omitempty"`
}
