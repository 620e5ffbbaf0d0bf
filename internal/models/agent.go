package models

import "time"

// AgentRole determines processing order in debates and prompt construction.
type AgentRole string

const (
	RoleAnalyst     AgentRole = "analyst"
	RoleCritic      AgentRole = "critic"
	RoleJudge       AgentRole = "judge"
	RoleSynthesizer AgentRole = "synthesizer"
)

// RolePrecedence orders agents within a debate round so critique always
// follows initial analysis. Unrecognized roles sort with analysts.
func RolePrecedence(role AgentRole) int {
	switch role {
	case RoleAnalyst:
		return 0
	case RoleCritic:
		return 1
	case RoleJudge:
		return 2
	case RoleSynthesizer:
		return 3
	default:
		return 0
	}
}

// AgentDescriptor is immutable per request.
type AgentDescriptor struct {
	ID           string    `json:"id"`
	Model        ModelID   `json:"model"`
	Role         AgentRole `json:"role"`
	DisplayName  string    `json:"display_name"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
}

// RoundMessage is produced exactly once per successful agent turn. The
// ordered sequence across rounds forms the debate transcript.
type RoundMessage struct {
	AgentID    string    `json:"agent_id"`
	Role       AgentRole `json:"role"`
	Round      int       `json:"round"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used"`
	Timestamp  time.Time `json:"timestamp"`
}
