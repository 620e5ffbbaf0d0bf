package debate

import (
	"fmt"
	"strings"

	"github.com/quorumtrade/quorum/internal/models"
)

// roleInstructions steer each role's contribution to the round.
var roleInstructions = map[models.AgentRole]string{
	models.RoleAnalyst:     "Give your own analysis of the question. Be concrete and commit to a position.",
	models.RoleCritic:      "Critique the preceding arguments: find weaknesses, missing evidence, and overclaims before adding your view.",
	models.RoleJudge:       "Weigh the arguments made so far and state which position is currently strongest and why.",
	models.RoleSynthesizer: "Reconcile the discussion so far into the most defensible combined position.",
}

func buildAgentPrompt(query string, agent models.AgentDescriptor, transcript []models.RoundMessage, researchCtx, webCtx string, round int) string {
	var b strings.Builder

	if agent.SystemPrompt != "" {
		b.WriteString(agent.SystemPrompt)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question under debate:\n%s\n\n", query)

	if researchCtx != "" {
		b.WriteString("Background research:\n")
		b.WriteString(researchCtx)
		b.WriteString("\n\n")
	}
	if webCtx != "" {
		b.WriteString(webCtx)
		b.WriteString("\n\n")
	}

	if len(transcript) > 0 {
		b.WriteString("Debate so far:\n")
		b.WriteString(FormatTranscript(transcript))
		b.WriteString("\n")
	}

	instruction := roleInstructions[agent.Role]
	if instruction == "" {
		instruction = roleInstructions[models.RoleAnalyst]
	}
	fmt.Fprintf(&b, "You are %s (%s), speaking in round %d. %s\n",
		agent.DisplayName, agent.Role, round, instruction)

	return b.String()
}

// FormatTranscript renders messages in round-then-agent order for prompt
// injection and for the synthesis pass.
func FormatTranscript(transcript []models.RoundMessage) string {
	var b strings.Builder
	for _, msg := range transcript {
		fmt.Fprintf(&b, "[round %d] %s (%s):\n%s\n\n", msg.Round, msg.AgentID, msg.Role, msg.Content)
	}
	return strings.TrimSpace(b.String())
}

func buildSynthesisPrompt(query string, transcript []models.RoundMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Several AI agents debated the question:\n%s\n\nFull transcript:\n%s\n\n", query, FormatTranscript(transcript))
	b.WriteString(`Synthesize the debate. Answer using exactly these labeled sections:

CONCLUSION:
<the overall answer the debate supports>

AGREEMENTS:
- <points the agents agreed on>

DISAGREEMENTS:
- <points of contention>

CONFIDENCE: <integer 0-100>

FOLLOW-UP QUESTIONS:
- <open questions worth pursuing>
`)
	return b.String()
}
