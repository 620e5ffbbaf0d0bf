package debate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quorumtrade/quorum/internal/models"
)

// Synthesis text is free-form model output with labeled sections. Every
// extracted field is optional with an explicit default; a missing section
// yields an empty value, never an error.

var (
	sectionHeading = regexp.MustCompile(`(?mi)^\s*(?:#{1,4}\s*|\*{2})?(CONCLUSION|AGREEMENTS|DISAGREEMENTS|CONFIDENCE|FOLLOW-UP QUESTIONS)(?:\*{2})?\s*:?\s*`)
	confidenceLine = regexp.MustCompile(`(?i)CONFIDENCE\s*:?\s*(\d{1,3})`)
	listItem       = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*(.+)$`)
)

// ParseSynthesis extracts the labeled sections of a synthesis reply.
func ParseSynthesis(text string) *models.SynthesisReport {
	report := &models.SynthesisReport{
		Agreements:        []string{},
		Disagreements:     []string{},
		FollowUpQuestions: []string{},
		Raw:               text,
	}

	sections := splitSections(text)

	if body, ok := sections["CONCLUSION"]; ok {
		report.Conclusion = strings.TrimSpace(body)
	}
	if body, ok := sections["AGREEMENTS"]; ok {
		report.Agreements = parseList(body)
	}
	if body, ok := sections["DISAGREEMENTS"]; ok {
		report.Disagreements = parseList(body)
	}
	if body, ok := sections["FOLLOW-UP QUESTIONS"]; ok {
		report.FollowUpQuestions = parseList(body)
	}
	report.Confidence = parseConfidence(text)

	// No recognizable structure at all: treat the whole reply as the
	// conclusion rather than losing it.
	if report.Conclusion == "" && len(sections) == 0 {
		report.Conclusion = strings.TrimSpace(text)
	}

	return report
}

// splitSections maps heading name to the text between it and the next
// heading.
func splitSections(text string) map[string]string {
	matches := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	sections := make(map[string]string, len(matches))
	for i, m := range matches {
		name := strings.ToUpper(text[m[2]:m[3]])
		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		sections[name] = text[bodyStart:bodyEnd]
	}
	return sections
}

// parseList pulls bullet or numbered items; a section with no list
// markers becomes one item per non-empty line.
func parseList(body string) []string {
	items := []string{}
	for _, line := range strings.Split(body, "\n") {
		if m := listItem.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" && len(items) == 0 {
			items = append(items, trimmed)
		}
	}
	return items
}

// parseConfidence finds the first CONFIDENCE: <int> anywhere in the text
// and clamps it to 0..100. Absent or unparsable yields 0.
func parseConfidence(text string) int {
	m := confidenceLine.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if n > 100 {
		n = 100
	}
	if n < 0 {
		n = 0
	}
	return n
}

// fallbackSynthesis deterministically constructs a report from the raw
// transcript when every synthesis model failed. Synthesis is never
// absent.
func fallbackSynthesis(transcript []models.RoundMessage) *models.SynthesisReport {
	report := &models.SynthesisReport{
		Agreements:        []string{},
		Disagreements:     []string{},
		FollowUpQuestions: []string{},
	}

	if len(transcript) == 0 {
		report.Conclusion = "No agent produced a usable answer."
		return report
	}

	last := transcript[len(transcript)-1]
	conclusion := strings.TrimSpace(last.Content)
	if len(conclusion) > 600 {
		conclusion = conclusion[:600] + "…"
	}
	report.Conclusion = fmt.Sprintf("Synthesis unavailable; closing statement from %s (round %d): %s",
		last.AgentID, last.Round, conclusion)
	return report
}
