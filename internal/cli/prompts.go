package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/quorumtrade/quorum/internal/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// runInteractive walks the user through building a request.
func runInteractive(a *app) error {
	var mode string
	modePrompt := &survey.Select{
		Message: "What do you want to run?",
		Options: []string{"Debate a question", "Consensus vote on a symbol"},
	}
	if err := survey.AskOne(modePrompt, &mode); err != nil {
		return err
	}

	tier, err := promptForTier(a.cfg.ResearchTier)
	if err != nil {
		return err
	}

	if strings.HasPrefix(mode, "Debate") {
		req, err := promptForDebate(a.cfg.DefaultRounds)
		if err != nil {
			return err
		}
		req.ResearchTier = tier
		return a.runDebate(context.Background(), req)
	}

	req, err := promptForConsensus()
	if err != nil {
		return err
	}
	req.ResearchTier = tier
	return a.runConsensus(context.Background(), req)
}

func promptForDebate(defaultRounds int) (models.DebateRequest, error) {
	var req models.DebateRequest

	question := &survey.Input{
		Message: "Question to debate:",
		Help:    "The panel argues this question across multiple rounds.",
	}
	if err := survey.AskOne(question, &req.Query, survey.WithValidator(survey.Required)); err != nil {
		return req, err
	}

	rounds := &survey.Select{
		Message: "Debate rounds:",
		Options: []string{"1", "2", "3"},
		Default: fmt.Sprintf("%d", defaultRounds),
	}
	var roundsStr string
	if err := survey.AskOne(rounds, &roundsStr); err != nil {
		return req, err
	}
	fmt.Sscanf(roundsStr, "%d", &req.Rounds)

	panel, err := promptForModels("Select the debate panel (first analyzes, last judges):")
	if err != nil {
		return req, err
	}
	req.Agents = panelFromFlag(strings.Join(panel, ","))
	return req, nil
}

func promptForConsensus() (models.ConsensusRequest, error) {
	var req models.ConsensusRequest

	ticker := &survey.Input{
		Message: "Stock ticker symbol (e.g. AAPL):",
	}
	err := survey.AskOne(ticker, &req.Symbol, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if str == "" {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format (letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return req, err
	}
	req.Symbol = strings.TrimSpace(strings.ToUpper(req.Symbol))

	voters, err := promptForModels("Select the voting models:")
	if err != nil {
		return req, err
	}
	for _, v := range voters {
		req.SelectedModels = append(req.SelectedModels, models.ParseModelID(v))
	}
	return req, nil
}

func promptForModels(message string) ([]string, error) {
	options := []string{
		"openai/gpt-5",
		"openai/gpt-4.1",
		"anthropic/claude-sonnet",
		"gemini/gemini-pro",
		"deepseek/deepseek-chat",
	}

	var selected []string
	prompt := &survey.MultiSelect{
		Message: message,
		Options: options,
		Default: options[:3],
		Help:    "Space selects, enter confirms.",
	}
	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		answers, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(answers) == 0 {
			return fmt.Errorf("select at least one model")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return selected, nil
}

func promptForTier(defaultTier string) (string, error) {
	options := []string{"none", "basic", "deep"}
	if defaultTier == "" {
		defaultTier = "basic"
	}

	var tier string
	prompt := &survey.Select{
		Message: "Research tier:",
		Options: options,
		Default: defaultTier,
		Help:    "basic adds a market snapshot; deep adds headlines and sentiment.",
	}
	if err := survey.AskOne(prompt, &tier); err != nil {
		return "", err
	}
	return tier, nil
}
