package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/server"
)

const version = "1.0.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "quorum",
		Short: "Quorum - multi-model debate and consensus engine",
		Long: `Quorum dispatches one question to a panel of AI models, runs them through
sequential debate rounds or a parallel consensus vote, and unifies the
outcome into a single answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: interactive mode.
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runInteractive(a)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newDebateCmd(&configPath))
	rootCmd.AddCommand(newConsensusCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with SSE streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ServerAddr
			}
			srv := server.New(a.debateOrchestrator(), a.consensusOrchestrator(), a.store, a.exporter, a.mgr)
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newDebateCmd(configPath *string) *cobra.Command {
	var (
		rounds    int
		modelList string
		tier      string
	)

	cmd := &cobra.Command{
		Use:   "debate [QUESTION]",
		Short: "Run a sequential multi-round debate on a question",
		Long: `Run a debate where each agent sees the full prior transcript before
speaking. Example:

  quorum debate "Is AAPL a buy?" --models openai/gpt-5,anthropic/claude-sonnet --rounds 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := models.DebateRequest{
				Query:        args[0],
				Agents:       panelFromFlag(modelList),
				Rounds:       rounds,
				ResearchTier: tier,
			}
			if req.Rounds <= 0 {
				req.Rounds = a.cfg.DefaultRounds
			}
			if req.ResearchTier == "" {
				req.ResearchTier = a.cfg.ResearchTier
			}
			return a.runDebate(context.Background(), req)
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "Number of debate rounds")
	cmd.Flags().StringVar(&modelList, "models", "", "Comma-separated provider/model list for the panel")
	cmd.Flags().StringVar(&tier, "tier", "", "Research tier: none, basic, or deep")
	return cmd
}

func newConsensusCmd(configPath *string) *cobra.Command {
	var (
		modelList string
		timeframe string
		tier      string
	)

	cmd := &cobra.Command{
		Use:   "consensus [SYMBOL]",
		Short: "Run a parallel consensus vote on a trading symbol",
		Long: `Every selected model decides BUY, SELL, or HOLD independently; the votes
are tallied and a judge model unifies them. Example:

  quorum consensus AAPL --models openai/gpt-5,deepseek/deepseek-chat,gemini/gemini-pro`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := models.ConsensusRequest{
				Symbol:         strings.ToUpper(strings.TrimSpace(args[0])),
				SelectedModels: parseModelList(modelList),
				Timeframe:      timeframe,
				ResearchTier:   tier,
			}
			if len(req.SelectedModels) == 0 {
				req.SelectedModels = defaultVoters()
			}
			if req.ResearchTier == "" {
				req.ResearchTier = a.cfg.ResearchTier
			}
			return a.runConsensus(context.Background(), req)
		},
	}

	cmd.Flags().StringVar(&modelList, "models", "", "Comma-separated provider/model list of voters")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "Decision horizon (default \"1 day\")")
	cmd.Flags().StringVar(&tier, "tier", "", "Research tier: none, basic, or deep")
	return cmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			fmt.Printf("\nConfig file: %s\n", a.mgr.Path())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if len(a.cfg.ProviderSettings().APIKeys) == 0 && len(a.cfg.CLICommands) == 0 {
				fmt.Println("warning: no API keys or CLI providers configured")
			}
			fmt.Println("configuration is valid")
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quorum v%s\n", version)
		},
	}
}

// parseModelList turns "openai/gpt-5,deepseek/deepseek-chat" into model
// IDs, skipping empty entries.
func parseModelList(list string) []models.ModelID {
	var ids []models.ModelID
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, models.ParseModelID(part))
	}
	return ids
}

// panelFromFlag assigns debate roles to a flat model list: the first
// model analyzes, the middle ones critique, the last one judges. Empty
// input falls back to the default panel.
func panelFromFlag(list string) []models.AgentDescriptor {
	ids := parseModelList(list)
	if len(ids) == 0 {
		return defaultPanel()
	}

	agents := make([]models.AgentDescriptor, len(ids))
	for i, id := range ids {
		role := models.RoleCritic
		switch {
		case i == 0:
			role = models.RoleAnalyst
		case i == len(ids)-1 && len(ids) > 1:
			role = models.RoleJudge
		}
		agents[i] = models.AgentDescriptor{
			ID:          fmt.Sprintf("%s-%d", role, i+1),
			Role:        role,
			DisplayName: id.Model,
			Model:       id,
		}
	}
	return agents
}

func defaultPanel() []models.AgentDescriptor {
	return []models.AgentDescriptor{
		{ID: "analyst-1", Role: models.RoleAnalyst, DisplayName: "Analyst", Model: models.ModelID{Provider: "openai", Model: "gpt-5"}},
		{ID: "critic-1", Role: models.RoleCritic, DisplayName: "Critic", Model: models.ModelID{Provider: "anthropic", Model: "claude-sonnet"}},
		{ID: "judge-1", Role: models.RoleJudge, DisplayName: "Judge", Model: models.ModelID{Provider: "gemini", Model: "gemini-pro"}},
	}
}

func defaultVoters() []models.ModelID {
	return []models.ModelID{
		{Provider: "openai", Model: "gpt-5"},
		{Provider: "deepseek", Model: "deepseek-chat"},
		{Provider: "gemini", Model: "gemini-pro"},
	}
}
