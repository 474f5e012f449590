package cli

import (
	"os"

	"github.com/spf13/cobra"

	"quiz-chatbot/internal/config"
	"quiz-chatbot/internal/transport/terminal"
)

// NewPlayCmd runs an interactive quiz on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			if err := prepareStorage(cmd.Context(), cfg, logger); err != nil {
				return err
			}

			deps, err := buildComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			shell := terminal.NewShell(deps.service, logger, cmd.InOrStdin(), cmd.OutOrStdout(), terminal.Options{
				Topics:        cfg.Quiz.Topics,
				QuestionCount: cfg.Quiz.DefaultCount,
				TimeLimit:     cfg.Quiz.DefaultTimeLimit,
			})
			return shell.Run(cmd.Context())
		},
	}
}
