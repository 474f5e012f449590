package cli

import (
	"os"

	"github.com/spf13/cobra"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/config"
	"quiz-chatbot/internal/transport/terminal"
)

// NewLeaderboardCmd prints the top scores.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top scores",
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

			entries, err := deps.service.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			terminal.PrintLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", app.DefaultLeaderboardLimit, "number of rows to show (0 for all)")
	return cmd
}
