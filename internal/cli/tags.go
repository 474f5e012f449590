package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quiz-chatbot/internal/config"
	"quiz-chatbot/internal/domain"
)

// NewTagsCmd lists the tag filters available for a topic and difficulty.
func NewTagsCmd(configPath *string) *cobra.Command {
	var topic, difficulty string
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tag filters for a topic and difficulty",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
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

			tags, err := deps.service.Tags(cmd.Context(), strings.ToLower(topic), d)
			if err != nil {
				logger.Warn("list tags", "topic", topic, "difficulty", d, "err", err)
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "math", "question topic")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(domain.DifficultyEasy), "easy, medium or hard")
	return cmd
}
