package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ssquiz",
	Short: "Quiz generation from conversation records",
	Long: "ssquiz summarizes each user's latest conversation record, generates " +
		"deduplicated multiple-choice quizzes from it and tracks answers.",
	SilenceUsage: true,
}

// Execute runs the CLI; ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "SQLite path or postgres:// URL (overrides SSQUIZ_DB)")
	pf.String("env-file", ".env", "Optional .env file loaded before reading the environment")
	pf.String("log-mode", "", "Log mode: production or development (overrides SSQUIZ_LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
