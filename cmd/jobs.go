package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssai/ssquiz/internal/jobs"
	"github.com/ssai/ssquiz/internal/logger"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background jobs",
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print the state of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := jobs.NewTracker(st.JobRepo(), logger.Nop()).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), snap)
	},
}

var jobsWorkCmd = &cobra.Command{
	Use:   "work",
	Short: "Run job workers without the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		return a.pool().Run(cmd.Context())
	},
}

func init() {
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsWorkCmd)
}
