package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssai/ssquiz/internal/jobs"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Index the document corpus",
	Long: "learn queues a corpus indexing job over the documents directory and " +
		"the URLs in web/urls.txt. --init only creates the directory layout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		out := cmd.OutOrStdout()

		if initOnly, _ := cmd.Flags().GetBool("init"); initOnly {
			if err := (jobs.Corpus{Root: a.cfg.DocsDir}).Prepare(); err != nil {
				return err
			}
			fmt.Fprintln(out, "prepared", a.cfg.DocsDir)
			return nil
		}

		jobID, err := a.jobs.EnqueueLearn(cmd.Context())
		if err != nil {
			return err
		}
		if wait, _ := cmd.Flags().GetBool("wait"); !wait {
			fmt.Fprintln(out, jobID)
			return nil
		}
		snap, err := a.waitFor(cmd, jobID)
		if err != nil {
			return err
		}
		return printJSON(out, snap)
	},
}

func init() {
	learnCmd.Flags().Bool("wait", false, "Run the job in-process and print its final state")
	learnCmd.Flags().Bool("init", false, "Create the corpus directories and exit")
}
