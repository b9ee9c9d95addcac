package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Queue quiz generation for one user or for every user",
	Long: "generate queues a generation job and prints its id. With --wait the job " +
		"runs in this process and its final state is printed. --scheduled makes a " +
		"single scheduler pass instead, generating only for users with a new record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		all, _ := cmd.Flags().GetBool("all")
		scheduled, _ := cmd.Flags().GetBool("scheduled")
		wait, _ := cmd.Flags().GetBool("wait")

		modes := 0
		for _, on := range []bool{userID != "", all, scheduled} {
			if on {
				modes++
			}
		}
		if modes != 1 {
			return errors.New("exactly one of --user, --all or --scheduled is required")
		}

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if scheduled {
			rep, err := a.scheduler.RunOnce(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, rep)
		}

		var jobID string
		if all {
			jobID, err = a.jobs.EnqueueGenerateAll(ctx)
		} else {
			if err := a.registerUser(ctx, userID); err != nil {
				return err
			}
			jobID, err = a.jobs.EnqueueGenerateOne(ctx, userID)
		}
		if err != nil {
			return err
		}
		if !wait {
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
	f := generateCmd.Flags()
	f.String("user", "", "Generate for this user id")
	f.Bool("all", false, "Generate for every user with a record directory or a user row")
	f.Bool("scheduled", false, "Run one scheduler pass over the record directories")
	f.Bool("wait", false, "Run the job in-process and print its final state")
}
