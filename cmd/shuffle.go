package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Reshuffle the choices of one quiz or of every quiz",
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, _ := cmd.Flags().GetUint("quiz")
		all, _ := cmd.Flags().GetBool("all")
		if (quizID == 0) == !all {
			return errors.New("exactly one of --quiz or --all is required")
		}

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if all {
			n, err := a.maintenance.ReshuffleAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reshuffled %d quizzes\n", n)
			return nil
		}
		if err := a.maintenance.Reshuffle(ctx, quizID); err != nil {
			return err
		}
		v, err := a.views.Admin(ctx, quizID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

func init() {
	shuffleCmd.Flags().Uint("quiz", 0, "Quiz id to reshuffle")
	shuffleCmd.Flags().Bool("all", false, "Reshuffle every quiz")
}
