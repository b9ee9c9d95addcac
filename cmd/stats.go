package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssai/ssquiz/internal/quizview"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show first-attempt accuracy and wrong notes for a solver",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		rawScope, _ := cmd.Flags().GetString("scope")
		scope, err := quizview.ParseScope(rawScope)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		scopeUser := userID
		if scope == quizview.ScopeAll {
			scopeUser = ""
		}
		sum, err := a.attempts.Summary(ctx, userID, scopeUser)
		if err != nil {
			return err
		}
		notes, err := a.attempts.WrongNotes(ctx, userID)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(out, map[string]any{"summary": sum, "wrong_notes": notes})
		}

		fmt.Fprintf(out, "Solver:    %s (scope %s)\n", userID, scope)
		fmt.Fprintf(out, "Attempted: %d\n", sum.TotalCount)
		fmt.Fprintf(out, "Correct:   %d\n", sum.CorrectCount)
		fmt.Fprintf(out, "Wrong:     %d\n", sum.WrongCount)
		fmt.Fprintf(out, "Accuracy:  %.1f%%\n", sum.AccuracyRate)

		if len(notes) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Wrong notes")
		rule(out, 72)
		for _, n := range notes {
			solved := "open"
			if n.LastSolvedAt != nil {
				solved = "solved " + n.LastSolvedAt.Local().Format("2006-01-02")
			}
			fmt.Fprintf(out, "#%-5d %-50s %s\n", n.QuizID, truncate(n.Question, 50), solved)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", "", "Solver user id")
	statsCmd.Flags().String("scope", "user", "Quizzes counted: user (own) or all")
	statsCmd.Flags().Bool("json", false, "Print JSON")
}
