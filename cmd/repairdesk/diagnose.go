package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zen-systems/repairdesk/pkg/desk"
	"github.com/zen-systems/repairdesk/pkg/traversal"
)

func diagnoseCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "diagnose [description]",
		Short: "Walk a yes/no diagnostic path to a diagnosis",
		Long: `Classifies the description (or uses --category) and asks yes/no
	questions on stdin until a diagnosis is reached. Answer y or n; anything
	else, such as ?, repeats the question.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			symptom := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if category == "" {
				if symptom == "" {
					return errors.New("describe the problem or pass --category")
				}
				result := d.Classify(cmd.Context(), symptom)
				fmt.Fprintf(out, "Category: %s (%.0f%%)\n", result.Category, result.Confidence*100)
				printClarification(out, result.NeedsClarification, result.ClarificationQuestions)
				category = result.Category
			}
			return runDiagnosis(cmd, d, category, symptom, cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "skip classification and use this category")
	return cmd
}

func runDiagnosis(cmd *cobra.Command, d *desk.Desk, category, symptom string, in io.Reader, out io.Writer) error {
	turn, err := d.StartDiagnosis(cmd.Context(), category)
	if errors.Is(err, traversal.ErrGraphUnavailable) {
		fmt.Fprintf(out, "No guided diagnosis is available for %s yet. Try `repairdesk search`.\n", category)
		return nil
	}
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for turn.Outcome == nil && turn.DeadEnd == "" {
		fmt.Fprintf(out, "\n%s [y/n/?] ", turn.Question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errors.New("input closed before a diagnosis was reached")
		}
		next, err := d.Answer(cmd.Context(), turn.Session, scanner.Text(), symptom)
		if err != nil {
			return err
		}
		if fb := next.Feedback; fb != nil {
			fmt.Fprintf(out, "%s %s\n", fb.Icon, fb.Message)
			if fb.NextStepHint != "" {
				fmt.Fprintf(out, "   %s\n", fb.NextStepHint)
			}
		}
		turn = next
	}

	if turn.DeadEnd != "" {
		fmt.Fprintf(out, "\nCould not reach a diagnosis: %s.\n", turn.DeadEnd)
		return nil
	}
	printOutcome(out, turn.Outcome)
	return nil
}

func printOutcome(out io.Writer, o *traversal.Outcome) {
	fmt.Fprintf(out, "\nDiagnosis: %s\n", o.DiagnosisName)
	fmt.Fprintf(out, "Confidence: %d%%\n", o.ConfidencePct)
	if o.Urgency == traversal.UrgencyUrgent {
		fmt.Fprintln(out, "Urgency: URGENT, stop using the equipment")
	} else {
		fmt.Fprintf(out, "Urgency: %s\n", o.Urgency)
	}
	fmt.Fprintf(out, "Parts: %s\nLabor: %s\nTotal: %s\n", o.Cost.PartsRange, o.Cost.LaborRange, o.Cost.TotalRange)
	if o.RawResultText != "" {
		fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(o.RawResultText))
	}
}
