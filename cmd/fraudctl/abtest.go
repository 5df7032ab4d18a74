package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

func (c *cli) abtestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "Create model A/B tests and read their results",
	}
	cmd.AddCommand(c.abtestCreateCmd())
	cmd.AddCommand(c.abtestResultsCmd())
	return cmd
}

func (c *cli) abtestCreateCmd() *cobra.Command {
	var req models.CreateABTestRequest
	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Register a new A/B test",
		Example: `  fraudctl abtest create "Q3 model" --control v1.0.0 --treatment v1.1.0 --holdout 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			req.TestName = args[0]
			state := sess.Experiments.Create(cmd.Context(), req)

			w := cmd.OutOrStdout()
			if test := state.Create.Value; test != nil {
				header(w, "A/B test")
				row(w, "ID", test.TestID)
				row(w, "Name", test.TestName)
				row(w, "Control", test.ControlModelVersion)
				row(w, "Treatment", test.TreatmentModelVersion)
				row(w, "Holdout", fmt.Sprintf("%d%%", test.HoldoutPercentage))
				row(w, "Status", okStyle.Render(string(test.Status)))
			}
			return printToast(w, state.Toast)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&req.ControlModelVersion, "control", "", "control model version")
	fl.StringVar(&req.TreatmentModelVersion, "treatment", "", "treatment model version")
	fl.IntVar(&req.HoldoutPercentage, "holdout", 10, fmt.Sprintf("holdout percentage (%d-%d)",
		models.MinHoldoutPercentage, models.MaxHoldoutPercentage))
	return cmd
}

func (c *cli) abtestResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <test-id>",
		Short: "Show the results of an A/B test",
		Long: `Show control and treatment metrics. When the service cannot produce
results, sample figures are shown and marked as such.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			state := sess.Experiments.ViewResults(cmd.Context(), args[0])

			w := cmd.OutOrStdout()
			if res := state.Results.Value; res != nil {
				printABResults(w, args[0], *res)
			}
			return printToast(w, state.Toast)
		},
	}
}

func printABResults(w io.Writer, testID string, res models.ABTestResults) {
	title := "Results for " + testID
	if res.Mock {
		title += " " + mutedStyle.Render("(sample data)")
	}
	header(w, title)
	row(w, "Total transactions", normalize.Count(int64(res.TotalTransactions)))
	printGroup(w, "Control", res.ControlGroup)
	printGroup(w, "Treatment", res.TreatmentGroup)

	significance := mutedStyle.Render("not significant")
	if res.StatisticalSignificance {
		significance = okStyle.Render("significant")
	}
	row(w, "Significance", significance)
	if res.Winner != "" {
		row(w, "Winner", res.Winner)
	}
}

func printGroup(w io.Writer, name string, g models.GroupMetrics) {
	fmt.Fprintf(w, "  %s\n", headerStyle.Render(name))
	row(w, "  Transactions", normalize.Count(int64(g.Transactions)))
	row(w, "  Accuracy", normalize.Percent(g.Accuracy, 1))
	row(w, "  Precision", normalize.Percent(g.Precision, 1))
	row(w, "  Recall", normalize.Percent(g.Recall, 1))
	row(w, "  F1 score", normalize.Percent(g.F1Score, 1))
}
