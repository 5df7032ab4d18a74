package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
	"fraud-console/internal/services"
)

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show whether the fraud service reports itself healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.refresh(cmd)
			if err != nil {
				return err
			}
			if state.Health == nil {
				return fmt.Errorf("health check failed")
			}
			printHealth(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show inference metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.refresh(cmd)
			if err != nil {
				return err
			}
			if state.Stats == nil {
				return fmt.Errorf("stats fetch failed")
			}
			printStats(cmd.OutOrStdout(), *state.Stats)
			return nil
		},
	}
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show health and inference metrics together",
		Long: `Fetch health and metrics concurrently. A failed section is reported and
the other one is still shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.refresh(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printHealth(w, state)
			if state.Stats != nil {
				printStats(w, *state.Stats)
			} else {
				fmt.Fprintln(w, mutedStyle.Render("Metrics unavailable"))
			}
			row(w, "Last refresh", ago(state.LastRefresh))
			return nil
		},
	}
}

func (c *cli) refresh(cmd *cobra.Command) (services.DashboardState, error) {
	sess, err := c.session()
	if err != nil {
		return services.DashboardState{}, err
	}
	return sess.Dashboard.Refresh(cmd.Context()), nil
}

func printHealth(w io.Writer, state services.DashboardState) {
	header(w, "System")
	row(w, "Status", statusBadge(state.SystemStatus()))
	if msg, ok := state.HealthWarning(); ok {
		row(w, "Warning", badStyle.Render(msg))
	}
}

func printStats(w io.Writer, st models.InferenceStats) {
	header(w, "Inference")
	row(w, "Total inferences", normalize.Count(st.TotalInferences))
	row(w, "Avg latency", normalize.Latency(st.AvgLatencyMS))
	row(w, "P95 latency", normalize.Latency(st.P95LatencyMS))
	row(w, "P99 latency", normalize.Latency(st.P99LatencyMS))
	row(w, "Cache hit rate", normalize.Percent(st.CacheHitRate, 1))
	row(w, "Sub-millisecond rate", normalize.Percent(st.SubMillisecondRate, 1))

	if mp := st.ModelPerformance; mp != nil {
		header(w, "Model performance")
		row(w, "Accuracy", normalize.Percent(mp.Accuracy, 1))
		row(w, "Precision", normalize.Percent(mp.Precision, 1))
		row(w, "Recall", normalize.Percent(mp.Recall, 1))
		row(w, "F1 score", normalize.Percent(mp.F1Score, 1))
	}
	if last := st.Last24Hours; last != nil {
		header(w, "Last 24 hours")
		row(w, "Requests", normalize.Count(int64(last.Requests)))
		row(w, "Avg latency", normalize.Latency(last.AvgLatency))
	}
}
