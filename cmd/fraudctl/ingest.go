package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fraud-console/internal/errors"
	"fraud-console/internal/services"
)

func (c *cli) ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Trigger data ingestion on the fraud service",
	}
	cmd.AddCommand(c.ingestUploadCmd())
	cmd.AddCommand(c.ingestETLCmd())
	cmd.AddCommand(c.ingestWebhookCmd())
	cmd.AddCommand(c.ingestPollCmd())
	return cmd
}

func (c *cli) ingestUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV file of transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := services.ValidateUploadName(path); err != nil {
				return stderrors.New(errors.MessageOr(err, "invalid upload file"))
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			sess, err := c.session()
			if err != nil {
				return err
			}
			state := sess.Ingestion.Upload(cmd.Context(), filepath.Base(path), f)

			w := cmd.OutOrStdout()
			if res := state.Upload.Value; res != nil {
				header(w, "Upload")
				row(w, "File", res.Filename)
				if res.Size > 0 {
					row(w, "Size", byteSize(res.Size))
				}
				row(w, "Records processed", res.RecordsProcessed)
				row(w, "Processing time", fmt.Sprintf("%.0f ms", res.ProcessingTimeMS))
				if len(res.Errors) > 0 {
					row(w, "Errors", badStyle.Render(strings.Join(res.Errors, "; ")))
				}
			}
			return printToast(w, state.Toast)
		},
	}
}

func (c *cli) ingestETLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "etl",
		Short: "Start the database to ml_features ETL pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			state := sess.Ingestion.RunETL(cmd.Context())

			w := cmd.OutOrStdout()
			if job := state.ETL.Value; job != nil {
				header(w, "ETL job")
				row(w, "Job ID", job.JobID)
				row(w, "Status", job.Status)
				row(w, "Started", ago(job.StartedAt))
			}
			return printToast(w, state.Toast)
		},
	}
}

func (c *cli) ingestWebhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "webhook [provider]",
		Short: "Send a sample payment_processed webhook event",
		Long: `Send a sample payment_processed webhook event on behalf of provider,
or of the configured provider when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			provider := sess.Ingestion.State().WebhookProvider
			if len(args) == 1 {
				provider = args[0]
			}
			state := sess.Ingestion.TestWebhook(cmd.Context(), provider)

			w := cmd.OutOrStdout()
			if msg := state.Webhook.Value; msg != nil && *msg != "" {
				row(w, "Response", *msg)
			}
			return printToast(w, state.Toast)
		},
	}
}

func (c *cli) ingestPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "poll <provider>",
		Short:     "Ask the service to poll a provider now",
		Long:      "Ask the service to poll a provider now. Known providers: " + strings.Join(services.PollProviders, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: services.PollProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			state := sess.Ingestion.Poll(cmd.Context(), args[0])

			w := cmd.OutOrStdout()
			if msg := state.Poll.Value; msg != nil && *msg != "" {
				row(w, "Response", *msg)
			}
			return printToast(w, state.Toast)
		},
	}
}
