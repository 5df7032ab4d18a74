package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
	"fraud-console/internal/services"
)

// txFlags is the transaction form shared by score and process.
type txFlags struct {
	random bool
	tx     models.Transaction
}

func (f *txFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.random, "random", false, "generate a random transaction instead of reading flags")
	fl.StringVar(&f.tx.TransactionID, "id", "", "transaction id (default: txn_<unix ms>)")
	fl.Float64Var(&f.tx.Amount, "amount", 0, "transaction amount")
	fl.StringVar(&f.tx.Currency, "currency", services.Currencies[0], "ISO currency code")
	fl.StringVar(&f.tx.PaymentMethod, "method", services.PaymentMethods[0], "payment method")
	fl.StringVar(&f.tx.CountryCode, "country", services.Countries[0], "ISO country code")
	fl.StringVar(&f.tx.UserID, "user", "", "user id")
}

func (f *txFlags) transaction(sess *services.Session) models.Transaction {
	if f.random {
		return sess.Generator.Random()
	}
	tx := f.tx
	if tx.TransactionID == "" {
		tx.TransactionID = fmt.Sprintf("txn_%d", time.Now().UnixMilli())
	}
	return tx
}

func (c *cli) scoreCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single transaction",
		Example: `  fraudctl score --amount 250 --currency EUR --country DE --user user_42
  fraudctl score --random`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			tx := f.transaction(sess)
			state := sess.Scorer.Score(cmd.Context(), tx)

			w := cmd.OutOrStdout()
			printTransaction(w, state.Input)
			if state.Result != nil {
				printScore(w, *state.Result)
			}
			return printToast(w, state.Toast)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Score the fixed three-transaction sample batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			state := sess.Batch.Run(cmd.Context())

			w := cmd.OutOrStdout()
			if res := state.Result; res != nil {
				header(w, fmt.Sprintf("Batch results (%d)", len(res.Results)))
				for i, r := range res.Results {
					line := fmt.Sprintf("%s  %s  %s", r.TransactionID, normalize.Percent(r.FraudScore, 1), badge(r))
					if i < len(state.Submitted) {
						sub := state.Submitted[i]
						line += "  " + mutedStyle.Render(normalize.Amount(sub.Amount, sub.Currency))
					}
					fmt.Fprintln(w, "  "+line)
				}
				if res.HasProcessingTime {
					row(w, "Processing time", normalize.LatencyPrecise(res.ProcessingTimeMS))
				}
			}
			return printToast(w, state.Toast)
		},
	}
}

func (c *cli) processCmd() *cobra.Command {
	var (
		f        txFlags
		merchant string
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a payment through the A/B routed scoring path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			req := models.PaymentRequest{Transaction: f.transaction(sess), MerchantID: merchant}
			state := sess.Experiments.ProcessPayment(cmd.Context(), req)

			w := cmd.OutOrStdout()
			printTransaction(w, req.Transaction)
			if v := state.Payment.Value; v != nil {
				printScore(w, *v)
			}
			return printToast(w, state.Toast)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant id")
	return cmd
}

func printTransaction(w io.Writer, tx models.Transaction) {
	header(w, "Transaction")
	row(w, "ID", tx.TransactionID)
	row(w, "Amount", normalize.Amount(tx.Amount, tx.Currency))
	row(w, "Payment method", tx.PaymentMethod)
	row(w, "Country", tx.CountryCode)
	row(w, "User", tx.UserID)
}

func printScore(w io.Writer, r models.ScoreResult) {
	header(w, "Result")
	row(w, "Verdict", badge(r))
	score := normalize.Percent(r.FraudScore, 1)
	if r.Synthetic {
		score += " " + mutedStyle.Render("(estimated)")
	}
	row(w, "Fraud score", score)
	if r.HasLatency {
		row(w, "Latency", normalize.LatencyPrecise(r.LatencyMS))
	}
	if r.ModelVersion != "" {
		row(w, "Model", r.ModelVersion)
	}
	row(w, "Risk factors", normalize.RiskFactors(r.RiskFactors))
}
