package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

var (
	Currencies     = []string{"USD", "EUR", "GBP", "CAD"}
	PaymentMethods = []string{"credit_card", "debit_card", "bank_transfer", "digital_wallet"}
	Countries      = []string{"US", "CA", "GB", "DE", "FR"}
)

const (
	minRandomAmount  = 10.0
	randomAmountSpan = 2000.0
)

// ValidateTransaction applies the scorer form rules before anything is sent.
func ValidateTransaction(tx models.Transaction) error {
	var missing []string
	if strings.TrimSpace(tx.TransactionID) == "" {
		missing = append(missing, "transaction id")
	}
	if strings.TrimSpace(tx.Currency) == "" {
		missing = append(missing, "currency")
	}
	if strings.TrimSpace(tx.PaymentMethod) == "" {
		missing = append(missing, "payment method")
	}
	if strings.TrimSpace(tx.CountryCode) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(tx.UserID) == "" {
		missing = append(missing, "user id")
	}
	if len(missing) > 0 {
		return errors.Validation("Please enter " + strings.Join(missing, ", "))
	}
	if tx.Amount < 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return errors.Validation("Amount must be zero or more")
	}
	return nil
}

type ScorerState struct {
	Phase Phase `json:"phase"`
	// Input is the last submitted transaction, kept so a failed attempt can
	// be retried as-is.
	Input  models.Transaction  `json:"input"`
	Result *models.ScoreResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
	Toast  *models.Toast       `json:"toast,omitempty"`
}

type Scorer struct {
	api    FraudAPI
	logger *slog.Logger
	rnd    *lockedRand

	mu    sync.Mutex
	state ScorerState
	epoch uint64
}

func NewScorer(api FraudAPI, opts Options) *Scorer {
	opts = opts.withDefaults()
	return &Scorer{
		api:    api,
		logger: opts.Logger,
		rnd:    opts.random(),
		state:  ScorerState{Phase: PhaseIdle},
	}
}

func (s *Scorer) State() ScorerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fill replaces the form contents without scoring, e.g. with a generated
// transaction.
func (s *Scorer) Fill(tx models.Transaction) ScorerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Input = tx
	return s.state
}

// Reset clears the result so another transaction can be tested.
func (s *Scorer) Reset() ScorerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = ScorerState{Phase: PhaseIdle, Input: s.state.Input}
	return s.state
}

// Retry resubmits the retained input.
func (s *Scorer) Retry(ctx context.Context) ScorerState {
	return s.Score(ctx, s.State().Input)
}

func (s *Scorer) Score(ctx context.Context, tx models.Transaction) ScorerState {
	if err := ValidateTransaction(tx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.Input = tx
		s.state.Toast = toast(models.ToastError, errors.MessageOr(err, "Invalid transaction"))
		return s.state
	}

	ctx = detach(ctx)

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.state = ScorerState{Phase: PhaseLoading, Input: tx}
	s.mu.Unlock()

	result, err := s.score(ctx, tx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return s.state
	}
	if err != nil {
		s.logger.Error("inference failed", "transaction_id", tx.TransactionID, "error", err)
		msg := errors.MessageOr(err, "Fraud detection failed")
		s.state.Phase = PhaseFailed
		s.state.Error = errors.MessageOr(err, "Request failed")
		s.state.Toast = toast(models.ToastError, msg)
		return s.state
	}

	if result.Synthetic {
		s.logger.Warn("fraud_score missing from inference response, using synthetic score",
			"transaction_id", tx.TransactionID)
	}
	s.state.Phase = PhaseSuccess
	s.state.Result = &result
	s.state.Toast = toast(models.ToastSuccess, "Fraud detection completed")
	return s.state
}

func (s *Scorer) score(ctx context.Context, tx models.Transaction) (models.ScoreResult, error) {
	resp, err := s.api.FastInference(ctx, tx)
	if err != nil {
		return models.ScoreResult{}, err
	}
	return normalize.Score(resp.Body, tx.TransactionID, s.rnd.Float64)
}

// Generator produces random but well-formed transactions for the scorer
// form. It never touches the network.
type Generator struct {
	rnd *lockedRand
	now func() time.Time
}

func NewGenerator(opts Options) *Generator {
	opts = opts.withDefaults()
	return &Generator{rnd: opts.random(), now: opts.Now}
}

func (g *Generator) Random() models.Transaction {
	amount := math.Round((g.rnd.Float64()*randomAmountSpan+minRandomAmount)*100) / 100
	return models.Transaction{
		TransactionID: fmt.Sprintf("txn_%d", g.now().UnixMilli()),
		Amount:        amount,
		Currency:      Currencies[g.rnd.IntN(len(Currencies))],
		PaymentMethod: PaymentMethods[g.rnd.IntN(len(PaymentMethods))],
		CountryCode:   Countries[g.rnd.IntN(len(Countries))],
		UserID:        fmt.Sprintf("user_%d", g.rnd.IntN(10000)),
	}
}
