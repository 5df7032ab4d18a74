package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

// SampleBatch builds the fixed three-transaction batch used to exercise
// batch inference. Only the ids change between calls.
func SampleBatch(now time.Time) []models.Transaction {
	ms := now.UnixMilli()
	return []models.Transaction{
		{
			TransactionID: fmt.Sprintf("batch_txn_%d_1", ms),
			Amount:        25.5,
			Currency:      "USD",
			PaymentMethod: "credit_card",
			CountryCode:   "US",
			UserID:        "user_001",
		},
		{
			TransactionID: fmt.Sprintf("batch_txn_%d_2", ms),
			Amount:        1500.0,
			Currency:      "USD",
			PaymentMethod: "bank_transfer",
			CountryCode:   "US",
			UserID:        "user_002",
		},
		{
			TransactionID: fmt.Sprintf("batch_txn_%d_3", ms),
			Amount:        50.0,
			Currency:      "EUR",
			PaymentMethod: "credit_card",
			CountryCode:   "DE",
			UserID:        "user_003",
		},
	}
}

type BatchState struct {
	Phase     Phase                `json:"phase"`
	Submitted []models.Transaction `json:"submitted,omitempty"`
	Result    *models.BatchResult  `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	Toast     *models.Toast        `json:"toast,omitempty"`
}

type BatchScorer struct {
	api    FraudAPI
	logger *slog.Logger
	now    func() time.Time
	rnd    *lockedRand

	mu    sync.Mutex
	state BatchState
	epoch uint64
}

func NewBatchScorer(api FraudAPI, opts Options) *BatchScorer {
	opts = opts.withDefaults()
	return &BatchScorer{
		api:    api,
		logger: opts.Logger,
		now:    opts.Now,
		rnd:    opts.random(),
		state:  BatchState{Phase: PhaseIdle},
	}
}

func (b *BatchScorer) State() BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run submits a fresh sample batch. Retrying after a failure is just
// another Run.
func (b *BatchScorer) Run(ctx context.Context) BatchState {
	ctx = detach(ctx)
	batch := SampleBatch(b.now())

	b.mu.Lock()
	b.epoch++
	epoch := b.epoch
	b.state = BatchState{Phase: PhaseLoading, Submitted: batch}
	b.mu.Unlock()

	result, err := b.run(ctx, batch)

	b.mu.Lock()
	defer b.mu.Unlock()
	if epoch != b.epoch {
		return b.state
	}
	if err != nil {
		b.logger.Error("batch inference failed", "error", err)
		b.state.Phase = PhaseFailed
		b.state.Error = errors.MessageOr(err, "Request failed")
		b.state.Toast = toast(models.ToastError, errors.MessageOr(err, "Batch fraud detection failed"))
		return b.state
	}

	b.state.Phase = PhaseSuccess
	b.state.Result = &result
	b.state.Toast = toast(models.ToastSuccess, "Batch fraud detection completed")
	return b.state
}

func (b *BatchScorer) run(ctx context.Context, batch []models.Transaction) (models.BatchResult, error) {
	resp, err := b.api.BatchInference(ctx, batch)
	if err != nil {
		return models.BatchResult{}, err
	}
	return normalize.Batch(resp.Body, batch, b.rnd.Float64)
}
