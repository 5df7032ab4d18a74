package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

// ExperimentStore is the in-memory, insertion-ordered list of A/B tests
// created during one session. Nothing is persisted.
type ExperimentStore struct {
	mu    sync.RWMutex
	tests []models.ABTest
}

func NewExperimentStore() *ExperimentStore {
	return &ExperimentStore{}
}

func (s *ExperimentStore) Append(test models.ABTest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests = append(s.tests, test)
}

func (s *ExperimentStore) List() []models.ABTest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ABTest, len(s.tests))
	copy(out, s.tests)
	return out
}

func (s *ExperimentStore) Get(testID string) (models.ABTest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tests {
		if t.TestID == testID {
			return t, true
		}
	}
	return models.ABTest{}, false
}

func (s *ExperimentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tests)
}

// ValidateABTest rejects a creation request before any network call.
func ValidateABTest(req models.CreateABTestRequest) error {
	if strings.TrimSpace(req.TestName) == "" {
		return errors.Validation("Please enter test name")
	}
	if strings.TrimSpace(req.ControlModelVersion) == "" {
		return errors.Validation("Please enter control model version")
	}
	if strings.TrimSpace(req.TreatmentModelVersion) == "" {
		return errors.Validation("Please enter treatment model version")
	}
	if req.HoldoutPercentage < models.MinHoldoutPercentage || req.HoldoutPercentage > models.MaxHoldoutPercentage {
		return errors.Validation(fmt.Sprintf("Holdout percentage must be between %d and %d",
			models.MinHoldoutPercentage, models.MaxHoldoutPercentage))
	}
	return nil
}

type ExperimentsState struct {
	Create   Outcome[models.ABTest]        `json:"create"`
	Results  Outcome[models.ABTestResults] `json:"results"`
	Payment  Outcome[models.ScoreResult]   `json:"payment"`
	Selected *models.ABTest                `json:"selected,omitempty"`
	Tests    []models.ABTest               `json:"tests"`
	Toast    *models.Toast                 `json:"toast,omitempty"`
}

type Experiments struct {
	api    FraudAPI
	store  *ExperimentStore
	logger *slog.Logger
	now    func() time.Time
	rnd    *lockedRand

	mu           sync.Mutex
	state        ExperimentsState
	resultsEpoch uint64
}

func NewExperiments(api FraudAPI, store *ExperimentStore, opts Options) *Experiments {
	opts = opts.withDefaults()
	return &Experiments{
		api:    api,
		store:  store,
		logger: opts.Logger,
		now:    opts.Now,
		rnd:    opts.random(),
		state: ExperimentsState{
			Create:  Outcome[models.ABTest]{Phase: PhaseIdle},
			Results: Outcome[models.ABTestResults]{Phase: PhaseIdle},
			Payment: Outcome[models.ScoreResult]{Phase: PhaseIdle},
		},
	}
}

func (e *Experiments) State() ExperimentsState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Experiments) snapshot() ExperimentsState {
	s := e.state
	s.Tests = e.store.List()
	return s
}

// Create registers a test with the service and appends it to the session
// list. The list is never refetched; the service has no list endpoint.
func (e *Experiments) Create(ctx context.Context, req models.CreateABTestRequest) ExperimentsState {
	req.TestName = strings.TrimSpace(req.TestName)
	if err := ValidateABTest(req); err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.state.Toast = toast(models.ToastError, errors.MessageOr(err, "Invalid A/B test"))
		return e.snapshot()
	}

	ctx = detach(ctx)

	e.mu.Lock()
	e.state.Create = Outcome[models.ABTest]{Phase: PhaseLoading}
	e.mu.Unlock()

	testID, err := e.create(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.logger.Error("A/B test creation failed", "test_name", req.TestName, "error", err)
		msg := errors.MessageOr(err, "Failed to create A/B test")
		e.state.Create = Outcome[models.ABTest]{Phase: PhaseFailed, Error: msg}
		e.state.Toast = toast(models.ToastError, msg)
		return e.snapshot()
	}

	now := e.now()
	if testID == "" {
		testID = fmt.Sprintf("test_%d", now.UnixMilli())
	}
	test := models.ABTest{
		TestID:                testID,
		TestName:              req.TestName,
		ControlModelVersion:   req.ControlModelVersion,
		TreatmentModelVersion: req.TreatmentModelVersion,
		HoldoutPercentage:     req.HoldoutPercentage,
		Status:                models.ABTestActive,
		CreatedAt:             now.UTC(),
	}
	e.store.Append(test)

	e.state.Create = Outcome[models.ABTest]{Phase: PhaseSuccess, Value: &test}
	e.state.Toast = toast(models.ToastSuccess, "A/B test created successfully")
	return e.snapshot()
}

func (e *Experiments) create(ctx context.Context, req models.CreateABTestRequest) (string, error) {
	resp, err := e.api.CreateABTest(ctx, req)
	if err != nil {
		return "", err
	}
	return normalize.CreatedTestID(resp.Body)
}

// ViewResults fetches results for testID. When the call fails the canned
// mock results are shown instead, flagged as such.
func (e *Experiments) ViewResults(ctx context.Context, testID string) ExperimentsState {
	ctx = detach(ctx)

	selected, ok := e.store.Get(testID)
	if !ok {
		selected = models.ABTest{TestID: testID}
	}

	e.mu.Lock()
	e.resultsEpoch++
	epoch := e.resultsEpoch
	e.state.Selected = &selected
	e.state.Results = Outcome[models.ABTestResults]{Phase: PhaseLoading}
	e.mu.Unlock()

	results, err := e.results(ctx, testID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.resultsEpoch {
		return e.snapshot()
	}
	if err != nil {
		e.logger.Error("failed to fetch test results", "test_id", testID, "error", err)
		mock := normalize.MockABTestResults()
		e.state.Results = Outcome[models.ABTestResults]{Phase: PhaseSuccess, Value: &mock}
		e.state.Toast = toast(models.ToastInfo, normalize.MockNotice)
		return e.snapshot()
	}

	e.state.Results = Outcome[models.ABTestResults]{Phase: PhaseSuccess, Value: &results}
	e.state.Toast = nil
	return e.snapshot()
}

func (e *Experiments) results(ctx context.Context, testID string) (models.ABTestResults, error) {
	if strings.TrimSpace(testID) == "" {
		return models.ABTestResults{}, errors.Validation("test id is required")
	}
	resp, err := e.api.ABTestResults(ctx, testID)
	if err != nil {
		return models.ABTestResults{}, err
	}
	return normalize.ABTestResults(resp.Body)
}

// ProcessPayment routes one payment through the service's A/B assignment
// and scoring path.
func (e *Experiments) ProcessPayment(ctx context.Context, req models.PaymentRequest) ExperimentsState {
	if err := ValidateTransaction(req.Transaction); err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.state.Toast = toast(models.ToastError, errors.MessageOr(err, "Invalid payment"))
		return e.snapshot()
	}

	ctx = detach(ctx)

	e.mu.Lock()
	e.state.Payment = Outcome[models.ScoreResult]{Phase: PhaseLoading}
	e.mu.Unlock()

	result, err := e.process(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.logger.Error("payment processing failed", "transaction_id", req.TransactionID, "error", err)
		msg := errors.MessageOr(err, "Payment processing failed")
		e.state.Payment = Outcome[models.ScoreResult]{Phase: PhaseFailed, Error: msg}
		e.state.Toast = toast(models.ToastError, msg)
		return e.snapshot()
	}

	e.state.Payment = Outcome[models.ScoreResult]{Phase: PhaseSuccess, Value: &result}
	e.state.Toast = toast(models.ToastSuccess, "Payment processed")
	return e.snapshot()
}

func (e *Experiments) process(ctx context.Context, req models.PaymentRequest) (models.ScoreResult, error) {
	resp, err := e.api.ProcessPayment(ctx, req)
	if err != nil {
		return models.ScoreResult{}, err
	}
	return normalize.Score(resp.Body, req.TransactionID, e.rnd.Float64)
}
