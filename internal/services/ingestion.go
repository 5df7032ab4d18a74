package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/gateway"
	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

// PollProviders are the providers offered for manual polling.
var PollProviders = []string{"provider_1", "provider_2", "test_provider"}

// DefaultETLRequest is the only pipeline run the console can start.
var DefaultETLRequest = models.ETLRequest{
	Source:            "database",
	Target:            "ml_features",
	IncludeHistorical: true,
}

type IngestionState struct {
	Upload  Outcome[models.UploadResult] `json:"upload"`
	ETL     Outcome[models.ETLJob]       `json:"etl"`
	Webhook Outcome[string]              `json:"webhook"`
	Poll    Outcome[string]              `json:"poll"`
	// WebhookProvider is the provider the next webhook test targets. It
	// starts as the configured provider and follows the operator's input.
	WebhookProvider string        `json:"webhook_provider"`
	Toast           *models.Toast `json:"toast,omitempty"`
}

// Ingestion drives the four independent ingestion actions. Each action has
// its own busy flag; one running does not block the others.
type Ingestion struct {
	api    FraudAPI
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state IngestionState
}

func NewIngestion(api FraudAPI, providerID string, opts Options) *Ingestion {
	opts = opts.withDefaults()
	return &Ingestion{
		api:    api,
		logger: opts.Logger,
		now:    opts.Now,
		state: IngestionState{
			Upload:  Outcome[models.UploadResult]{Phase: PhaseIdle},
			ETL:     Outcome[models.ETLJob]{Phase: PhaseIdle},
			Webhook: Outcome[string]{Phase: PhaseIdle},
			Poll:    Outcome[string]{Phase: PhaseIdle},

			WebhookProvider: providerID,
		},
	}
}

func (i *Ingestion) State() IngestionState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// ValidateUploadName accepts only .csv files, case-insensitively.
func ValidateUploadName(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errors.Validation("Please select a CSV file")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return errors.Validation("Only CSV files are supported")
	}
	return nil
}

func (i *Ingestion) Upload(ctx context.Context, filename string, file io.Reader) IngestionState {
	if err := ValidateUploadName(filename); err != nil {
		i.mu.Lock()
		defer i.mu.Unlock()
		i.state.Toast = toast(models.ToastError, errors.MessageOr(err, "File upload failed"))
		return i.state
	}

	ctx = detach(ctx)

	i.mu.Lock()
	if i.state.Upload.Loading() {
		i.mu.Unlock()
		return i.State()
	}
	i.state.Upload = Outcome[models.UploadResult]{Phase: PhaseLoading}
	i.mu.Unlock()

	result, err := i.upload(ctx, filename, file)

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.logger.Error("file upload failed", "filename", filename, "error", err)
		msg := errors.MessageOr(err, "File upload failed")
		i.state.Upload = Outcome[models.UploadResult]{Phase: PhaseFailed, Error: msg}
		i.state.Toast = toast(models.ToastError, msg)
		return i.state
	}
	i.state.Upload = Outcome[models.UploadResult]{Phase: PhaseSuccess, Value: &result}
	i.state.Toast = toast(models.ToastSuccess, "File uploaded and processed successfully")
	return i.state
}

func (i *Ingestion) upload(ctx context.Context, filename string, file io.Reader) (models.UploadResult, error) {
	resp, err := i.api.UploadFile(ctx, filename, file)
	if err != nil {
		return models.UploadResult{}, err
	}
	return normalize.Upload(resp.Body, filename)
}

func (i *Ingestion) RunETL(ctx context.Context) IngestionState {
	ctx = detach(ctx)

	i.mu.Lock()
	if i.state.ETL.Loading() {
		i.mu.Unlock()
		return i.State()
	}
	i.state.ETL = Outcome[models.ETLJob]{Phase: PhaseLoading}
	i.mu.Unlock()

	job, err := i.runETL(ctx)

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.logger.Error("ETL pipeline failed to start", "error", err)
		msg := errors.MessageOr(err, "ETL pipeline failed to start")
		i.state.ETL = Outcome[models.ETLJob]{Phase: PhaseFailed, Error: msg}
		i.state.Toast = toast(models.ToastError, msg)
		return i.state
	}
	i.state.ETL = Outcome[models.ETLJob]{Phase: PhaseSuccess, Value: &job}
	i.state.Toast = toast(models.ToastSuccess, "ETL pipeline started successfully")
	return i.state
}

func (i *Ingestion) runETL(ctx context.Context) (models.ETLJob, error) {
	resp, err := i.api.RunETL(ctx, DefaultETLRequest)
	if err != nil {
		return models.ETLJob{}, err
	}
	return normalize.ETLJob(resp.Body, i.now())
}

// TestWebhookEvent builds the sample payment_processed event posted by the
// webhook test.
func TestWebhookEvent(now time.Time) models.WebhookEvent {
	return models.WebhookEvent{
		EventType: "payment_processed",
		Timestamp: now.UTC().Format(time.RFC3339),
		Data: models.WebhookPayment{
			TransactionID: fmt.Sprintf("webhook_txn_%d", now.UnixMilli()),
			Amount:        299.99,
			Currency:      "USD",
			PaymentMethod: "credit_card",
			CountryCode:   "US",
			UserID:        "webhook_user_123",
			MerchantID:    "merchant_001",
		},
	}
}

// TestWebhook posts a sample event on behalf of provider.
func (i *Ingestion) TestWebhook(ctx context.Context, provider string) IngestionState {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		i.mu.Lock()
		defer i.mu.Unlock()
		i.state.Toast = toast(models.ToastError, "Please enter provider ID")
		return i.state
	}

	ctx = detach(ctx)

	i.mu.Lock()
	if i.state.Webhook.Loading() {
		i.mu.Unlock()
		return i.State()
	}
	i.state.Webhook = Outcome[string]{Phase: PhaseLoading}
	i.state.WebhookProvider = provider
	i.mu.Unlock()

	msg, err := i.ack(i.api.ProcessWebhook(ctx, provider, TestWebhookEvent(i.now())))

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.logger.Error("webhook processing failed", "provider_id", provider, "error", err)
		text := errors.MessageOr(err, "Webhook processing failed")
		i.state.Webhook = Outcome[string]{Phase: PhaseFailed, Error: text}
		i.state.Toast = toast(models.ToastError, text)
		return i.state
	}
	i.state.Webhook = Outcome[string]{Phase: PhaseSuccess, Value: &msg}
	i.state.Toast = toast(models.ToastSuccess, "Webhook processed for provider: "+provider)
	return i.state
}

// Poll asks the service to pull data from provider now.
func (i *Ingestion) Poll(ctx context.Context, provider string) IngestionState {
	if !slices.Contains(PollProviders, provider) {
		i.mu.Lock()
		defer i.mu.Unlock()
		i.state.Toast = toast(models.ToastError, "Unknown provider: "+provider)
		return i.state
	}

	ctx = detach(ctx)

	i.mu.Lock()
	if i.state.Poll.Loading() {
		i.mu.Unlock()
		return i.State()
	}
	i.state.Poll = Outcome[string]{Phase: PhaseLoading}
	i.mu.Unlock()

	msg, err := i.ack(i.api.TriggerPolling(ctx, provider))

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.logger.Error("data polling failed", "provider_id", provider, "error", err)
		text := errors.MessageOr(err, "Data polling failed")
		i.state.Poll = Outcome[string]{Phase: PhaseFailed, Error: text}
		i.state.Toast = toast(models.ToastError, text)
		return i.state
	}
	i.state.Poll = Outcome[string]{Phase: PhaseSuccess, Value: &msg}
	i.state.Toast = toast(models.ToastSuccess, "Data polling triggered for provider: "+provider)
	return i.state
}

func (i *Ingestion) ack(resp *gateway.Response, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return normalize.Ack(resp.Body)
}
