package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
)

func TestValidateUploadName(t *testing.T) {
	assert.NoError(t, ValidateUploadName("transactions.csv"))
	assert.NoError(t, ValidateUploadName("EXPORT.CSV"))
	assert.Error(t, ValidateUploadName("transactions.xlsx"))
	assert.Error(t, ValidateUploadName("csv"))
	assert.Error(t, ValidateUploadName(""))
}

func TestIngestion_UploadRejectsNonCSV(t *testing.T) {
	api := newFakeAPI()
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.Upload(context.Background(), "data.json", strings.NewReader("{}"))

	assert.Equal(t, 0, api.total())
	assert.Equal(t, PhaseIdle, state.Upload.Phase)
	assert.Equal(t, models.ToastError, state.Toast.Level)
}

func TestIngestion_Upload(t *testing.T) {
	api := newFakeAPI().on("UploadFile", `{"success":true,"data":{"recordsProcessed":2,"processingTime":14}}`)
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.Upload(context.Background(), "tx.csv", strings.NewReader("id\n1\n2\n"))

	require.NotNil(t, state.Upload.Value)
	assert.Equal(t, "tx.csv", state.Upload.Value.Filename)
	assert.Equal(t, 2, state.Upload.Value.RecordsProcessed)
	assert.Equal(t, "File uploaded and processed successfully", state.Toast.Message)

	calls := api.callsTo("UploadFile")
	require.Len(t, calls, 1)
	assert.Equal(t, "tx.csv:id\n1\n2\n", calls[0].Payload)
}

func TestIngestion_RunETL(t *testing.T) {
	api := newFakeAPI().on("RunETL", `{"success":true,"data":{"jobId":"job_9"}}`)
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.RunETL(context.Background())

	require.NotNil(t, state.ETL.Value)
	assert.Equal(t, "job_9", state.ETL.Value.JobID)
	assert.Equal(t, "Running", state.ETL.Value.Status)
	assert.Equal(t, fixedNow, state.ETL.Value.StartedAt)
	assert.Equal(t, "ETL pipeline started successfully", state.Toast.Message)

	calls := api.callsTo("RunETL")
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultETLRequest, calls[0].Payload)
}

func TestIngestion_RunETLFailure(t *testing.T) {
	api := newFakeAPI().fail("RunETL", errBoom)
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.RunETL(context.Background())

	assert.Equal(t, PhaseFailed, state.ETL.Phase)
	assert.Nil(t, state.ETL.Value)
	assert.Equal(t, "ETL pipeline failed to start", state.Toast.Message)
}

func TestTestWebhookEvent(t *testing.T) {
	event := TestWebhookEvent(fixedNow)

	assert.Equal(t, "payment_processed", event.EventType)
	assert.Equal(t, "2024-03-01T12:00:00Z", event.Timestamp)
	assert.Equal(t, "webhook_txn_1709294400000", event.Data.TransactionID)
	assert.Equal(t, 299.99, event.Data.Amount)
	assert.Equal(t, "merchant_001", event.Data.MerchantID)

	_, err := time.Parse(time.RFC3339, event.Timestamp)
	assert.NoError(t, err)
}

func TestIngestion_Webhook(t *testing.T) {
	api := newFakeAPI()
	i := NewIngestion(api, "test_provider", testOptions())
	assert.Equal(t, "test_provider", i.State().WebhookProvider)

	state := i.TestWebhook(context.Background(), " provider_1 ")

	assert.Equal(t, PhaseSuccess, state.Webhook.Phase)
	assert.Equal(t, "Webhook processed for provider: provider_1", state.Toast.Message)
	assert.Equal(t, "provider_1", state.WebhookProvider)

	calls := api.callsTo("ProcessWebhook")
	require.Len(t, calls, 1)
	sent := calls[0].Payload.(webhookCall)
	assert.Equal(t, "provider_1", sent.Provider)
	assert.Equal(t, "payment_processed", sent.Event.EventType)

	api.fail("ProcessWebhook", errors.Rejected("signature mismatch"))
	state = i.TestWebhook(context.Background(), "provider_1")
	assert.Equal(t, PhaseFailed, state.Webhook.Phase)
	assert.Equal(t, "signature mismatch", state.Toast.Message)
}

func TestIngestion_WebhookNeedsProvider(t *testing.T) {
	api := newFakeAPI()
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.TestWebhook(context.Background(), "  ")

	assert.Equal(t, PhaseIdle, state.Webhook.Phase)
	assert.Equal(t, "Please enter provider ID", state.Toast.Message)
	assert.Zero(t, api.total())
}

func TestIngestion_Poll(t *testing.T) {
	api := newFakeAPI()
	i := NewIngestion(api, "test_provider", testOptions())

	state := i.Poll(context.Background(), "provider_2")
	assert.Equal(t, PhaseSuccess, state.Poll.Phase)
	assert.Equal(t, "Data polling triggered for provider: provider_2", state.Toast.Message)

	state = i.Poll(context.Background(), "nobody")
	assert.Len(t, api.callsTo("TriggerPolling"), 1)
	assert.Equal(t, models.ToastError, state.Toast.Level)
}

func TestIngestion_ActionsAreIndependent(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.started = make(chan string, 2)
	i := NewIngestion(api, "test_provider", testOptions())

	done := make(chan struct{}, 2)
	go func() { i.RunETL(context.Background()); done <- struct{}{} }()
	go func() { i.Poll(context.Background(), "provider_1"); done <- struct{}{} }()

	<-api.started
	<-api.started
	state := i.State()
	assert.True(t, state.ETL.Loading())
	assert.True(t, state.Poll.Loading())
	assert.False(t, state.Upload.Loading())

	close(api.gate)
	<-done
	<-done
	assert.Equal(t, PhaseSuccess, i.State().ETL.Phase)
	assert.Equal(t, PhaseSuccess, i.State().Poll.Phase)
}
