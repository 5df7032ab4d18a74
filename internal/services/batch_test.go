package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/models"
)

func TestSampleBatch(t *testing.T) {
	batch := SampleBatch(fixedNow)

	require.Len(t, batch, 3)
	assert.Equal(t, "batch_txn_1709294400000_1", batch[0].TransactionID)
	assert.Equal(t, "batch_txn_1709294400000_3", batch[2].TransactionID)
	assert.Equal(t, 1500.0, batch[1].Amount)
	assert.Equal(t, "EUR", batch[2].Currency)
	assert.Equal(t, "DE", batch[2].CountryCode)
	for _, tx := range batch {
		assert.NoError(t, ValidateTransaction(tx))
	}
}

func TestBatchScorer_ThreeResultsThreeBadges(t *testing.T) {
	api := newFakeAPI().on("BatchInference", `{"success":true,"results":[
		{"fraud_score":0.12},{"fraud_score":0.91,"risk_factors":["high_amount"]},{"fraud_score":0.5}
	],"processing_time_ms":2.5}`)
	b := NewBatchScorer(api, testOptions())

	state := b.Run(context.Background())

	assert.Equal(t, PhaseSuccess, state.Phase)
	require.NotNil(t, state.Result)
	require.Len(t, state.Result.Results, 3)

	var flagged []bool
	for _, r := range state.Result.Results {
		flagged = append(flagged, r.Flagged())
	}
	assert.Equal(t, []bool{false, true, false}, flagged)
	assert.Equal(t, state.Submitted[1].TransactionID, state.Result.Results[1].TransactionID)
	assert.True(t, state.Result.HasProcessingTime)
	assert.Equal(t, "Batch fraud detection completed", state.Toast.Message)

	calls := api.callsTo("BatchInference")
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Payload, 3)
}

func TestBatchScorer_FailureThenRetry(t *testing.T) {
	api := newFakeAPI().fail("BatchInference", errBoom)
	b := NewBatchScorer(api, testOptions())

	state := b.Run(context.Background())
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Nil(t, state.Result)
	assert.Equal(t, models.ToastError, state.Toast.Level)
	assert.Equal(t, "Batch fraud detection failed", state.Toast.Message)

	api.on("BatchInference", `{"predictions":[{"fraud_score":0.2}]}`)
	state = b.Run(context.Background())
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Len(t, state.Result.Results, 1)
}
