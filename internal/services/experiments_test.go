package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

func validABTest() models.CreateABTestRequest {
	return models.CreateABTestRequest{
		TestName:              "new model rollout",
		ControlModelVersion:   "v1.0",
		TreatmentModelVersion: "v1.1",
		HoldoutPercentage:     10,
	}
}

func TestValidateABTest_Holdout(t *testing.T) {
	tests := []struct {
		holdout int
		valid   bool
	}{
		{0, false},
		{1, true},
		{50, true},
		{51, false},
	}

	for _, tt := range tests {
		req := validABTest()
		req.HoldoutPercentage = tt.holdout
		err := ValidateABTest(req)
		if tt.valid {
			assert.NoError(t, err, "holdout %d", tt.holdout)
		} else {
			assert.Error(t, err, "holdout %d", tt.holdout)
		}
	}
}

func TestExperiments_CreateInvalidMakesNoCall(t *testing.T) {
	api := newFakeAPI()
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	req := validABTest()
	req.HoldoutPercentage = 75
	state := e.Create(context.Background(), req)

	assert.Equal(t, 0, api.total())
	assert.Empty(t, state.Tests)
	require.NotNil(t, state.Toast)
	assert.Equal(t, models.ToastError, state.Toast.Level)
}

func TestExperiments_CreateAppendsTest(t *testing.T) {
	api := newFakeAPI().on("CreateABTest", `{"success":true,"data":{"testId":"ab_7"}}`)
	store := NewExperimentStore()
	e := NewExperiments(api, store, testOptions())

	state := e.Create(context.Background(), validABTest())

	require.Len(t, state.Tests, 1)
	test := state.Tests[0]
	assert.Equal(t, "ab_7", test.TestID)
	assert.Equal(t, models.ABTestActive, test.Status)
	assert.Equal(t, fixedNow, test.CreatedAt)
	assert.Equal(t, "A/B test created successfully", state.Toast.Message)
	assert.Equal(t, 1, store.Len())
}

func TestExperiments_CreateWithoutIDUsesTimestamp(t *testing.T) {
	api := newFakeAPI()
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	state := e.Create(context.Background(), validABTest())

	require.Len(t, state.Tests, 1)
	assert.Equal(t, "test_1709294400000", state.Tests[0].TestID)
}

func TestExperiments_CreateFailureLeavesListUnchanged(t *testing.T) {
	api := newFakeAPI().fail("CreateABTest", errors.Upstream(409, "duplicate test name"))
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	state := e.Create(context.Background(), validABTest())

	assert.Empty(t, state.Tests)
	assert.Equal(t, PhaseFailed, state.Create.Phase)
	assert.Equal(t, "duplicate test name", state.Toast.Message)
}

func TestExperiments_ViewResults(t *testing.T) {
	api := newFakeAPI().on("ABTestResults", `{"success":true,"data":{"results":{
		"controlGroup":{"transactions":100,"accuracy":0.9},
		"treatmentGroup":{"transactions":95,"accuracy":0.93},
		"winner":"treatment"}}}`)
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	state := e.ViewResults(context.Background(), "ab_7")

	require.NotNil(t, state.Results.Value)
	assert.False(t, state.Results.Value.Mock)
	assert.Equal(t, 195, state.Results.Value.TotalTransactions)
	assert.Equal(t, "treatment", state.Results.Value.Winner)
	require.NotNil(t, state.Selected)
	assert.Equal(t, "ab_7", state.Selected.TestID)
	assert.Nil(t, state.Toast)
}

func TestExperiments_ViewResultsFallsBackToMock(t *testing.T) {
	api := newFakeAPI().fail("ABTestResults", errors.Upstream(404, "not implemented"))
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	state := e.ViewResults(context.Background(), "ab_7")

	assert.Equal(t, PhaseSuccess, state.Results.Phase)
	require.NotNil(t, state.Results.Value)
	assert.Equal(t, normalize.MockABTestResults(), *state.Results.Value)
	require.NotNil(t, state.Toast)
	assert.Equal(t, models.ToastInfo, state.Toast.Level)
	assert.Equal(t, normalize.MockNotice, state.Toast.Message)
}

func TestExperiments_ProcessPayment(t *testing.T) {
	api := newFakeAPI().on("ProcessPayment", `{"success":true,"data":{"fraud_score":0.3,"model_version":"v1.1"}}`)
	e := NewExperiments(api, NewExperimentStore(), testOptions())

	state := e.ProcessPayment(context.Background(), models.PaymentRequest{Transaction: validTx(), MerchantID: "m_1"})

	require.NotNil(t, state.Payment.Value)
	assert.Equal(t, "v1.1", state.Payment.Value.ModelVersion)
	assert.Equal(t, "txn_1", state.Payment.Value.TransactionID)
}

func TestExperimentStore_ListIsACopy(t *testing.T) {
	store := NewExperimentStore()
	store.Append(models.ABTest{TestID: "a"})
	store.Append(models.ABTest{TestID: "b"})

	list := store.List()
	list[0].TestID = "changed"

	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.TestID)
	assert.Equal(t, "b", store.List()[1].TestID)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}
