package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/normalize"
)

const (
	patchElements = "datastar-patch-elements"
	patchSignals  = "datastar-patch-signals"
)

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestSSE_DashboardRefresh(t *testing.T) {
	f := newFixture(t, map[string]string{
		"GET /api/fraud/health":          `{"success":true}`,
		"GET /api/fraud/inference/stats": `{"success":true,"data":{"total_inferences":4200,"avg_latency_ms":0.3}}`,
	})

	w := serve(f.sse.HandleDashboardRefresh, f.withSession(httptest.NewRequest(http.MethodGet, "/sse/dashboard/refresh", nil)))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, patchElements)
	assert.Contains(t, body, "Operational")
	assert.Contains(t, body, "4,200")
	assert.Equal(t, 1, f.upstream.count("GET /api/fraud/health"))
	assert.Equal(t, 1, f.upstream.count("GET /api/fraud/inference/stats"))
}

func TestSSE_DashboardPartialFailure(t *testing.T) {
	f := newFixture(t, map[string]string{
		"GET /api/fraud/health": `{"success":true}`,
	})

	w := serve(f.sse.HandleDashboardRefresh, f.withSession(httptest.NewRequest(http.MethodGet, "/sse/dashboard/refresh", nil)))

	assert.Contains(t, w.Body.String(), "Operational")
	assert.Contains(t, w.Body.String(), "Inference statistics unavailable.")
	assert.False(t, f.session.Dashboard.State().LastRefresh.IsZero())
}

func TestSSE_Score(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/inference/fast": `{"success":true,"fraud_score":0.91,"risk_factors":["velocity"]}`,
	})

	body := `{"tx":{"transaction_id":"txn_9","amount":"250.75","currency":"USD","payment_method":"credit_card","country_code":"US","user_id":"user_9"}}`
	req := httptest.NewRequest(http.MethodPost, "/sse/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.sse.HandleScore, f.withSession(req))

	out := w.Body.String()
	assert.Contains(t, out, "Fraudulent")
	assert.Contains(t, out, "91.0%")
	assert.Contains(t, out, "velocity")
	assert.Contains(t, out, "Fraud detection completed")
	assert.Equal(t, 250.75, f.session.Scorer.State().Input.Amount)
}

func TestSSE_ScoreValidationSkipsUpstream(t *testing.T) {
	f := newFixture(t, map[string]string{})

	req := httptest.NewRequest(http.MethodPost, "/sse/score", strings.NewReader(`{"tx":{"amount":10}}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.sse.HandleScore, f.withSession(req))

	assert.Contains(t, w.Body.String(), "Please enter")
	assert.Equal(t, 0, f.upstream.count("POST /api/fraud/inference/fast"))
}

func TestSSE_RandomTransactionPatchesSignals(t *testing.T) {
	f := newFixture(t, map[string]string{})

	w := serve(f.sse.HandleRandomTransaction, f.withSession(httptest.NewRequest(http.MethodPost, "/sse/score/random", nil)))

	assert.Contains(t, w.Body.String(), patchSignals)
	assert.Contains(t, w.Body.String(), "txn_")
	assert.NotEmpty(t, f.session.Scorer.State().Input.TransactionID)
	assert.Equal(t, 0, f.upstream.count("POST /api/fraud/inference/fast"))
}

func TestSSE_Batch(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/inference/batch": `{"success":true,"results":[{"fraud_score":0.1},{"fraud_score":0.8},{"fraud_score":0.2}]}`,
	})

	w := serve(f.sse.HandleBatch, f.withSession(httptest.NewRequest(http.MethodPost, "/sse/batch", nil)))

	out := w.Body.String()
	assert.Equal(t, 1, strings.Count(out, "badge-error"))
	assert.Equal(t, 2, strings.Count(out, "badge-success"))
	assert.Contains(t, out, "Batch fraud detection completed")
}

func TestSSE_CreateABTestAndMockResults(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/abtest/create": `{"success":true,"testId":"ab_42"}`,
	})

	body := `{"ab":{"testName":"rollout","controlModelVersion":"v1.0","treatmentModelVersion":"v1.1","holdoutPercentage":"20"}}`
	req := httptest.NewRequest(http.MethodPost, "/sse/experiments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.sse.HandleCreateABTest, f.withSession(req))

	assert.Contains(t, w.Body.String(), "rollout")
	assert.Contains(t, w.Body.String(), "A/B test created successfully")

	req = httptest.NewRequest(http.MethodGet, "/sse/experiments/ab_42/results", nil)
	req.SetPathValue("id", "ab_42")
	w = serve(f.sse.HandleABTestResults, f.withSession(req))

	assert.Contains(t, w.Body.String(), normalize.MockNotice)
	assert.Equal(t, 1, f.upstream.count("GET /api/fraud/abtest/ab_42/results"))
}

func TestSSE_CreateABTestRejectsHoldout(t *testing.T) {
	f := newFixture(t, map[string]string{})

	body := `{"ab":{"testName":"rollout","controlModelVersion":"v1.0","treatmentModelVersion":"v1.1","holdoutPercentage":80}}`
	req := httptest.NewRequest(http.MethodPost, "/sse/experiments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.sse.HandleCreateABTest, f.withSession(req))

	assert.Contains(t, w.Body.String(), "Holdout percentage must be between 1 and 50")
	assert.Equal(t, 0, f.upstream.count("POST /api/fraud/abtest/create"))
}

func TestSSE_CreateABTestRejectsFractionalHoldout(t *testing.T) {
	for _, holdout := range []string{`50.7`, `"50.9"`, `12.5`} {
		t.Run(holdout, func(t *testing.T) {
			f := newFixture(t, map[string]string{
				"POST /api/fraud/abtest/create": `{"success":true,"testId":"ab_1"}`,
			})

			body := `{"ab":{"testName":"rollout","controlModelVersion":"v1.0","treatmentModelVersion":"v1.1","holdoutPercentage":` + holdout + `}}`
			req := httptest.NewRequest(http.MethodPost, "/sse/experiments", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(f.sse.HandleCreateABTest, f.withSession(req))

			assert.Contains(t, w.Body.String(), "Holdout percentage must be a whole number between 1 and 50")
			assert.Equal(t, 0, f.upstream.count("POST /api/fraud/abtest/create"))
		})
	}
}

func TestSSE_ScoreRejectsNonFiniteAmount(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/inference/fast": `{"success":true,"fraud_score":0.1}`,
	})

	body := `{"tx":{"transaction_id":"txn_1","amount":"NaN","currency":"USD","payment_method":"credit_card","country_code":"US","user_id":"u1"}}`
	req := httptest.NewRequest(http.MethodPost, "/sse/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	serve(f.sse.HandleScore, f.withSession(req))

	assert.Equal(t, 0, f.upstream.count("POST /api/fraud/inference/fast"))
}

func TestSSE_Upload(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/ingest/file": `{"success":true,"data":{"recordsProcessed":3}}`,
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("dataFile", "tx.csv")
	require.NoError(t, err)
	part.Write([]byte("id\n1\n2\n3\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sse/ingest/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(f.sse.HandleUpload, f.withSession(req))

	assert.Contains(t, w.Body.String(), "File uploaded and processed successfully")
	assert.Equal(t, 1, f.upstream.count("POST /api/fraud/ingest/file"))
}

func TestSSE_UploadWithoutFile(t *testing.T) {
	f := newFixture(t, map[string]string{})

	req := httptest.NewRequest(http.MethodPost, "/sse/ingest/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := serve(f.sse.HandleUpload, f.withSession(req))

	assert.Contains(t, w.Body.String(), "Please select a CSV file")
}

func TestSSE_IngestionActions(t *testing.T) {
	f := newFixture(t, map[string]string{
		"POST /api/fraud/etl/run":                   `{"success":true,"data":{"jobId":"job_1"}}`,
		"POST /api/fraud/ingest/webhook/provider_2": `{"success":true}`,
		"POST /api/fraud/ingest/poll/provider_1":    `{"success":true}`,
	})

	w := serve(f.sse.HandleRunETL, f.withSession(httptest.NewRequest(http.MethodPost, "/sse/ingest/etl", nil)))
	assert.Contains(t, w.Body.String(), "job_1")

	webhook := httptest.NewRequest(http.MethodPost, "/sse/ingest/webhook",
		strings.NewReader(`{"webhook":{"providerId":"provider_2"}}`))
	webhook.Header.Set("Content-Type", "application/json")
	w = serve(f.sse.HandleWebhook, f.withSession(webhook))
	assert.Contains(t, w.Body.String(), "Webhook processed for provider: provider_2")

	req := httptest.NewRequest(http.MethodPost, "/sse/ingest/poll/provider_1", nil)
	req.SetPathValue("provider", "provider_1")
	w = serve(f.sse.HandlePoll, f.withSession(req))
	assert.Contains(t, w.Body.String(), "Data polling triggered for provider: provider_1")
}

func TestSSE_MissingSession(t *testing.T) {
	f := newFixture(t, map[string]string{})

	w := serve(f.sse.HandleBatch, httptest.NewRequest(http.MethodPost, "/sse/batch", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
