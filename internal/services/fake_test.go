package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/gateway"
	"fraud-console/internal/models"
)

type call struct {
	Method  string
	Payload any
}

// fakeAPI answers every method with the canned body or error registered for
// it. Unregistered methods answer {"success":true}.
type fakeAPI struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	calls   []call
	gate    chan struct{}
	started chan string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) on(method, body string) *fakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[method] = body
	delete(f.errs, method)
	return f
}

func (f *fakeAPI) fail(method string, err error) *fakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
	return f
}

func (f *fakeAPI) callsTo(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) answer(method string, payload any) (*gateway.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Payload: payload})
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- method
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	body, ok := f.bodies[method]
	if !ok {
		body = `{"success":true}`
	}
	return &gateway.Response{Status: 200, Body: json.RawMessage(body)}, nil
}

func (f *fakeAPI) Health(ctx context.Context) (*gateway.Response, error) {
	return f.answer("Health", nil)
}

func (f *fakeAPI) InferenceStats(ctx context.Context) (*gateway.Response, error) {
	return f.answer("InferenceStats", nil)
}

func (f *fakeAPI) FastInference(ctx context.Context, tx models.Transaction) (*gateway.Response, error) {
	return f.answer("FastInference", tx)
}

func (f *fakeAPI) BatchInference(ctx context.Context, txs []models.Transaction) (*gateway.Response, error) {
	return f.answer("BatchInference", txs)
}

func (f *fakeAPI) CreateABTest(ctx context.Context, req models.CreateABTestRequest) (*gateway.Response, error) {
	return f.answer("CreateABTest", req)
}

func (f *fakeAPI) ABTestResults(ctx context.Context, testID string) (*gateway.Response, error) {
	return f.answer("ABTestResults", testID)
}

func (f *fakeAPI) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*gateway.Response, error) {
	return f.answer("ProcessPayment", req)
}

func (f *fakeAPI) UploadFile(ctx context.Context, filename string, file io.Reader) (*gateway.Response, error) {
	blob, _ := io.ReadAll(file)
	return f.answer("UploadFile", filename+":"+string(blob))
}

func (f *fakeAPI) RunETL(ctx context.Context, req models.ETLRequest) (*gateway.Response, error) {
	return f.answer("RunETL", req)
}

func (f *fakeAPI) ProcessWebhook(ctx context.Context, providerID string, event models.WebhookEvent) (*gateway.Response, error) {
	return f.answer("ProcessWebhook", webhookCall{Provider: providerID, Event: event})
}

func (f *fakeAPI) TriggerPolling(ctx context.Context, providerID string) (*gateway.Response, error) {
	return f.answer("TriggerPolling", providerID)
}

type webhookCall struct {
	Provider string
	Event    models.WebhookEvent
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
		Now:    func() time.Time { return fixedNow },
		Seed:   &[2]uint64{1, 2},
	}
}

var errBoom = errors.UpstreamUnavailable(io.ErrUnexpectedEOF, "test")
