// Package services holds the page controllers. Each controller owns its view
// state, drives one or more fraud API calls per action and exposes value
// snapshots for rendering. Controllers never share state with each other.
package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"fraud-console/internal/gateway"
	"fraud-console/internal/models"
)

// FraudAPI is the slice of the gateway client the controllers depend on.
type FraudAPI interface {
	Health(ctx context.Context) (*gateway.Response, error)
	InferenceStats(ctx context.Context) (*gateway.Response, error)
	FastInference(ctx context.Context, tx models.Transaction) (*gateway.Response, error)
	BatchInference(ctx context.Context, txs []models.Transaction) (*gateway.Response, error)
	CreateABTest(ctx context.Context, req models.CreateABTestRequest) (*gateway.Response, error)
	ABTestResults(ctx context.Context, testID string) (*gateway.Response, error)
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (*gateway.Response, error)
	UploadFile(ctx context.Context, filename string, file io.Reader) (*gateway.Response, error)
	RunETL(ctx context.Context, req models.ETLRequest) (*gateway.Response, error)
	ProcessWebhook(ctx context.Context, providerID string, event models.WebhookEvent) (*gateway.Response, error)
	TriggerPolling(ctx context.Context, providerID string) (*gateway.Response, error)
}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Outcome is the state of one independently triggered action.
type Outcome[T any] struct {
	Phase Phase  `json:"phase"`
	Value *T     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func (o Outcome[T]) Loading() bool {
	return o.Phase == PhaseLoading
}

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	// Seed makes generated transactions and synthetic scores reproducible.
	Seed *[2]uint64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) random() *lockedRand {
	if o.Seed != nil {
		return &lockedRand{r: rand.New(rand.NewPCG(o.Seed[0], o.Seed[1]))}
	}
	return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// detach keeps request-scoped values but drops cancellation: an action runs
// to completion even if the browser goes away. The gateway timeout still
// bounds every call.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func toast(level models.ToastLevel, message string) *models.Toast {
	t := models.NewToast(level, message)
	return &t
}
