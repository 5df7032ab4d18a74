package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

const defaultHealthWarning = "Some services may be experiencing issues"

type DashboardState struct {
	Phase       Phase                  `json:"phase"`
	Health      *models.HealthStatus   `json:"health,omitempty"`
	Stats       *models.InferenceStats `json:"stats,omitempty"`
	LastRefresh time.Time              `json:"last_refresh"`
}

type StatusBadge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// SystemStatus derives the header badge from the last health answer.
func (s DashboardState) SystemStatus() StatusBadge {
	switch {
	case s.Health == nil:
		return StatusBadge{Label: "loading", Color: "default"}
	case s.Health.Success:
		return StatusBadge{Label: "Operational", Color: "success"}
	default:
		return StatusBadge{Label: "Issues Detected", Color: "error"}
	}
}

// HealthWarning returns the banner text when the service reports itself
// unhealthy.
func (s DashboardState) HealthWarning() (string, bool) {
	if s.Health == nil || s.Health.Success {
		return "", false
	}
	if s.Health.Message != "" {
		return s.Health.Message, true
	}
	return defaultHealthWarning, true
}

type Dashboard struct {
	api    FraudAPI
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state DashboardState
	epoch uint64
}

func NewDashboard(api FraudAPI, opts Options) *Dashboard {
	opts = opts.withDefaults()
	return &Dashboard{
		api:    api,
		logger: opts.Logger,
		now:    opts.Now,
		state:  DashboardState{Phase: PhaseIdle},
	}
}

func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Refresh fetches health and stats concurrently and waits for both to
// settle. Each answer is applied on its own: a failed call leaves its
// section as it was and is only logged.
func (d *Dashboard) Refresh(ctx context.Context) DashboardState {
	ctx = detach(ctx)

	d.mu.Lock()
	d.epoch++
	epoch := d.epoch
	d.state.Phase = PhaseLoading
	d.mu.Unlock()

	var (
		health    *models.HealthStatus
		stats     *models.InferenceStats
		healthErr error
		statsErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		resp, err := d.api.Health(ctx)
		if err != nil {
			healthErr = err
			return nil
		}
		h, err := normalize.Health(resp.Body)
		if err != nil {
			healthErr = err
			return nil
		}
		health = &h
		return nil
	})
	g.Go(func() error {
		resp, err := d.api.InferenceStats(ctx)
		if err != nil {
			statsErr = err
			return nil
		}
		st, err := normalize.Stats(resp.Body)
		if err != nil {
			statsErr = err
			return nil
		}
		stats = &st
		return nil
	})
	_ = g.Wait()

	if healthErr != nil {
		d.logger.Error("health check failed", "error", healthErr)
	}
	if statsErr != nil {
		d.logger.Error("stats fetch failed", "error", statsErr)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if epoch != d.epoch {
		d.logger.Debug("dropping stale dashboard refresh", "epoch", epoch, "current", d.epoch)
		return d.state
	}
	if health != nil {
		d.state.Health = health
	}
	if stats != nil {
		d.state.Stats = stats
	}
	d.state.LastRefresh = d.now()
	d.state.Phase = PhaseSuccess
	return d.state
}
