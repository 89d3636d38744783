package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
)

const (
	DefaultHealthInterval = 30 * time.Second

	probeTimeout = 10 * time.Second
)

// HealthStatus is the most recent probe result of the model API
type HealthStatus struct {
	OK        bool                 `json:"ok"`
	URL       string               `json:"url"`
	Backend   *model.BackendHealth `json:"backend,omitempty"`
	Error     string               `json:"error,omitempty"`
	CheckedAt time.Time            `json:"checked_at"`
}

// HealthMonitor probes GET /health of the model API on a fixed schedule
type HealthMonitor struct {
	api      adapter.ModelAPI
	interval time.Duration
	cron     *cron.Cron
	now      func() time.Time

	mu   sync.RWMutex
	last *HealthStatus
}

func NewHealthMonitor(api adapter.ModelAPI, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthMonitor{
		api:      api,
		interval: interval,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start runs one probe immediately and schedules the rest. Probes stop with Stop or
// when ctx is cancelled.
func (m *HealthMonitor) Start(ctx context.Context) error {
	schedule := "@every " + m.interval.String()
	if _, err := m.cron.AddFunc(schedule, func() { m.Check(ctx) }); err != nil {
		return goerr.Wrap(err, "failed to schedule health probe", goerr.V("schedule", schedule))
	}

	m.Check(ctx)
	m.cron.Start()
	logging.From(ctx).Info("health monitor started", "url", m.api.BaseURL(), "interval", m.interval)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running probe
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Check probes the model API once and records the result
func (m *HealthMonitor) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := &HealthStatus{URL: m.api.BaseURL(), CheckedAt: m.now()}
	health, err := m.api.Health(ctx)
	switch {
	case err != nil:
		status.Error = err.Error()
	case !health.OK:
		status.Backend = health
		status.Error = health.Error
	default:
		status.OK = true
		status.Backend = health
	}

	m.mu.Lock()
	prev := m.last
	m.last = status
	m.mu.Unlock()

	if prev == nil || prev.OK != status.OK {
		logging.From(ctx).Info("model API health changed", "ok", status.OK, "error", status.Error)
	}
	return status
}

// Last returns the latest recorded probe, or nil before the first one
func (m *HealthMonitor) Last() *HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *HealthMonitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	last := m.Last()
	if last == nil {
		writeJSON(w, http.StatusServiceUnavailable, &HealthStatus{URL: m.api.BaseURL(), Error: "not checked yet"})
		return
	}

	code := http.StatusOK
	if !last.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, last)
}
