package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/route-winds-aggregation/internal/observability"
	"github.com/i474232898/route-winds-aggregation/internal/weather"
)

// staleAfter is how many probe intervals may pass without a success before
// the service reports not ready.
const staleAfter = 3

var errNoProbeYet = errors.New("upstream not probed yet")

// Prober checks the upstream with a one-waypoint wind batch and remembers
// when it last succeeded.
type Prober struct {
	service  *weather.Service
	waypoint weather.Waypoint
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu          sync.Mutex
	lastSuccess time.Time
	lastErr     error
}

// NewProber creates a Prober for the given probe location. interval 0 means
// probing is disabled and the service is always reported ready. metrics may be nil.
// Probe batches are kept out of the caller-facing wind batch metrics.
func NewProber(service *weather.Service, lat, lon float64, interval time.Duration,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Prober {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		service:  service.Unmetered(),
		waypoint: weather.Waypoint{ID: weather.IndexID(0), Lat: &lat, Lon: &lon},
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Probe runs one upstream check at the default cruising altitude.
func (p *Prober) Probe(ctx context.Context) error {
	_, err := p.service.WindsAlongRoute(ctx, nil, []weather.Waypoint{p.waypoint})

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErr = err
	if err != nil {
		p.logger.Warn("upstream probe failed", "error", err)
		p.setUp(0)
		return err
	}
	p.lastSuccess = p.clock.Now()
	p.setUp(1)
	return nil
}

func (p *Prober) setUp(v float64) {
	if p.metrics != nil {
		p.metrics.UpstreamUp.Set(v)
	}
}

// CheckReadiness reports an error unless a probe succeeded recently.
func (p *Prober) CheckReadiness(_ context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastSuccess.IsZero() {
		if p.lastErr != nil {
			return fmt.Errorf("upstream probe failing: %w", p.lastErr)
		}
		return errNoProbeYet
	}

	age := p.clock.Since(p.lastSuccess)
	if age > staleAfter*p.interval {
		if p.lastErr != nil {
			return fmt.Errorf("no successful upstream probe for %s: %w", age.Round(time.Second), p.lastErr)
		}
		return fmt.Errorf("no successful upstream probe for %s", age.Round(time.Second))
	}
	return nil
}
