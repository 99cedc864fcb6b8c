package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/route-winds-aggregation/internal/observability"
)

// ResolverConfig is fixed at startup and never changed afterwards.
type ResolverConfig struct {
	// Timeout bounds the single upstream call. Zero means no extra deadline
	// beyond the caller's context.
	Timeout time.Duration
	Options QueryOptions
}

// Resolver fetches wind at one pressure level for a batch of waypoints
// with a single upstream call.
type Resolver struct {
	query   WeatherQuery
	cfg     ResolverConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewResolver creates a Resolver. metrics may be nil.
func NewResolver(query WeatherQuery, cfg ResolverConfig, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		query:   query,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Unmetered returns a copy of r that records no metrics.
func (r *Resolver) Unmetered() *Resolver {
	c := *r
	c.metrics = nil
	return &c
}

// SpeedVariable is the upstream hourly variable for wind speed at level.
func SpeedVariable(level PressureLevel) string {
	return "wind_speed_" + string(level)
}

// DirectionVariable is the upstream hourly variable for wind direction at level.
func DirectionVariable(level PressureLevel) string {
	return "wind_direction_" + string(level)
}

// retained is a waypoint that passed coordinate filtering.
type retained struct {
	id  json.RawMessage
	lat float64
	lon float64
}

// Resolve returns wind samples for waypoints at level. Waypoints with bad
// coordinates or without upstream data are left out of the samples; only an
// empty batch or a failed upstream call is an error.
func (r *Resolver) Resolve(ctx context.Context, level PressureLevel, waypoints []Waypoint) (BatchResult, error) {
	speedVar := SpeedVariable(level)
	dirVar := DirectionVariable(level)

	r.countWaypoints(len(waypoints))

	if len(waypoints) == 0 {
		r.countBatch("invalid_input")
		return BatchResult{}, fmt.Errorf("%w: no waypoints", ErrInvalidInput)
	}

	kept := make([]retained, 0, len(waypoints))
	coords := make([]Coordinate, 0, len(waypoints))
	for i, wp := range waypoints {
		if wp.Lat == nil || wp.Lon == nil || !isFinite(*wp.Lat) || !isFinite(*wp.Lon) {
			continue
		}
		id := wp.ID
		if isAbsentID(id) {
			id = IndexID(i)
		}
		kept = append(kept, retained{id: id, lat: *wp.Lat, lon: *wp.Lon})
		coords = append(coords, Coordinate{Lat: *wp.Lat, Lon: *wp.Lon})
	}
	r.countOmitted("bad_coordinates", len(waypoints)-len(kept))

	if len(kept) == 0 {
		r.countBatch("invalid_input")
		return BatchResult{}, fmt.Errorf("%w: no waypoint has a valid lat/lon", ErrInvalidInput)
	}

	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := r.query.Query(callCtx, coords, []string{speedVar, dirVar}, r.cfg.Options)
	if r.metrics != nil {
		r.metrics.UpstreamDuration.WithLabelValues(r.query.Name()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		r.countBatch("upstream_error")
		r.logger.Warn("wind batch upstream failed",
			"provider", r.query.Name(), "level", level, "points", len(coords), "error", err)
		return BatchResult{}, fmt.Errorf("%w: %s: %v", ErrUpstream, r.query.Name(), err)
	}

	samples := make([]WindSample, 0, len(kept))
	for i, loc := range reply.Locations() {
		if i >= len(kept) {
			break
		}
		speed, ok := firstValue(loc.Hourly, speedVar)
		if !ok {
			continue
		}
		dir, ok := firstValue(loc.Hourly, dirVar)
		if !ok {
			continue
		}

		wp := kept[i]
		samples = append(samples, WindSample{
			WaypointID: wp.id,
			Lat:        wp.lat,
			Lon:        wp.lon,
			Speed:      speed,
			Direction:  dir,
		})
	}

	r.countOmitted("no_data", len(kept)-len(samples))
	r.countBatch("success")
	if r.metrics != nil {
		r.metrics.SamplesProduced.Add(float64(len(samples)))
	}
	r.logger.Debug("wind batch resolved",
		"level", level, "waypoints", len(waypoints), "sent", len(kept), "samples", len(samples))

	return BatchResult{
		Level:             level,
		SpeedVariable:     speedVar,
		DirectionVariable: dirVar,
		Units:             DefaultUnits,
		Samples:           samples,
	}, nil
}

// isAbsentID reports whether id is missing or JSON null.
func isAbsentID(id json.RawMessage) bool {
	trimmed := bytes.TrimSpace(id)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// firstValue returns the first entry of the named hourly series when it is
// a finite number.
func firstValue(hourly map[string][]json.RawMessage, name string) (float64, bool) {
	series := hourly[name]
	if len(series) == 0 {
		return 0, false
	}
	v := CoerceFloat(series[0])
	if v == nil {
		return 0, false
	}
	return *v, true
}

func (r *Resolver) countBatch(outcome string) {
	if r.metrics != nil {
		r.metrics.WindBatches.WithLabelValues(outcome).Inc()
	}
}

func (r *Resolver) countWaypoints(n int) {
	if r.metrics != nil {
		r.metrics.WaypointsRequested.Add(float64(n))
	}
}

func (r *Resolver) countOmitted(reason string, n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.WaypointsOmitted.WithLabelValues(reason).Add(float64(n))
	}
}
