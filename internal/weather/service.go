package weather

import (
	"context"
)

// Service answers "wind along my route" requests: it picks the pressure
// level for the cruising altitude and resolves the waypoints at that level.
type Service struct {
	levels   LevelTable
	resolver *Resolver
}

// NewService creates a new Service.
func NewService(levels LevelTable, resolver *Resolver) *Service {
	return &Service{
		levels:   levels,
		resolver: resolver,
	}
}

// Unmetered returns a Service that answers like s but leaves the wind batch
// metrics untouched. Used for internal health traffic.
func (s *Service) Unmetered() *Service {
	return &Service{levels: s.levels, resolver: s.resolver.Unmetered()}
}

// Level classifies altitudeFt with the service's level table.
func (s *Service) Level(altitudeFt *float64) PressureLevel {
	return s.levels.Classify(altitudeFt)
}

// WindsAlongRoute returns the wind at every usable waypoint for the given
// cruising altitude. altitudeFt may be nil.
func (s *Service) WindsAlongRoute(ctx context.Context, altitudeFt *float64, waypoints []Waypoint) (BatchResult, error) {
	return s.resolver.Resolve(ctx, s.Level(altitudeFt), waypoints)
}
