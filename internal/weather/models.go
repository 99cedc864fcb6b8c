package weather

import (
	"encoding/json"
	"strconv"
)

// PressureLevel is a standard isobaric surface label as used by the upstream,
// e.g. "925hPa".
type PressureLevel string

// Waypoint is a single point along a route for which wind is requested.
// ID is kept as raw JSON so it is echoed back exactly as the caller sent it.
// Lat/Lon are nil when the caller's value could not be read as a number.
type Waypoint struct {
	ID  json.RawMessage
	Lat *float64
	Lon *float64
}

// IndexID returns the default waypoint identifier for position i.
func IndexID(i int) json.RawMessage {
	return json.RawMessage(strconv.Itoa(i))
}

// Coordinate is a single lat/lon pair sent upstream.
type Coordinate struct {
	Lat float64
	Lon float64
}

// WindSample is the forecast wind at one waypoint.
type WindSample struct {
	WaypointID json.RawMessage `json:"id"`
	Lat        float64         `json:"lat"`
	Lon        float64         `json:"lon"`
	Speed      float64         `json:"wind_spd"` // knots
	Direction  float64         `json:"wind_dir"` // degrees true
}

// Units describes the units of WindSample values.
type Units struct {
	Speed     string `json:"speed"`
	Direction string `json:"direction"`
}

// DefaultUnits are the units every BatchResult is reported in.
var DefaultUnits = Units{Speed: "kn", Direction: "deg"}

// BatchResult is the normalized answer for one route request.
// Samples are in filtered-waypoint order; waypoints without data are absent.
type BatchResult struct {
	Level             PressureLevel `json:"level"`
	SpeedVariable     string        `json:"speed_variable"`
	DirectionVariable string        `json:"direction_variable"`
	Units             Units         `json:"units"`
	Samples           []WindSample  `json:"points"`
}
