package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// QueryOptions are the fixed request settings passed to the upstream.
type QueryOptions struct {
	SpeedUnit     string
	Model         string
	ForecastHours int
	Timezone      string
}

// WeatherQuery abstracts the upstream forecast source (e.g. Open-Meteo).
// Coordinates and reply elements are aligned by position.
type WeatherQuery interface {
	Name() string
	Query(ctx context.Context, coords []Coordinate, variables []string, opts QueryOptions) (UpstreamReply, error)
}

// ReplyShape records which JSON form the upstream answered with.
type ReplyShape int

const (
	ShapeUnknown ReplyShape = iota
	ShapeSingle             // one JSON object, sent for a single coordinate
	ShapeList               // JSON array, one element per coordinate
)

// LocationReply is one upstream element. Hourly maps a variable name to its
// time series; values stay raw because the upstream may send nulls.
type LocationReply struct {
	Latitude  float64                      `json:"latitude"`
	Longitude float64                      `json:"longitude"`
	Hourly    map[string][]json.RawMessage `json:"hourly"`
}

// UpstreamReply is a decoded upstream body of either shape.
type UpstreamReply struct {
	Shape ReplyShape
	items []LocationReply
}

// SingleReply builds a reply as if the upstream returned a single object.
func SingleReply(loc LocationReply) UpstreamReply {
	return UpstreamReply{Shape: ShapeSingle, items: []LocationReply{loc}}
}

// ListReply builds a reply as if the upstream returned an array.
func ListReply(locs ...LocationReply) UpstreamReply {
	return UpstreamReply{Shape: ShapeList, items: locs}
}

// UnmarshalJSON accepts either an object or an array of objects.
func (r *UpstreamReply) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty upstream reply")
	}

	switch data[0] {
	case '{':
		var loc LocationReply
		if err := json.Unmarshal(data, &loc); err != nil {
			return err
		}
		*r = SingleReply(loc)
	case '[':
		var locs []LocationReply
		if err := json.Unmarshal(data, &locs); err != nil {
			return err
		}
		*r = ListReply(locs...)
	default:
		return errors.New("upstream reply is neither an object nor an array")
	}
	return nil
}

// Locations returns the reply as a list regardless of its shape.
func (r UpstreamReply) Locations() []LocationReply {
	return r.items
}
