package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-winds-aggregation/internal/weather"
	"github.com/i474232898/route-winds-aggregation/internal/weather/providers"
)

type fakeQuery struct {
	reply  weather.UpstreamReply
	err    error
	calls  int
	coords []weather.Coordinate
	vars   []string
}

func (f *fakeQuery) Name() string { return "fake" }

func (f *fakeQuery) Query(_ context.Context, coords []weather.Coordinate, variables []string, _ weather.QueryOptions) (weather.UpstreamReply, error) {
	f.calls++
	f.coords = coords
	f.vars = variables
	return f.reply, f.err
}

type fakeMetar struct {
	body json.RawMessage
	err  error
	icao string
}

func (f *fakeMetar) Metar(_ context.Context, icao string) (json.RawMessage, error) {
	f.icao = icao
	return f.body, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(q weather.WeatherQuery, m MetarSource) *fiber.App {
	svc := weather.NewService(weather.DefaultLevelTable(),
		weather.NewResolver(q, weather.ResolverConfig{}, discard(), nil))
	return NewApp(Deps{Service: svc, Metar: m, Logger: discard()})
}

func location(level string, speed, dir string) weather.LocationReply {
	return weather.LocationReply{Hourly: map[string][]json.RawMessage{
		"wind_speed_" + level:     {json.RawMessage(speed)},
		"wind_direction_" + level: {json.RawMessage(dir)},
	}}
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func TestGFSWind_Success(t *testing.T) {
	q := &fakeQuery{reply: weather.ListReply(
		location("250hPa", "55.5", "280"),
		weather.LocationReply{},
		location("250hPa", "60", "290"),
	)}
	app := newTestApp(q, nil)

	resp, body := postJSON(t, app, "/api/gfs_wind", `{
		"alt_ft": 35000,
		"points": [
			{"id": 0, "lat": 35.55, "lon": 139.78},
			{"id": 1, "lat": 34.43, "lon": 135.23},
			{"id": 2, "lat": "33.58", "lon": "130.45"}
		]
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "250hPa", body["level"])
	assert.Equal(t, "wind_speed_250hPa", body["speed_variable"])
	assert.Equal(t, "wind_direction_250hPa", body["direction_variable"])
	assert.Equal(t, map[string]any{"speed": "kn", "direction": "deg"}, body["units"])
	assert.Equal(t, []string{"wind_speed_250hPa", "wind_direction_250hPa"}, q.vars)
	assert.Equal(t, 1, q.calls)

	points, ok := body["points"].([]any)
	require.True(t, ok)
	require.Len(t, points, 2)

	first := points[0].(map[string]any)
	assert.Equal(t, float64(0), first["id"])
	assert.Equal(t, 35.55, first["lat"])
	assert.Equal(t, 55.5, first["wind_spd"])
	assert.Equal(t, float64(280), first["wind_dir"])

	third := points[1].(map[string]any)
	assert.Equal(t, float64(2), third["id"])
	assert.Equal(t, 33.58, third["lat"])
	assert.Equal(t, 130.45, third["lon"])
}

func TestGFSWind_DefaultsAltitudeAndIDs(t *testing.T) {
	q := &fakeQuery{reply: weather.ListReply(
		location("925hPa", "8", "90"),
		location("925hPa", "9", "95"),
		location("925hPa", "7", "85"),
	)}
	app := newTestApp(q, nil)

	resp, body := postJSON(t, app, "/api/v1/winds", `{
		"altitude_ft": "high",
		"waypoints": [{"lat": 1, "lon": 2}, {"id": "WPT", "lat": 3, "lon": 4}, {"id": null, "lat": 5, "lon": 6}]
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "925hPa", body["level"])
	points := body["points"].([]any)
	require.Len(t, points, 3)
	assert.Equal(t, float64(0), points[0].(map[string]any)["id"])
	assert.Equal(t, "WPT", points[1].(map[string]any)["id"])
	assert.Equal(t, float64(2), points[2].(map[string]any)["id"])
}

func TestGFSWind_EmptyPoints(t *testing.T) {
	q := &fakeQuery{}
	app := newTestApp(q, nil)

	resp, body := postJSON(t, app, "/api/gfs_wind", `{"alt_ft": 5000, "points": []}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.NotContains(t, body, "points")
	assert.Equal(t, 0, q.calls)
}

func TestGFSWind_UnusableCoordinates(t *testing.T) {
	q := &fakeQuery{}
	app := newTestApp(q, nil)

	resp, body := postJSON(t, app, "/api/gfs_wind",
		`{"points": [{"id": 1, "lat": null, "lon": 2}, {"id": 2, "lat": "north", "lon": "east"}]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, 0, q.calls)
}

func TestGFSWind_MalformedBody(t *testing.T) {
	app := newTestApp(&fakeQuery{}, nil)

	resp, body := postJSON(t, app, "/api/gfs_wind", `{"points": [`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestGFSWind_TooManyPoints(t *testing.T) {
	q := &fakeQuery{}
	app := newTestApp(q, nil)

	pts := make([]string, 501)
	for i := range pts {
		pts[i] = `{"lat": 1, "lon": 1}`
	}
	resp, body := postJSON(t, app, "/api/gfs_wind", `{"points": [`+strings.Join(pts, ",")+`]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, 0, q.calls)
}

func TestGFSWind_UpstreamError(t *testing.T) {
	q := &fakeQuery{
		reply: weather.ListReply(location("925hPa", "1", "1")),
		err:   errors.New("unexpected status code: 503"),
	}
	app := newTestApp(q, nil)

	resp, body := postJSON(t, app, "/api/gfs_wind", `{"points": [{"lat": 1, "lon": 2}]}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream_error", body["error"])
	assert.NotContains(t, body, "points")
}

func TestMetar_Proxy(t *testing.T) {
	m := &fakeMetar{body: json.RawMessage(`{"station":"RJAF","flight_rules":"VFR"}`)}
	app := newTestApp(&fakeQuery{}, m)

	req := httptest.NewRequest(http.MethodGet, "/api/metar?icao=%20rjaf%20", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RJAF", m.icao)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"station":"RJAF","flight_rules":"VFR"}`, string(raw))
}

func TestMetar_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
		want   map[string]any
	}{
		{
			name:   "missing icao",
			query:  "",
			status: http.StatusBadRequest,
			want:   map[string]any{"error": "missing icao"},
		},
		{
			name:   "no token",
			query:  "RJAF",
			err:    providers.ErrAVWXTokenMissing,
			status: http.StatusInternalServerError,
			want:   map[string]any{"error": "server misconfig: AVWX_TOKEN not set"},
		},
		{
			name:   "upstream status",
			query:  "RJAF",
			err:    &providers.StatusError{StatusCode: 401, Body: "unauthorized"},
			status: http.StatusBadGateway,
			want:   map[string]any{"error": "upstream_error", "status": float64(401), "body": "unauthorized"},
		},
		{
			name:   "invalid json",
			query:  "RJAF",
			err:    providers.ErrAVWXInvalidJSON,
			status: http.StatusBadGateway,
			want:   map[string]any{"error": "invalid_json_from_avwx"},
		},
		{
			name:   "transport",
			query:  "RJAF",
			err:    errors.New("dial tcp: timeout"),
			status: http.StatusBadGateway,
			want:   map[string]any{"error": "request_error: dial tcp: timeout"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&fakeQuery{}, &fakeMetar{err: tc.err})

			req := httptest.NewRequest(http.MethodGet, "/api/metar?icao="+tc.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.want, body)
		})
	}
}
