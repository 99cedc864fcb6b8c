package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/route-winds-aggregation/internal/weather"
)

// OpenMeteoProvider implements weather.WeatherQuery against the Open-Meteo
// GFS endpoint. Multiple coordinates go out in one request as comma-joined
// latitude/longitude lists.
type OpenMeteoProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider. baseURL is the host root, e.g.
// https://api.open-meteo.com; apiKey is only needed for the commercial host.
func NewOpenMeteoProvider(httpCfg HTTPClientConfig, baseURL, apiKey string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/gfs",
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Query fetches the hourly variables for every coordinate with one call.
func (p *OpenMeteoProvider) Query(
	ctx context.Context,
	coords []weather.Coordinate,
	variables []string,
	opts weather.QueryOptions,
) (weather.UpstreamReply, error) {
	if len(coords) == 0 {
		return weather.UpstreamReply{}, fmt.Errorf("openmeteo requires at least one coordinate")
	}

	req, err := http.NewRequest(http.MethodGet, p.buildURL(coords, variables, opts), nil)
	if err != nil {
		return weather.UpstreamReply{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, req)
	if err != nil {
		return weather.UpstreamReply{}, err
	}
	defer resp.Body.Close()

	var reply weather.UpstreamReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return weather.UpstreamReply{}, fmt.Errorf("decode openmeteo reply: %w", err)
	}
	return reply, nil
}

func (p *OpenMeteoProvider) buildURL(coords []weather.Coordinate, variables []string, opts weather.QueryOptions) string {
	lats := make([]string, len(coords))
	lons := make([]string, len(coords))
	for i, c := range coords {
		lats[i] = strconv.FormatFloat(c.Lat, 'f', -1, 64)
		lons[i] = strconv.FormatFloat(c.Lon, 'f', -1, 64)
	}

	values := url.Values{}
	values.Set("latitude", strings.Join(lats, ","))
	values.Set("longitude", strings.Join(lons, ","))
	values.Set("hourly", strings.Join(variables, ","))
	if opts.SpeedUnit != "" {
		values.Set("wind_speed_unit", opts.SpeedUnit)
	}
	if opts.Model != "" {
		values.Set("models", opts.Model)
	}
	if opts.ForecastHours > 0 {
		values.Set("forecast_hours", strconv.Itoa(opts.ForecastHours))
	}
	if opts.Timezone != "" {
		values.Set("timezone", opts.Timezone)
	}
	if p.apiKey != "" {
		values.Set("apikey", p.apiKey)
	}

	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

var _ weather.WeatherQuery = (*OpenMeteoProvider)(nil)
