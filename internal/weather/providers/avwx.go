package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
)

var (
	// ErrAVWXTokenMissing is returned when no AVWX token is configured.
	ErrAVWXTokenMissing = errors.New("AVWX_TOKEN not set")

	// ErrAVWXInvalidJSON is returned when AVWX answers 200 with a non-JSON body.
	ErrAVWXInvalidJSON = errors.New("invalid json from avwx")
)

// AVWXProvider fetches METAR reports from avwx.rest. The token stays on the
// server; callers get the upstream JSON unchanged.
type AVWXProvider struct {
	name    string
	token   string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAVWXProvider(httpCfg HTTPClientConfig, baseURL, token string) *AVWXProvider {
	return &AVWXProvider{
		name:    "avwx",
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/") + "/api/metar",
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("avwx"),
	}
}

func (p *AVWXProvider) Name() string {
	return p.name
}

// Metar returns the raw METAR JSON for station icao. A *StatusError is
// returned for any reply other than 200.
func (p *AVWXProvider) Metar(ctx context.Context, icao string) (json.RawMessage, error) {
	if p.token == "" {
		return nil, ErrAVWXTokenMissing
	}

	values := url.Values{}
	values.Set("format", "json")
	values.Set("onfail", "cache")

	u := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(icao), values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, req)
	if err != nil {
		return nil, err
	}
	// Only a 200 carries a report; other 2xx codes are passed back as status errors.
	if resp.StatusCode != http.StatusOK {
		return nil, drainStatus(resp)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read avwx reply: %w", err)
	}
	if !json.Valid(body) {
		return nil, ErrAVWXInvalidJSON
	}
	return json.RawMessage(body), nil
}
