package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/route-winds-aggregation/internal/observability"
	"github.com/i474232898/route-winds-aggregation/internal/weather"
	"github.com/i474232898/route-winds-aggregation/internal/weather/providers"
)

var validate = validator.New()

// MetarSource returns raw METAR JSON for a station.
type MetarSource interface {
	Metar(ctx context.Context, icao string) (json.RawMessage, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, metar MetarSource, logger *slog.Logger, metrics *observability.Metrics) {
	winds := windsHandler(service, logger)

	// Path used by the navlog front end.
	app.Post("/api/gfs_wind", winds)
	app.Get("/api/metar", metarHandler(metar, logger, metrics))

	v1 := app.Group("/api/v1")
	v1.Post("/winds", winds)
}

// windsRequest is the route wind request body. Both the navlog front end
// names (alt_ft, points) and the long names are accepted. A batch is capped
// at 500 waypoints so the upstream query string stays bounded.
type windsRequest struct {
	AltFt      json.RawMessage `json:"alt_ft"`
	AltitudeFt json.RawMessage `json:"altitude_ft"`
	Points     []pointRequest  `json:"points" validate:"max=500"`
	Waypoints  []pointRequest  `json:"waypoints" validate:"max=500"`
}

type pointRequest struct {
	ID  json.RawMessage `json:"id"`
	Lat json.RawMessage `json:"lat"`
	Lon json.RawMessage `json:"lon"`
}

func (r windsRequest) altitude() *float64 {
	if len(r.AltFt) > 0 {
		return weather.CoerceFloat(r.AltFt)
	}
	return weather.CoerceFloat(r.AltitudeFt)
}

func (r windsRequest) toWaypoints() []weather.Waypoint {
	points := r.Points
	if len(points) == 0 {
		points = r.Waypoints
	}

	waypoints := make([]weather.Waypoint, len(points))
	for i, p := range points {
		waypoints[i] = weather.Waypoint{
			ID:  p.ID,
			Lat: weather.CoerceFloat(p.Lat),
			Lon: weather.CoerceFloat(p.Lon),
		}
	}
	return waypoints
}

func windsHandler(service *weather.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req windsRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return newAPIError(fiber.StatusBadRequest, "invalid_input", "request body must be a JSON object")
		}
		if err := validate.Struct(req); err != nil {
			return newAPIError(fiber.StatusBadRequest, "invalid_input", "too many waypoints (max 500)")
		}

		result, err := service.WindsAlongRoute(c.UserContext(), req.altitude(), req.toWaypoints())
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrInvalidInput):
				return newAPIError(fiber.StatusBadRequest, "invalid_input", err.Error())
			case errors.Is(err, weather.ErrUpstream):
				logger.Warn("route winds failed", "request_id", requestID(c), "error", err)
				return newAPIError(fiber.StatusBadGateway, "upstream_error", "weather provider unavailable")
			default:
				return err
			}
		}

		return c.JSON(result)
	}
}

func metarHandler(metar MetarSource, logger *slog.Logger, metrics *observability.Metrics) fiber.Handler {
	count := func(outcome string) {
		if metrics != nil {
			metrics.MetarRequests.WithLabelValues(outcome).Inc()
		}
	}

	return func(c *fiber.Ctx) error {
		icao := strings.ToUpper(strings.TrimSpace(c.Query("icao")))
		if icao == "" {
			count("bad_request")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing icao"})
		}

		body, err := metar.Metar(c.UserContext(), icao)
		if err != nil {
			count("upstream_error")
			logger.Warn("metar proxy failed", "request_id", requestID(c), "icao", icao, "error", err)

			var se *providers.StatusError
			switch {
			case errors.Is(err, providers.ErrAVWXTokenMissing):
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "server misconfig: AVWX_TOKEN not set",
				})
			case errors.Is(err, providers.ErrAVWXInvalidJSON):
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "invalid_json_from_avwx"})
			case errors.As(err, &se):
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
					"error":  "upstream_error",
					"status": se.StatusCode,
					"body":   se.Body,
				})
			default:
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "request_error: " + err.Error()})
			}
		}

		count("success")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
