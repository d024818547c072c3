package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// ErrUnavailable is returned for any transport, status, or decode failure.
// Callers degrade to a distance-only estimate instead of failing the tick.
var ErrUnavailable = errors.New("directions unavailable")

// Result is one routed leg between two points.
type Result struct {
	DurationS float64
	DistanceM float64
	Geometry  []geo.Point
}

// Client fetches routes from an OSRM-compatible HTTP endpoint.
type Client struct {
	baseURL    string
	geometries string // "geojson" or "polyline"
	httpClient *http.Client
}

// NewClient builds a Client from configuration. Geometries defaults to
// geojson; timeout defaults to 10 seconds.
func NewClient(cfg config.DirectionsConfig) *Client {
	geometries := cfg.Geometries
	if geometries == "" {
		geometries = "geojson"
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		geometries: geometries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64         `json:"duration"`
		Distance float64         `json:"distance"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

type geojsonGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// Route requests a driving route from from to to. Any failure is reported as
// an error wrapping ErrUnavailable.
func (c *Client) Route(ctx context.Context, from, to geo.Point) (Result, error) {
	if c.baseURL == "" {
		return Result{}, fmt.Errorf("%w: no base URL configured", ErrUnavailable)
	}
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=%s",
		c.baseURL, from.Lon, from.Lat, to.Lon, to.Lat, c.geometries)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if parsed.Code != "" && parsed.Code != "Ok" {
		return Result{}, fmt.Errorf("%w: code %s", ErrUnavailable, parsed.Code)
	}
	if len(parsed.Routes) == 0 {
		return Result{}, fmt.Errorf("%w: no routes", ErrUnavailable)
	}

	r := parsed.Routes[0]
	geom, err := c.decodeGeometry(r.Geometry)
	if err != nil {
		return Result{}, err
	}
	return Result{
		DurationS: r.Duration,
		DistanceM: r.Distance,
		Geometry:  geom,
	}, nil
}

func (c *Client) decodeGeometry(raw json.RawMessage) ([]geo.Point, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if c.geometries == "polyline" {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("%w: polyline geometry: %v", ErrUnavailable, err)
		}
		coords, _, err := polyline.DecodeCoords([]byte(encoded))
		if err != nil {
			return nil, fmt.Errorf("%w: polyline decode: %v", ErrUnavailable, err)
		}
		pts := make([]geo.Point, len(coords))
		for i, c := range coords {
			pts[i] = geo.Point{Lat: c[0], Lon: c[1]}
		}
		return pts, nil
	}

	var g geojsonGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("%w: geojson geometry: %v", ErrUnavailable, err)
	}
	pts := make([]geo.Point, 0, len(g.Coordinates))
	for _, pair := range g.Coordinates {
		if len(pair) < 2 {
			continue
		}
		pts = append(pts, geo.Point{Lon: pair[0], Lat: pair[1]})
	}
	return pts, nil
}
