package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roadgenie/internal/domain"
)

const defaultBaseURL = "http://router.project-osrm.org"

// routeResponse is the subset of an OSRM route response this client reads.
// Geometry points arrive as [lon, lat] pairs.
type routeResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Client fetches driving routes from an OSRM server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// routePath builds the OSRM route path. OSRM expects waypoints as
// lon,lat;lon,lat.
func routePath(start, end domain.Coordinates) string {
	return "/route/v1/driving/" +
		formatFloat(start.Lon) + "," + formatFloat(start.Lat) + ";" +
		formatFloat(end.Lon) + "," + formatFloat(end.Lat)
}

// Route requests a driving route between two points and returns its polyline.
// OSRM returns geometry points as (longitude, latitude); every point is
// flipped to (latitude, longitude) before returning. Getting that order
// wrong draws routes in the ocean, so the flip is part of this method's
// contract, not a presentation detail.
func (c *Client) Route(ctx context.Context, start, end domain.Coordinates) (domain.Polyline, error) {
	endpoint := c.baseURL + routePath(start, end) + "?geometries=geojson&overview=full"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm: create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("osrm: unexpected status %d", res.StatusCode)
	}

	var payload routeResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", err)
	}
	if len(payload.Routes) == 0 {
		return nil, fmt.Errorf("osrm: no routes in response")
	}

	points := payload.Routes[0].Geometry.Coordinates
	if len(points) == 0 {
		return nil, fmt.Errorf("osrm: route has no geometry")
	}

	polyline := make(domain.Polyline, 0, len(points))
	for i, p := range points {
		if len(p) < 2 {
			return nil, fmt.Errorf("osrm: geometry point %d has %d components", i, len(p))
		}
		polyline = append(polyline, domain.Coordinates{Lat: p[1], Lon: p[0]})
	}
	return polyline, nil
}
