package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roadgenie/internal/domain"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim's usage policy requires an identifying User-Agent.
const userAgent = "roadgenie/1.0"

// searchResult is the subset of a Nominatim search item this client reads.
// Coordinates arrive as decimal strings.
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client resolves free-text place names to coordinates via the Nominatim
// search API, requesting at most one result per query.
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
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

// Geocode resolves a place name to coordinates. It returns an error for
// network failures, non-2xx responses, empty result sets, and malformed
// coordinates; callers decide how to degrade.
func (c *Client) Geocode(ctx context.Context, place string) (domain.Coordinates, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return domain.Coordinates{}, errors.New("nominatim: place name must not be empty")
	}

	query := url.Values{}
	query.Set("q", place)
	query.Set("format", "json")
	query.Set("limit", "1")
	endpoint := c.baseURL + "/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.Coordinates{}, fmt.Errorf("nominatim: unexpected status %d searching %q", res.StatusCode, place)
	}

	var results []searchResult
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim: no results for %q", place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: parse longitude %q: %w", results[0].Lon, err)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}
