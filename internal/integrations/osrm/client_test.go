package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roadgenie/internal/domain"
)

var (
	hyderabad = domain.Coordinates{Lat: 17.385, Lon: 78.4867}
	delhi     = domain.Coordinates{Lat: 28.6139, Lon: 77.209}
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
}

func TestRoutePath_LonLatOrder(t *testing.T) {
	path := routePath(hyderabad, delhi)
	require.Equal(t, "/route/v1/driving/78.4867,17.385;77.209,28.6139", path)
}

func TestRoute_HappyPath_FlipsCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/route/v1/driving/78.4867,17.385;77.209,28.6139", r.URL.Path)
		require.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Header().Set("Content-Type", "application/json")
		// Upstream geometry is (lon, lat).
		_, _ = w.Write([]byte(`{"routes":[{"geometry":{"coordinates":[[78.4867,17.385],[77.2,28.6],[77.209,28.6139]]}}]}`))
	}))
	defer srv.Close()

	polyline, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.NoError(t, err)
	require.Len(t, polyline, 3)
	// Every point must come back as (lat, lon).
	require.Equal(t, domain.Coordinates{Lat: 17.385, Lon: 78.4867}, polyline[0])
	require.Equal(t, domain.Coordinates{Lat: 28.6, Lon: 77.2}, polyline[1])
	require.Equal(t, domain.Coordinates{Lat: 28.6139, Lon: 77.209}, polyline[2])
}

func TestRoute_FixturePointFlip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[{"geometry":{"coordinates":[[77.2,28.6]]}}]}`))
	}))
	defer srv.Close()

	polyline, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.NoError(t, err)
	require.Equal(t, domain.Polyline{{Lat: 28.6, Lon: 77.2}}, polyline)
}

func TestRoute_NoRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no routes")
}

func TestRoute_EmptyGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[{"geometry":{"coordinates":[]}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no geometry")
}

func TestRoute_ShortGeometryPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[{"geometry":{"coordinates":[[77.2]]}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
	require.Contains(t, err.Error(), "components")
}

func TestRoute_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestRoute_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`nope`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestRoute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Route(context.Background(), hyderabad, delhi)
	require.Error(t, err)
}
