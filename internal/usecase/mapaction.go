package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc"

	"roadgenie/internal/domain"
)

// Fallback notices appended to the visible reply when an external lookup
// fails. Wording is part of the product contract with the frontend.
const (
	routeFailedNotice      = " (Route calculation failed, showing pins only.)"
	geocodeFailedNotice    = " (Geocoding failed for one or both locations.)"
	pinGeocodeFailedNotice = " (Geocoding failed for the location.)"
)

// decideMapAction runs the per-turn decision state machine over an
// extraction and returns the map action plus a notice to append to the
// visible text ("" when nothing went wrong). A trigger phrase without its
// required tags never causes an external call. Geocode and route failures
// are absorbed here: they are logged and downgraded per the fallback policy,
// never returned.
func (s *ChatService) decideMapAction(ctx context.Context, ex extraction) (*domain.MapAction, string) {
	switch {
	case ex.routeSuggested && ex.start != nil && ex.end != nil:
		return s.routeAction(ctx, ex.start.Name, ex.end.Name)
	case ex.pinRequested && ex.end != nil:
		return s.pinAction(ctx, ex.end.Name)
	default:
		return nil, ""
	}
}

// routeAction geocodes both endpoints, then asks the router for a polyline.
// The two geocode calls are independent; they run concurrently and join
// before routing. If either fails the route call is skipped entirely. If
// only the route fails, the destination pin survives as a fallback.
func (s *ChatService) routeAction(ctx context.Context, startName, endName string) (*domain.MapAction, string) {
	var (
		startCoords, endCoords domain.Coordinates
		startErr, endErr       error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		startCoords, startErr = s.geocoder.Geocode(ctx, startName)
	})
	wg.Go(func() {
		endCoords, endErr = s.geocoder.Geocode(ctx, endName)
	})
	wg.Wait()

	if startErr != nil || endErr != nil {
		slog.Warn("geocoding failed for route endpoints",
			"start", startName, "startErr", startErr,
			"end", endName, "endErr", endErr)
		return nil, geocodeFailedNotice
	}

	polyline, err := s.router.Route(ctx, startCoords, endCoords)
	if err != nil {
		slog.Warn("route calculation failed, falling back to destination pin",
			"start", startName, "end", endName, "err", err)
		return domain.AddPinAction(endCoords, "Destination Pinned: "+endName), routeFailedNotice
	}

	popup := fmt.Sprintf("Route from %s to %s", startName, endName)
	return domain.NewRouteAction(polyline, popup), ""
}

func (s *ChatService) pinAction(ctx context.Context, endName string) (*domain.MapAction, string) {
	coords, err := s.geocoder.Geocode(ctx, endName)
	if err != nil {
		slog.Warn("geocoding failed for pin", "place", endName, "err", err)
		return nil, pinGeocodeFailedNotice
	}
	return domain.AddPinAction(coords, "AI Pin: "+endName), ""
}
