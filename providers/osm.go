package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fieldroute/routegen/route"
)

const defaultOSMBaseURL = "https://www.openstreetmap.org"

// osmBuilder targets an OSRM-compatible directions frontend. The base URL is
// overridable for self-hosted routers; addresses go into the route parameter
// as-is, so no geocoding or key is needed.
type osmBuilder struct {
	baseURL string
}

func (b *osmBuilder) Name() string { return OSM }

func (b *osmBuilder) BuildRouteURL(ctx context.Context, origin string, stops []route.Stop, destination string) (string, error) {
	full := waypoints(origin, stops, destination)
	if len(full) < 2 {
		return "", fmt.Errorf("osm: need at least two waypoints, have %d", len(full))
	}

	q := url.Values{}
	q.Set("engine", "fossgis_osrm_car")
	q.Set("route", strings.Join(full, ";"))
	return b.baseURL + "/directions?" + q.Encode(), nil
}
