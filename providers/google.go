package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fieldroute/routegen/route"
)

const googleDirBase = "https://www.google.com/maps/dir/"

// googleBuilder emits a path-style Google Maps directions URL listing origin,
// waypoints and destination in pipeline order. The provider is not asked to
// re-optimize; that would break the AM/PM semantics upstream established.
// URL assembly needs no API key.
type googleBuilder struct{}

func (b *googleBuilder) Name() string { return Google }

func (b *googleBuilder) BuildRouteURL(ctx context.Context, origin string, stops []route.Stop, destination string) (string, error) {
	full := waypoints(origin, stops, destination)
	if len(full) == 0 {
		return "", fmt.Errorf("google: nothing to route")
	}

	encoded := make([]string, len(full))
	for i, addr := range full {
		encoded[i] = url.QueryEscape(addr)
	}
	return googleDirBase + strings.Join(encoded, "/"), nil
}
