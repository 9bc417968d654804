package providers

import (
	"strings"
	"time"

	"github.com/fieldroute/routegen/cache"
)

// geoPoint is a geocoded coordinate. Stored in the cache keyed by normalized
// address, so a lookup done for one provider serves the others too.
type geoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Coordinates are stable; keep them for a day to stay off geocoding quotas.
const geocodeTTL = 24 * time.Hour

func geocodeKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func cachedGeocode(c cache.Cache, address string) (geoPoint, bool) {
	var p geoPoint
	ok := cache.GetJSON(c, cache.NSGeocode, geocodeKey(address), &p)
	return p, ok
}

func storeGeocode(c cache.Cache, address string, p geoPoint) error {
	return cache.PutJSON(c, cache.NSGeocode, geocodeKey(address), p, geocodeTTL)
}
