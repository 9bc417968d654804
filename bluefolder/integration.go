package bluefolder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
)

// Lookup TTLs. Service requests and locations change rarely within a working
// day; a short horizon keeps stale addresses from lingering.
const (
	serviceRequestTTL = time.Hour
	locationTTL       = 2 * time.Hour
)

// Integration joins raw BlueFolder records into route-ready assignments,
// caching the per-ticket and per-location lookups that dominate API volume.
type Integration struct {
	client *Client
	cache  cache.Cache
	log    zerolog.Logger
	now    func() time.Time
}

// NewIntegration wires the enrichment layer. The cache may be shared with
// other components; keys are namespaced.
func NewIntegration(client *Client, c cache.Cache, log zerolog.Logger) *Integration {
	return &Integration{client: client, cache: c, log: log, now: time.Now}
}

// cachedServiceRequest is the subset of ticket data worth keeping around.
type cachedServiceRequest struct {
	CustomerID int    `json:"customerId"`
	LocationID int    `json:"locationId"`
	Subject    string `json:"subject"`
}

// AssignmentsForToday lists today's assignments for one technician and
// enriches each with its ticket subject and service address. Assignments
// without a service request are dropped; a failed location lookup leaves the
// address empty so the stop builder can reject just that record.
func (i *Integration) AssignmentsForToday(ctx context.Context, userID int) ([]EnrichedAssignment, error) {
	start, end := DayRange(i.now())
	i.log.Info().Int("user_id", userID).Str("start", start).Str("end", end).Msg("fetching assignments")

	assignments, err := i.client.AssignmentsForUser(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list assignments for user %d: %w", userID, err)
	}

	enriched := make([]EnrichedAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.ServiceRequestID == 0 {
			continue
		}

		sr, err := i.serviceRequest(ctx, a.ServiceRequestID)
		if err != nil {
			return nil, err
		}

		var loc Location
		if sr.CustomerID != 0 && sr.LocationID != 0 {
			l, err := i.location(ctx, sr.CustomerID, sr.LocationID)
			if err != nil {
				i.log.Warn().
					Int("service_request_id", a.ServiceRequestID).
					Err(err).
					Msg("location lookup failed; leaving address empty")
			} else {
				loc = *l
			}
		}

		enriched = append(enriched, EnrichedAssignment{
			AssignmentID:     a.AssignmentID,
			ServiceRequestID: a.ServiceRequestID,
			Subject:          sr.Subject,
			Address:          loc.Address,
			City:             loc.City,
			State:            loc.State,
			Zip:              loc.Zip,
			Start:            a.Start,
			End:              a.End,
		})
	}

	return enriched, nil
}

func (i *Integration) serviceRequest(ctx context.Context, srID int) (*cachedServiceRequest, error) {
	key := strconv.Itoa(srID)

	var cached cachedServiceRequest
	if cache.GetJSON(i.cache, cache.NSServiceRequests, key, &cached) {
		return &cached, nil
	}

	sr, err := i.client.ServiceRequest(ctx, srID)
	if err != nil {
		return nil, fmt.Errorf("get service request %d: %w", srID, err)
	}

	subject := sr.Subject
	if subject == "" {
		subject = "Unlabeled Service Request"
	}
	cached = cachedServiceRequest{
		CustomerID: sr.CustomerID,
		LocationID: sr.CustomerLocationID,
		Subject:    subject,
	}
	if err := cache.PutJSON(i.cache, cache.NSServiceRequests, key, cached, serviceRequestTTL); err != nil {
		i.log.Warn().Err(err).Msg("service request cache write failed")
	}
	return &cached, nil
}

func (i *Integration) location(ctx context.Context, customerID, locationID int) (*Location, error) {
	key := fmt.Sprintf("%d:%d", customerID, locationID)

	var cached Location
	if cache.GetJSON(i.cache, cache.NSLocations, key, &cached) {
		return &cached, nil
	}

	loc, err := i.client.CustomerLocation(ctx, customerID, locationID)
	if err != nil {
		return nil, err
	}
	if err := cache.PutJSON(i.cache, cache.NSLocations, key, loc, locationTTL); err != nil {
		i.log.Warn().Err(err).Msg("location cache write failed")
	}
	return loc, nil
}

// OriginAddress resolves a technician's route start: work address first,
// home address as fallback, empty when neither is on file.
func (i *Integration) OriginAddress(ctx context.Context, userID int) (string, error) {
	u, err := i.client.User(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", userID, err)
	}
	if u.AddressWork != "" {
		return u.AddressWork, nil
	}
	return u.AddressHome, nil
}

// ActiveUsers exposes the roster for full daily runs.
func (i *Integration) ActiveUsers(ctx context.Context) ([]User, error) {
	return i.client.ActiveUsers(ctx)
}

// UpdateRouteURL hands the finished route link to the write-back field.
func (i *Integration) UpdateRouteURL(ctx context.Context, userID int, routeURL string) error {
	return i.client.UpdateRouteURL(ctx, userID, routeURL)
}
