package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/bluefolder"
)

// ErrNoAssignments is returned when a technician has nothing scheduled (or
// nothing with a usable address) today. Callers skip the target; it is not
// a pipeline failure.
var ErrNoAssignments = errors.New("route: no routable assignments")

// Builder matches providers.Builder without importing it, keeping the
// dependency arrow pointed at this package.
type Builder interface {
	Name() string
	BuildRouteURL(ctx context.Context, origin string, stops []Stop, destination string) (string, error)
}

// AssignmentSource is the slice of the ticketing integration the pipeline
// consumes.
type AssignmentSource interface {
	AssignmentsForToday(ctx context.Context, userID int) ([]bluefolder.EnrichedAssignment, error)
	OriginAddress(ctx context.Context, userID int) (string, error)
}

// Shortener is the optional URL-shortening stage.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// Writeback receives the finished URL. The pipeline does not know how the
// write happens, only that the value must fit the upstream field.
type Writeback interface {
	UpdateRouteURL(ctx context.Context, userID int, routeURL string) error
}

// Result is the outcome of one target's run.
type Result struct {
	URL       string `json:"url"`
	StopCount int    `json:"stop_count"`
	Provider  string `json:"provider"`
	Shortened bool   `json:"shortened"`
}

// Pipeline drives one technician at a time through stop building, dedup and
// ordering, provider URL assembly, optional shortening and write-back.
// Multiple pipelines may run in parallel; they share nothing but the cache.
type Pipeline struct {
	Source    AssignmentSource
	Builder   Builder
	Shortener Shortener // nil disables shortening
	Writeback Writeback // nil disables write-back

	// Origin overrides the technician's own origin address; DefaultOrigin
	// applies when neither is known.
	Origin        string
	DefaultOrigin string
	// Destination overrides the route end. When empty and EndAtOrigin is
	// set, the route loops back to the origin.
	Destination string
	EndAtOrigin bool

	// DryRun performs the identical pipeline but skips write-back.
	DryRun bool

	Log zerolog.Logger
}

// Stops fetches and assembles the final ordered stop list for one
// technician. Records without an address are skipped, not fatal.
func (p *Pipeline) Stops(ctx context.Context, userID int) ([]Stop, error) {
	assignments, err := p.Source.AssignmentsForToday(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: fetch assignments: %w", userID, err)
	}

	stops := make([]Stop, 0, len(assignments))
	for _, a := range assignments {
		s, err := BuildStop(a)
		if err != nil {
			p.Log.Warn().Int("user_id", userID).Err(err).Msg("skipping unroutable assignment")
			continue
		}
		stops = append(stops, s)
	}

	return Process(stops), nil
}

// Run executes the full pipeline for one technician.
func (p *Pipeline) Run(ctx context.Context, userID int) (*Result, error) {
	stops, err := p.Stops(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNoAssignments)
	}

	origin, err := p.resolveOrigin(ctx, userID)
	if err != nil {
		return nil, err
	}

	destination := p.Destination
	if destination == "" && p.EndAtOrigin {
		destination = origin
	}

	longURL, err := p.Builder.BuildRouteURL(ctx, origin, stops, destination)
	if err != nil {
		return nil, fmt.Errorf("user %d: build %s url: %w", userID, p.Builder.Name(), err)
	}

	finalURL := longURL
	if p.Shortener != nil {
		finalURL = p.Shortener.Shorten(ctx, longURL)
	}

	result := &Result{
		URL:       finalURL,
		StopCount: len(stops),
		Provider:  p.Builder.Name(),
		Shortened: finalURL != longURL,
	}

	if p.Writeback != nil && !p.DryRun {
		if err := p.Writeback.UpdateRouteURL(ctx, userID, finalURL); err != nil {
			return nil, fmt.Errorf("user %d: write back route url: %w", userID, err)
		}
	}

	p.Log.Info().
		Int("user_id", userID).
		Str("provider", result.Provider).
		Int("stops", result.StopCount).
		Bool("shortened", result.Shortened).
		Bool("dry_run", p.DryRun).
		Msg("route generated")

	return result, nil
}

func (p *Pipeline) resolveOrigin(ctx context.Context, userID int) (string, error) {
	if p.Origin != "" {
		return p.Origin, nil
	}
	origin, err := p.Source.OriginAddress(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("user %d: resolve origin: %w", userID, err)
	}
	if origin == "" {
		origin = p.DefaultOrigin
	}
	return origin, nil
}
