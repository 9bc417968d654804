// Package route holds the core assembly pipeline: it turns enriched
// assignments into ordered, deduplicated stops and drives provider URL
// building, shortening and write-back.
package route

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldroute/routegen/bluefolder"
)

// ErrInvalidAssignment marks a record with no navigable destination. The
// pipeline skips such records and keeps building the rest of the route.
var ErrInvalidAssignment = errors.New("route: assignment has no address")

// Window is the service-window bucket used to order stops.
type Window int

const (
	AM Window = iota
	PM
	AllDay
)

func (w Window) String() string {
	switch w {
	case AM:
		return "AM"
	case PM:
		return "PM"
	default:
		return "ALL_DAY"
	}
}

// Stop is one location on a technician's route.
type Stop struct {
	// Address is the directions-ready address string.
	Address string
	// Window buckets the stop for ordering.
	Window Window
	// Label identifies the source ticket for previews, e.g. "SR-1234".
	Label string
	// JobCount is the number of assignments collapsed into this stop.
	JobCount int
}

// DedupKey normalizes the address for equality: case-folded with whitespace
// collapsed. Two stops with the same key are the same physical stop.
func (s Stop) DedupKey() string {
	return strings.Join(strings.Fields(strings.ToLower(s.Address)), " ")
}

// startTimeLayouts covers the timestamp shapes assignments arrive with.
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	bluefolder.TimeLayout,
}

// windowFor infers the service window from a scheduled start. Anything
// missing or unparseable is treated as all-day work.
func windowFor(start string) Window {
	start = strings.TrimSpace(start)
	if start == "" {
		return AllDay
	}
	for _, layout := range startTimeLayouts {
		t, err := time.Parse(layout, start)
		if err != nil {
			continue
		}
		if t.Hour() < 12 {
			return AM
		}
		return PM
	}
	return AllDay
}

// BuildStop maps one enriched assignment to a route stop. It is a pure
// transform; no network calls happen here.
func BuildStop(a bluefolder.EnrichedAssignment) (Stop, error) {
	address := a.FullAddress()
	if strings.TrimSpace(address) == "" {
		return Stop{}, fmt.Errorf("%w: SR-%d", ErrInvalidAssignment, a.ServiceRequestID)
	}

	return Stop{
		Address:  address,
		Window:   windowFor(a.Start),
		Label:    fmt.Sprintf("SR-%d", a.ServiceRequestID),
		JobCount: 1,
	}, nil
}
