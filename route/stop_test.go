package route

import (
	"errors"
	"testing"

	"github.com/fieldroute/routegen/bluefolder"
)

func TestWindowFor(t *testing.T) {
	tests := []struct {
		start string
		want  Window
	}{
		{"2025-11-08T09:00:00", AM},
		{"2025-11-08T11:59:00", AM},
		{"2025-11-08T12:00:00", PM},
		{"2025-11-08T14:00:00", PM},
		{"2025-11-08T23:30:00", PM},
		{"2025-11-08T09:00:00Z", AM},
		{"2025.11.08 9:00 AM", AM},
		{"", AllDay},
		{"   ", AllDay},
		{"not a time", AllDay},
	}

	for _, tt := range tests {
		if got := windowFor(tt.start); got != tt.want {
			t.Errorf("windowFor(%q) = %s, want %s", tt.start, got, tt.want)
		}
	}
}

func TestBuildStop(t *testing.T) {
	a := bluefolder.EnrichedAssignment{
		ServiceRequestID: 1234,
		Address:          "181 Main St",
		City:             "Norway",
		State:            "ME",
		Zip:              "04268",
		Start:            "2025-11-08T09:00:00",
	}

	s, err := BuildStop(a)
	if err != nil {
		t.Fatalf("BuildStop returned error: %v", err)
	}
	if s.Address != "181 Main St, Norway, ME 04268" {
		t.Errorf("unexpected address: %q", s.Address)
	}
	if s.Window != AM {
		t.Errorf("expected AM window, got %s", s.Window)
	}
	if s.Label != "SR-1234" {
		t.Errorf("expected label SR-1234, got %q", s.Label)
	}
	if s.JobCount != 1 {
		t.Errorf("expected job count 1, got %d", s.JobCount)
	}
}

func TestBuildStopEmptyAddress(t *testing.T) {
	for _, a := range []bluefolder.EnrichedAssignment{
		{ServiceRequestID: 1},
		{ServiceRequestID: 2, Address: "   "},
	} {
		_, err := BuildStop(a)
		if !errors.Is(err, ErrInvalidAssignment) {
			t.Errorf("BuildStop(%+v) err = %v, want ErrInvalidAssignment", a, err)
		}
	}
}

func TestDedupKeyNormalization(t *testing.T) {
	a := Stop{Address: "181  Main St,  Norway, ME"}
	b := Stop{Address: "181 MAIN st, norway, me"}
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("expected equal dedup keys: %q vs %q", a.DedupKey(), b.DedupKey())
	}

	c := Stop{Address: "182 Main St, Norway, ME"}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different addresses must not share a dedup key")
	}
}
