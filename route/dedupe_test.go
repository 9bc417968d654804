package route

import (
	"reflect"
	"testing"
)

func TestProcessDedupAndOrder(t *testing.T) {
	// Second "A St" is dropped; the first occurrence's window survives.
	in := []Stop{
		{Address: "A St", Window: AM, Label: "SR-1", JobCount: 1},
		{Address: "B St", Window: PM, Label: "SR-2", JobCount: 1},
		{Address: "a st", Window: AM, Label: "SR-3", JobCount: 1},
	}

	got := Process(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 stops, got %d: %+v", len(got), got)
	}
	if got[0].Address != "A St" || got[0].Window != AM || got[0].Label != "SR-1" {
		t.Errorf("unexpected first stop: %+v", got[0])
	}
	if got[0].JobCount != 2 {
		t.Errorf("expected survivor to absorb the duplicate's job count, got %d", got[0].JobCount)
	}
	if got[1].Address != "B St" || got[1].Window != PM {
		t.Errorf("unexpected second stop: %+v", got[1])
	}
}

func TestOrderPartition(t *testing.T) {
	in := []Stop{
		{Address: "1", Window: AllDay},
		{Address: "2", Window: PM},
		{Address: "3", Window: AM},
		{Address: "4", Window: PM},
		{Address: "5", Window: AM},
	}

	got := Order(in)
	wantAddrs := []string{"3", "5", "2", "4", "1"}
	for i, s := range got {
		if s.Address != wantAddrs[i] {
			t.Fatalf("position %d: got %s, want %s (full: %+v)", i, s.Address, wantAddrs[i], got)
		}
	}
}

func TestOrderingInvariant(t *testing.T) {
	in := []Stop{
		{Address: "a", Window: AllDay},
		{Address: "b", Window: AM},
		{Address: "c", Window: PM},
		{Address: "d", Window: AllDay},
		{Address: "e", Window: AM},
	}

	got := Process(in)
	rank := func(w Window) int {
		switch w {
		case AM:
			return 0
		case PM:
			return 1
		default:
			return 2
		}
	}
	for i := 1; i < len(got); i++ {
		if rank(got[i].Window) < rank(got[i-1].Window) {
			t.Fatalf("ordering invariant violated at %d: %+v", i, got)
		}
	}
}

func TestProcessIdempotent(t *testing.T) {
	in := []Stop{
		{Address: "x", Window: PM, JobCount: 1},
		{Address: "y", Window: AM, JobCount: 1},
		{Address: "x", Window: AM, JobCount: 1},
		{Address: "z", Window: AllDay, JobCount: 1},
	}

	once := Process(in)
	twice := Process(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Process is not a fixed point:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestProcessEmpty(t *testing.T) {
	got := Process(nil)
	if len(got) != 0 {
		t.Errorf("expected empty output for empty input, got %+v", got)
	}
}

func TestProcessDeterministic(t *testing.T) {
	in := []Stop{
		{Address: "a", Window: PM},
		{Address: "b", Window: AM},
		{Address: "c", Window: AllDay},
		{Address: "b", Window: PM},
	}

	first := Process(in)
	for i := 0; i < 50; i++ {
		if !reflect.DeepEqual(first, Process(in)) {
			t.Fatal("Process output varies across runs")
		}
	}
}
