package route

// Deduplicate collapses stops sharing a dedup key into the earliest-seen
// stop, preserving encounter order. The survivor keeps its own window and
// label; only its JobCount grows. Runs in O(n).
func Deduplicate(stops []Stop) []Stop {
	seen := make(map[string]int, len(stops))
	unique := make([]Stop, 0, len(stops))

	for _, s := range stops {
		key := s.DedupKey()
		if idx, ok := seen[key]; ok {
			unique[idx].JobCount += s.JobCount
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, s)
	}

	return unique
}

// Order stably partitions stops into AM, then PM, then all-day work.
// Relative order within each bucket is the original fetch order, so output
// is deterministic for a fixed input.
func Order(stops []Stop) []Stop {
	buckets := map[Window][]Stop{}
	for _, s := range stops {
		buckets[s.Window] = append(buckets[s.Window], s)
	}

	out := make([]Stop, 0, len(stops))
	for _, w := range []Window{AM, PM, AllDay} {
		out = append(out, buckets[w]...)
	}
	return out
}

// Process is the full dedup-then-order pass the pipeline runs. Empty input
// yields empty output; an empty route is valid upstream.
func Process(stops []Stop) []Stop {
	return Order(Deduplicate(stops))
}
