package schedule

import (
	"math"
	"sort"
)

// FindAvailable computes where a segment of the desired length can still
// start within a source, given every range already consumed in the supplied
// ledger scopes. Each used interval is inflated by buffer on both sides
// before gap computation, so two slots closer than the buffer are treated
// as one. Gaps shorter than desired+minSegment are discarded.
//
// Returned intervals are ranges of permissible start positions, already
// reduced from the raw gap bounds: a segment may begin anywhere inside one
// and still fit. An empty result is a normal outcome, not an error.
func FindAvailable(sourceID string, sourceDur, desired float64, scopes []*Ledger, buffer, minSegment float64) []Interval {
	if desired <= 0 || desired > sourceDur {
		return nil
	}

	var used []Interval
	for _, scope := range scopes {
		used = append(used, scope.Intervals(sourceID)...)
	}

	inflated := make([]Interval, 0, len(used))
	for _, iv := range used {
		s := math.Max(0, iv.Start-buffer)
		e := math.Min(sourceDur, iv.End+buffer)
		if e > s {
			inflated = append(inflated, Interval{Start: s, End: e})
		}
	}
	sort.Slice(inflated, func(i, j int) bool { return inflated[i].Start < inflated[j].Start })

	merged := mergeIntervals(inflated)

	var free []Interval
	cursor := 0.0
	addGap := func(start, end float64) {
		if end-start >= desired+minSegment {
			free = append(free, Interval{Start: start, End: end - desired})
		}
	}
	for _, iv := range merged {
		addGap(cursor, iv.Start)
		cursor = iv.End
	}
	addGap(cursor, sourceDur)

	return free
}

// mergeIntervals collapses overlapping or touching intervals into a minimal
// covering set. Input must be sorted by start.
func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	merged := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
