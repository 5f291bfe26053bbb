package domain

import "sort"

// OverlapWindow is a concrete shared presence window between two slots:
// the weekdays both repeat on and the intersected clock-time interval.
// Windows are display byproduct; filtering decisions elsewhere only use the
// boolean overlap result.
// swagger:model OverlapWindow
type OverlapWindow struct {
	Days  []int  `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Overlaps computes whether two slots' repeat-day/time windows intersect.
// Day sets are intersected first; on shared days the [start, end) clock-time
// intervals are intersected lexicographically (valid for "HH:MM" strings).
// A zero-length intersection is no overlap. Symmetric in its arguments.
func Overlaps(a, b *AvailabilitySlot) (bool, []OverlapWindow) {
	days := intersectDays(a.RepeatDays, b.RepeatDays)
	if len(days) == 0 {
		return false, nil
	}
	start := a.TimeStart
	if b.TimeStart > start {
		start = b.TimeStart
	}
	end := a.TimeEnd
	if b.TimeEnd < end {
		end = b.TimeEnd
	}
	if start >= end {
		return false, nil
	}
	return true, []OverlapWindow{{Days: days, Start: start, End: end}}
}

func intersectDays(a, b []int) []int {
	inA := make(map[int]struct{}, len(a))
	for _, d := range a {
		inA[d] = struct{}{}
	}
	var shared []int
	seen := make(map[int]struct{})
	for _, d := range b {
		if _, ok := inA[d]; !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		shared = append(shared, d)
	}
	sort.Ints(shared)
	return shared
}
