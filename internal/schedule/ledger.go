package schedule

// Interval is a half-open time range [Start, End) within one source clip.
type Interval struct {
	Start float64
	End   float64
}

// Length returns the interval duration.
func (iv Interval) Length() float64 { return iv.End - iv.Start }

// Ledger records the time ranges already consumed per source within one
// scope. The batch planner owns a global ledger spanning the whole batch;
// each output video gets a fresh local one. Intervals are append-only and
// cleared only at scope boundaries.
type Ledger struct {
	used map[string][]Interval
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{used: make(map[string][]Interval)}
}

// Add records a consumed range for a source.
func (l *Ledger) Add(sourceID string, start, end float64) {
	l.used[sourceID] = append(l.used[sourceID], Interval{Start: start, End: end})
}

// Intervals returns the recorded ranges for a source in commit order.
// Callers must not mutate the returned slice.
func (l *Ledger) Intervals(sourceID string) []Interval {
	return l.used[sourceID]
}

// Count returns how many ranges are recorded for a source.
func (l *Ledger) Count(sourceID string) int {
	return len(l.used[sourceID])
}

// Reset drops every recorded range, marking a scope boundary.
func (l *Ledger) Reset() {
	l.used = make(map[string][]Interval)
}
