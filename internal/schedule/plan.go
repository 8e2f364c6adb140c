package schedule

// Entry is one scheduled excerpt: play [Start, End) of SourceID. When
// PlayDuration exceeds the excerpt length the renderer loops the excerpt
// to fill the difference; the two are equal otherwise.
type Entry struct {
	SourceID     string  `json:"source_id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	PlayDuration float64 `json:"play_duration"`
}

// Excerpt returns the source-side length of the entry.
func (e Entry) Excerpt() float64 { return e.End - e.Start }

// Looped reports whether the renderer must repeat the excerpt to reach
// the entry's play duration.
func (e Entry) Looped() bool { return e.PlayDuration > e.Excerpt()+1e-9 }

// Plan is the ordered segment list for one output video. The scheduler
// hands it to the render pipeline and does not retain it.
type Plan struct {
	Entries []Entry `json:"entries"`

	// Aborted marks a plan cut short by cancellation.
	Aborted bool `json:"aborted,omitempty"`

	// LoopPadded marks a plan that reached its target duration only by
	// repeating already committed footage.
	LoopPadded bool `json:"loop_padded,omitempty"`
}

// Total returns the summed playback duration of all entries.
func (p *Plan) Total() float64 {
	var t float64
	for _, e := range p.Entries {
		t += e.PlayDuration
	}
	return t
}
