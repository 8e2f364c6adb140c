package schedule

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/keagan/slopforge/internal/catalog"
	"github.com/rs/zerolog"
)

// ultraShortMax caps the duration of the filler clips used when ordinary
// picks can no longer make progress toward the target.
const ultraShortMax = 1.0

// Params bundles the knobs steering one video's schedule.
type Params struct {
	TargetDuration  float64
	MinClips        int
	MaxClips        int
	MinClipDuration float64
	MaxClipDuration float64
	BufferMargin    float64
	MinSegmentSize  float64
	RecencyWindow   int // 0 = min(5, sourceCount/2)
	SafetyMargin    float64
	MaxAttempts     int
	CandidateSample int
	UltraShortPicks int
	Epsilon         float64
}

// normalized guards against zero values that would stall or never
// terminate the pick loops. Real defaults live in internal/config.
func (p Params) normalized() Params {
	if p.MinClips <= 0 {
		p.MinClips = 1
	}
	if p.MaxClips < p.MinClips {
		p.MaxClips = p.MinClips
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 20
	}
	if p.UltraShortPicks <= 0 {
		p.UltraShortPicks = 8
	}
	if p.Epsilon <= 0 {
		p.Epsilon = 0.1
	}
	if p.MaxClipDuration < p.MinClipDuration {
		p.MaxClipDuration = p.MinClipDuration
	}
	return p
}

// Scheduler assembles the segment plan for a single output video. It
// borrows the global ledger from the batch planner and owns a fresh local
// ledger and recency window, both scoped to this one video.
type Scheduler struct {
	catalog *catalog.Catalog
	params  Params
	global  *Ledger
	local   *Ledger
	recency *recencyWindow
	ranker  *Ranker
	rng     *rand.Rand
	logger  zerolog.Logger

	// OnCommit, when set, is invoked inline after every committed segment
	// with the 1-based segment index. The batch planner hooks progress
	// reporting through it, so implementations must return quickly.
	OnCommit func(n int, e Entry)
}

// NewScheduler prepares a scheduler for one output video. A nil ranker
// disables dissimilarity-biased selection; a nil global ledger gets a
// private one, which is useful for standalone single-video planning.
func NewScheduler(cat *catalog.Catalog, params Params, global *Ledger, ranker *Ranker, rng *rand.Rand, logger zerolog.Logger) *Scheduler {
	params = params.normalized()
	if global == nil {
		global = NewLedger()
	}
	k := params.RecencyWindow
	if k <= 0 {
		k = cat.Len() / 2
		if k > 5 {
			k = 5
		}
	}
	return &Scheduler{
		catalog: cat,
		params:  params,
		global:  global,
		local:   NewLedger(),
		recency: newRecencyWindow(k),
		ranker:  ranker,
		rng:     rng,
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
}

// LocalLedger exposes the per-video usage record, mainly for inspection
// in tests and diagnostics.
func (s *Scheduler) LocalLedger() *Ledger { return s.local }

// PlanVideo assembles one output plan. Individual pick failures are
// recovered via retries and fallbacks and never abort the video; the
// returned plan is non-empty unless the context is cancelled before the
// first commit, in which case it is flagged Aborted and returned with the
// context error.
func (s *Scheduler) PlanVideo(ctx context.Context) (*Plan, error) {
	p := s.params
	plan := &Plan{}
	total := 0.0

	commit := func(e Entry) {
		s.global.Add(e.SourceID, e.Start, e.End)
		s.local.Add(e.SourceID, e.Start, e.End)
		s.recency.push(e.SourceID)
		plan.Entries = append(plan.Entries, e)
		total += e.PlayDuration
		s.logger.Debug().
			Str("source", e.SourceID).
			Float64("start", e.Start).
			Float64("end", e.End).
			Float64("total", total).
			Msg("segment committed")
		if s.OnCommit != nil {
			s.OnCommit(len(plan.Entries), e)
		}
	}
	done := func() bool { return total >= p.TargetDuration-p.Epsilon }

	// Normal pick loop, bounded by the clip-count ceiling.
	for picks := 0; picks < p.MaxClips && !done(); picks++ {
		if err := ctx.Err(); err != nil {
			plan.Aborted = true
			return plan, err
		}
		desired, exact := s.drawDuration(total, len(plan.Entries))
		if desired <= 0 {
			break // remainder too small for an ordinary clip
		}
		e, err := s.pick(desired)
		if err != nil {
			s.logger.Debug().Err(err).Float64("desired", desired).Msg("pick skipped")
			continue
		}
		commit(e)
		if exact && done() {
			break
		}
	}

	// Shortfall: additional ordinary picks with whatever budget remains.
	for extra := 0; extra < p.MaxClips && !done(); extra++ {
		if err := ctx.Err(); err != nil {
			plan.Aborted = true
			return plan, err
		}
		remaining := p.TargetDuration - total
		if remaining < p.MinClipDuration {
			break
		}
		e, err := s.pick(math.Min(remaining, p.MaxClipDuration))
		if err != nil {
			break
		}
		commit(e)
	}

	// Then ultra-short filler clips from arbitrary sources, ignoring
	// usage history.
	for n := 0; n < p.UltraShortPicks && !done(); n++ {
		d := math.Min(ultraShortMax, p.TargetDuration-total)
		e, ok := s.pickAnywhere(d)
		if !ok {
			break
		}
		commit(e)
	}

	// Loop the final committed segment out to the target. This is the one
	// adjustment allowed to stretch an entry past its source range, and it
	// is always applied last.
	if !done() && len(plan.Entries) > 0 {
		last := &plan.Entries[len(plan.Entries)-1]
		pad := p.TargetDuration - total
		last.PlayDuration += pad
		total += pad
		plan.LoopPadded = true
		s.logger.Info().Float64("padding", pad).Msg("loop-extended final segment to reach target")
	}

	// A catalog whose clips are all too short for any pick still yields
	// one looped segment covering as much of the longest source as exists.
	if len(plan.Entries) == 0 {
		e := s.coverAll()
		commit(e)
		plan.LoopPadded = e.Looped()
	}

	return plan, nil
}

// drawDuration derives the next pick's length from the remaining target
// and the remaining pick budget. The final pick in a run takes exactly the
// remaining duration; earlier picks draw uniformly up to 1.5x the even
// split, clamped to the configured clip bounds. A zero return means the
// remainder is too small for an ordinary clip.
func (s *Scheduler) drawDuration(total float64, picked int) (float64, bool) {
	p := s.params
	remaining := p.TargetDuration - total
	if remaining < p.MinClipDuration {
		return 0, false
	}
	if remaining <= p.MaxClipDuration && picked+1 >= p.MinClips {
		return remaining, true
	}
	left := p.MaxClips - picked
	if left < 1 {
		left = 1
	}
	maxover := math.Min(1.5*remaining/float64(left), p.MaxClipDuration)
	if maxover < p.MinClipDuration {
		maxover = p.MinClipDuration
	}
	return p.MinClipDuration + s.rng.Float64()*(maxover-p.MinClipDuration), false
}

// pick runs the full acquisition chain for one segment: free-range search
// with bounded retry across sources, then a history-ignoring fallback
// range. Only a catalog with no source long enough fails the pick.
func (s *Scheduler) pick(desired float64) (Entry, error) {
	e, err := s.pickFree(desired)
	if err == nil {
		return e, nil
	}
	if e, ok := s.pickAnywhere(desired); ok {
		s.logger.Debug().
			Err(err).
			Str("source", e.SourceID).
			Msg("free ranges exhausted, reusing consumed footage")
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w (%.2fs)", ErrClipTooShort, desired)
}

// pickFree selects a source and draws a start position from its free
// ranges. Sources whose free ranges cannot host the duration are dropped
// and a different one is retried, up to the attempt ceiling.
func (s *Scheduler) pickFree(desired float64) (Entry, error) {
	p := s.params
	scopes := []*Ledger{s.global, s.local}
	pool := s.candidatePool()
	id := s.selectSource(pool)
	for attempt := 0; attempt < p.MaxAttempts && id != ""; attempt++ {
		if src, ok := s.catalog.Get(id); ok {
			free := FindAvailable(id, src.Duration, desired, scopes, p.BufferMargin, p.MinSegmentSize)
			if len(free) > 0 {
				win := free[s.rng.Intn(len(free))]
				start := s.drawStart(win)
				return Entry{SourceID: id, Start: start, End: start + desired, PlayDuration: desired}, nil
			}
		}
		pool = removeID(pool, id)
		if len(pool) == 0 {
			break
		}
		id = pool[s.rng.Intn(len(pool))]
	}
	return Entry{}, fmt.Errorf("%w for %.2fs", ErrNoCandidateSegment, desired)
}

// pickAnywhere draws a segment from any source long enough to host it,
// ignoring usage history. Immediate repetition is still avoided when an
// alternative source exists.
func (s *Scheduler) pickAnywhere(desired float64) (Entry, bool) {
	var fit []string
	for _, src := range s.catalog.Sources() {
		if src.Duration >= desired {
			fit = append(fit, src.ID)
		}
	}
	if len(fit) == 0 {
		return Entry{}, false
	}
	if last, ok := s.recency.last(); ok && len(fit) > 1 {
		fit = removeID(fit, last)
	}
	id := fit[s.rng.Intn(len(fit))]
	src, _ := s.catalog.Get(id)
	start := s.drawStart(Interval{Start: 0, End: src.Duration - desired})
	return Entry{SourceID: id, Start: start, End: start + desired, PlayDuration: desired}, true
}

// candidatePool returns the source ids eligible for the next pick. The
// recency exclusion applies only when it leaves candidates, and the most
// recently used source is dropped whenever an alternative exists.
func (s *Scheduler) candidatePool() []string {
	all := s.catalog.IDs()
	pool := make([]string, 0, len(all))
	for _, id := range all {
		if !s.recency.contains(id) {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, all...)
	}
	if last, ok := s.recency.last(); ok && len(pool) > 1 {
		pool = removeID(pool, last)
	}
	return pool
}

// selectSource picks from the pool: dissimilarity-ranked once there is
// recent history to compare against, uniform otherwise.
func (s *Scheduler) selectSource(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	if s.ranker != nil && len(s.recency.items()) > 0 {
		return s.ranker.Select(s.rng, pool, s.recency.items())
	}
	return pool[s.rng.Intn(len(pool))]
}

// drawStart draws a start position from a window of valid starts, keeping
// a safety margin before its end to absorb decode rounding downstream.
func (s *Scheduler) drawStart(win Interval) float64 {
	hi := math.Max(win.Start, win.End-s.params.SafetyMargin)
	return win.Start + s.rng.Float64()*(hi-win.Start)
}

// coverAll builds the last-resort entry: as much of the longest source as
// exists, looped out to the full target duration.
func (s *Scheduler) coverAll() Entry {
	var best catalog.Source
	for _, src := range s.catalog.Sources() {
		if src.Duration > best.Duration {
			best = src
		}
	}
	end := math.Min(best.Duration, s.params.TargetDuration)
	return Entry{SourceID: best.ID, Start: 0, End: end, PlayDuration: s.params.TargetDuration}
}

func removeID(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
