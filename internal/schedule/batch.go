package schedule

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/keagan/slopforge/internal/catalog"
	"github.com/rs/zerolog"
)

// ProgressSink receives coarse progress updates. Updates are invoked
// inline from the scheduling goroutine, so implementations must not block.
type ProgressSink interface {
	Progress(percent int, message string)
}

// NopSink discards progress updates. It stands in whenever no sink is
// supplied, so progress reporting degrades to a no-op rather than an error.
type NopSink struct{}

func (NopSink) Progress(int, string) {}

// SinkFunc adapts a plain function to a ProgressSink.
type SinkFunc func(percent int, message string)

func (f SinkFunc) Progress(percent int, message string) { f(percent, message) }

// BatchPlanner drives the scheduler once per requested output video. All
// videos share one global ledger, so later videos steer away from footage
// earlier ones already consumed; the local ledger and recency window are
// fresh per video. Batch planning is deliberately sequential: each video
// benefits from the accumulated history of those before it.
type BatchPlanner struct {
	catalog  *catalog.Catalog
	params   Params
	num      int
	global   *Ledger
	ranker   *Ranker
	rng      *rand.Rand
	progress ProgressSink
	logger   zerolog.Logger
	runID    string
}

// NewBatchPlanner sets up a planner for numVideos outputs. The ranker is
// engaged only when at least two sources carry feature vectors; progress
// may be nil. The same seed always reproduces the same batch.
func NewBatchPlanner(cat *catalog.Catalog, params Params, numVideos int, seed int64, progress ProgressSink, logger zerolog.Logger) *BatchPlanner {
	if numVideos < 1 {
		numVideos = 1
	}
	if progress == nil {
		progress = NopSink{}
	}
	var ranker *Ranker
	if cat.FeatureCount() >= 2 {
		ranker = NewRanker(cat.FeatureMap(), params.CandidateSample)
	}
	runID := uuid.NewString()
	return &BatchPlanner{
		catalog:  cat,
		params:   params,
		num:      numVideos,
		global:   NewLedger(),
		ranker:   ranker,
		rng:      rand.New(rand.NewSource(seed)),
		progress: progress,
		logger:   logger.With().Str("component", "batch").Str("run_id", runID).Logger(),
		runID:    runID,
	}
}

// RunID identifies this batch in log fields.
func (b *BatchPlanner) RunID() string { return b.runID }

// GlobalLedger exposes the batch-wide usage record, mainly for inspection
// in tests and diagnostics.
func (b *BatchPlanner) GlobalLedger() *Ledger { return b.global }

// Run plans every video in the batch. A video that fails to schedule is
// logged and skipped, never aborting the batch; cancellation stops cleanly
// and returns the plans built so far along with the context error.
func (b *BatchPlanner) Run(ctx context.Context) ([]*Plan, error) {
	if b.catalog.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}

	b.logger.Info().
		Int("videos", b.num).
		Int("sources", b.catalog.Len()).
		Bool("ranked", b.ranker != nil).
		Msg("starting batch scheduling")
	b.progress.Progress(0, fmt.Sprintf("Scheduling %d videos from %d sources", b.num, b.catalog.Len()))

	plans := make([]*Plan, 0, b.num)
	for i := 0; i < b.num; i++ {
		if err := ctx.Err(); err != nil {
			return plans, err
		}

		base := i * 100 / b.num
		b.progress.Progress(base, fmt.Sprintf("Planning video %d/%d", i+1, b.num))

		sched := NewScheduler(b.catalog, b.params, b.global, b.ranker, b.rng, b.logger)
		sched.OnCommit = func(n int, e Entry) {
			b.progress.Progress(base, fmt.Sprintf("Video %d/%d: segment %d from %s", i+1, b.num, n, e.SourceID))
		}

		plan, err := sched.PlanVideo(ctx)
		if err != nil {
			if plan != nil && plan.Aborted {
				plans = append(plans, plan)
				return plans, err
			}
			b.logger.Error().Err(err).Int("video", i+1).Msg("scheduling failed, skipping video")
			continue
		}

		if plan.LoopPadded {
			b.progress.Progress(base, fmt.Sprintf("Warning: video %d/%d padded by looping to reach %.1fs", i+1, b.num, b.params.TargetDuration))
		}
		plans = append(plans, plan)
		b.progress.Progress((i+1)*100/b.num, fmt.Sprintf("Video %d/%d planned: %.2fs in %d segments", i+1, b.num, plan.Total(), len(plan.Entries)))
	}

	b.progress.Progress(100, "Scheduling complete")
	return plans, nil
}
