package schedule

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/keagan/slopforge/internal/catalog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T, entries ...catalog.Entry) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(context.Background(), entries, nil, zerolog.Nop())
	require.NoError(t, err)
	return cat
}

func fourSources(t *testing.T, duration float64) *catalog.Catalog {
	t.Helper()
	return testCatalog(t,
		catalog.Entry{ID: "a", Path: "/v/a.mp4", Duration: duration},
		catalog.Entry{ID: "b", Path: "/v/b.mp4", Duration: duration},
		catalog.Entry{ID: "c", Path: "/v/c.mp4", Duration: duration},
		catalog.Entry{ID: "d", Path: "/v/d.mp4", Duration: duration},
	)
}

func testParams() Params {
	return Params{
		TargetDuration:  16.0,
		MinClips:        4,
		MaxClips:        8,
		MinClipDuration: 3.0,
		MaxClipDuration: 5.0,
		BufferMargin:    0.1,
		MinSegmentSize:  0.5,
		SafetyMargin:    0.25,
		MaxAttempts:     20,
		CandidateSample: 3,
		UltraShortPicks: 8,
		Epsilon:         0.1,
	}
}

func planWithSeed(t *testing.T, cat *catalog.Catalog, params Params, seed int64) (*Plan, *Scheduler) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	s := NewScheduler(cat, params, nil, nil, rng, zerolog.Nop())
	plan, err := s.PlanVideo(context.Background())
	require.NoError(t, err)
	return plan, s
}

func TestPlanConvergesToTarget(t *testing.T) {
	cat := fourSources(t, 30)
	params := testParams()

	for seed := int64(1); seed <= 20; seed++ {
		plan, _ := planWithSeed(t, cat, params, seed)

		require.NotEmpty(t, plan.Entries, "seed %d", seed)
		assert.InDelta(t, params.TargetDuration, plan.Total(), params.Epsilon, "seed %d", seed)
	}
}

func TestPlanEntriesStayInsideSources(t *testing.T) {
	cat := fourSources(t, 30)
	plan, _ := planWithSeed(t, cat, testParams(), 3)

	for _, e := range plan.Entries {
		src, ok := cat.Get(e.SourceID)
		require.True(t, ok)
		assert.GreaterOrEqual(t, e.Start, 0.0)
		assert.Greater(t, e.End, e.Start)
		assert.LessOrEqual(t, e.End, src.Duration+1e-9)
		assert.GreaterOrEqual(t, e.PlayDuration, e.Excerpt()-1e-9)
	}
}

func TestNoImmediateSourceRepetition(t *testing.T) {
	cat := fourSources(t, 30)

	for seed := int64(1); seed <= 20; seed++ {
		plan, _ := planWithSeed(t, cat, testParams(), seed)
		for i := 1; i < len(plan.Entries); i++ {
			assert.NotEqual(t, plan.Entries[i-1].SourceID, plan.Entries[i].SourceID,
				"seed %d: consecutive entries reuse a source", seed)
		}
	}
}

func TestCommittedIntervalsRespectBuffer(t *testing.T) {
	// Ample capacity keeps every pick on the normal path, where free-range
	// search guarantees committed intervals never overlap beyond the buffer.
	cat := fourSources(t, 60)
	params := testParams()
	plan, s := planWithSeed(t, cat, params, 5)
	require.NotEmpty(t, plan.Entries)

	for _, id := range cat.IDs() {
		ivs := s.LocalLedger().Intervals(id)
		for i := 0; i < len(ivs); i++ {
			for j := i + 1; j < len(ivs); j++ {
				overlap := math.Min(ivs[i].End, ivs[j].End) - math.Max(ivs[i].Start, ivs[j].Start)
				assert.LessOrEqual(t, overlap, params.BufferMargin+1e-9,
					"source %s: intervals %v and %v overlap", id, ivs[i], ivs[j])
			}
		}
	}
}

func TestSingleShortSourceStillFillsTarget(t *testing.T) {
	// One 20s source must still yield a ~16s plan via reuse and looping.
	cat := testCatalog(t, catalog.Entry{ID: "only", Path: "/v/only.mp4", Duration: 20})
	params := testParams()
	params.MinClipDuration = 1.5
	params.MaxClipDuration = 3.0

	for seed := int64(1); seed <= 10; seed++ {
		plan, _ := planWithSeed(t, cat, params, seed)

		require.NotEmpty(t, plan.Entries, "seed %d", seed)
		assert.InDelta(t, 16.0, plan.Total(), params.Epsilon, "seed %d", seed)
		for _, e := range plan.Entries {
			assert.Equal(t, "only", e.SourceID)
		}
	}
}

func TestAllSourcesTooShortFallsBackToLoopedCover(t *testing.T) {
	// Sources shorter than even the ultra-short filler force the terminal
	// guard: one segment covering the longest source, looped to target.
	cat := testCatalog(t,
		catalog.Entry{ID: "tiny", Path: "/v/tiny.mp4", Duration: 0.6},
		catalog.Entry{ID: "small", Path: "/v/small.mp4", Duration: 0.8},
	)
	plan, _ := planWithSeed(t, cat, testParams(), 2)

	require.Len(t, plan.Entries, 1)
	e := plan.Entries[0]
	assert.Equal(t, "small", e.SourceID)
	assert.Equal(t, 0.0, e.Start)
	assert.InDelta(t, 0.8, e.End, 1e-9)
	assert.InDelta(t, 16.0, e.PlayDuration, 1e-9)
	assert.True(t, plan.LoopPadded)
	assert.True(t, e.Looped())
}

func TestSameSeedReproducesPlan(t *testing.T) {
	cat := fourSources(t, 30)

	first, _ := planWithSeed(t, cat, testParams(), 42)
	second, _ := planWithSeed(t, cat, testParams(), 42)

	assert.Equal(t, first.Entries, second.Entries)
}

func TestCancelledContextAbortsPlan(t *testing.T) {
	cat := fourSources(t, 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler(cat, testParams(), nil, nil, rand.New(rand.NewSource(1)), zerolog.Nop())
	plan, err := s.PlanVideo(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, plan)
	assert.True(t, plan.Aborted)
	assert.Empty(t, plan.Entries)
}

func TestLoopPaddingOnlyExtendsFinalEntry(t *testing.T) {
	// A short single source with a tiny pick ceiling cannot reach the
	// target with ordinary and ultra-short picks alone; the remainder must
	// land on the last entry as looped playback.
	cat := testCatalog(t, catalog.Entry{ID: "only", Path: "/v/only.mp4", Duration: 6})
	params := testParams()
	params.MinClips = 1
	params.MaxClips = 2
	params.MinClipDuration = 2.0
	params.MaxClipDuration = 3.0
	params.UltraShortPicks = 2

	plan, _ := planWithSeed(t, cat, params, 9)

	require.NotEmpty(t, plan.Entries)
	assert.True(t, plan.LoopPadded)
	assert.InDelta(t, 16.0, plan.Total(), params.Epsilon)
	for i, e := range plan.Entries[:len(plan.Entries)-1] {
		assert.False(t, e.Looped(), "entry %d looped before the final one", i)
	}
	assert.True(t, plan.Entries[len(plan.Entries)-1].Looped())
}
