package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrEmptyCatalog indicates that no usable source clips were provided.
// It is the only scheduling error that aborts a whole batch.
var ErrEmptyCatalog = errors.New("no usable video sources")

// featureSamples is the number of time points sampled per source when
// building a feature vector, spread evenly across the first 90% of the clip.
const featureSamples = 5

// featureSpan keeps sample points away from the clip tail, where decode
// rounding can make frame extraction fail.
const featureSpan = 0.9

// Descriptor is the coarse per-frame signature used for dissimilarity
// ranking: mean red, green and blue channel values plus overall luma.
type Descriptor [4]float64

// FrameSampler extracts a Descriptor from a source at a given timestamp.
// internal/ffmpeg provides the production implementation; a nil sampler
// disables feature vectors entirely.
type FrameSampler interface {
	Sample(ctx context.Context, path string, at float64) (Descriptor, error)
}

// Entry describes one candidate source before cataloguing.
type Entry struct {
	ID       string
	Path     string
	Duration float64
}

// Source is an immutable catalogued clip. Features is nil when no signature
// could be computed.
type Source struct {
	ID       string
	Path     string
	Duration float64
	Features []float64
}

// Catalog is the immutable view of available source clips for one batch.
type Catalog struct {
	sources []Source
	index   map[string]int
}

// Load filters out unusable entries, optionally computes per-source feature
// vectors, and returns the catalog. Entries with a non-positive duration are
// dropped with a warning; only a completely empty result is an error.
// Feature computation is skipped when fewer than two sources survive, since
// dissimilarity ranking is meaningless with a single source.
func Load(ctx context.Context, entries []Entry, sampler FrameSampler, logger zerolog.Logger) (*Catalog, error) {
	logger = logger.With().Str("component", "catalog").Logger()

	cat := &Catalog{index: make(map[string]int)}
	for _, e := range entries {
		if e.Duration <= 0 {
			logger.Warn().
				Str("source", e.ID).
				Float64("duration", e.Duration).
				Msg("skipping source with non-positive duration")
			continue
		}
		if _, dup := cat.index[e.ID]; dup {
			logger.Warn().Str("source", e.ID).Msg("skipping duplicate source id")
			continue
		}
		cat.index[e.ID] = len(cat.sources)
		cat.sources = append(cat.sources, Source{ID: e.ID, Path: e.Path, Duration: e.Duration})
	}

	if len(cat.sources) == 0 {
		return nil, fmt.Errorf("%w: %d entries provided", ErrEmptyCatalog, len(entries))
	}

	if sampler != nil && len(cat.sources) >= 2 {
		for i := range cat.sources {
			vec, err := computeFeatures(ctx, sampler, cat.sources[i])
			if err != nil {
				logger.Warn().
					Err(err).
					Str("source", cat.sources[i].ID).
					Msg("feature extraction failed, source will rank as neutral")
				continue
			}
			cat.sources[i].Features = vec
		}
	}

	logger.Info().
		Int("sources", len(cat.sources)).
		Int("with_features", cat.FeatureCount()).
		Msg("catalog loaded")

	return cat, nil
}

// computeFeatures samples featureSamples evenly spaced points and
// concatenates their descriptors into one vector.
func computeFeatures(ctx context.Context, sampler FrameSampler, src Source) ([]float64, error) {
	span := featureSpan * src.Duration
	vec := make([]float64, 0, featureSamples*len(Descriptor{}))
	for i := 0; i < featureSamples; i++ {
		at := span * float64(i) / float64(featureSamples-1)
		d, err := sampler.Sample(ctx, src.Path, at)
		if err != nil {
			return nil, fmt.Errorf("sample at %.2fs: %w", at, err)
		}
		vec = append(vec, d[:]...)
	}
	return vec, nil
}

// Len returns the number of usable sources.
func (c *Catalog) Len() int { return len(c.sources) }

// Sources returns all catalogued clips. Callers must not mutate the result.
func (c *Catalog) Sources() []Source { return c.sources }

// IDs returns the source ids in catalogue order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.sources))
	for i, s := range c.sources {
		ids[i] = s.ID
	}
	return ids
}

// Get looks up a source by id.
func (c *Catalog) Get(id string) (Source, bool) {
	i, ok := c.index[id]
	if !ok {
		return Source{}, false
	}
	return c.sources[i], true
}

// FeatureCount returns how many sources carry a feature vector.
func (c *Catalog) FeatureCount() int {
	n := 0
	for _, s := range c.sources {
		if len(s.Features) > 0 {
			n++
		}
	}
	return n
}

// FeatureMap returns the feature vectors keyed by source id, for the
// dissimilarity ranker. Sources without a vector are omitted.
func (c *Catalog) FeatureMap() map[string][]float64 {
	m := make(map[string][]float64, len(c.sources))
	for _, s := range c.sources {
		if len(s.Features) > 0 {
			m[s.ID] = s.Features
		}
	}
	return m
}
