package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keagan/slopforge/internal/catalog"
	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/schedule"
	"github.com/rs/zerolog"
)

// Options configures how a plan is materialized.
type Options struct {
	OutputPath string
	Width      int
	Height     int
	Preset     string
	CRF        int
	// AudioPath, when set, is a background track looped under the final
	// video in place of the segments' own audio.
	AudioPath string
	// TempDir hosts the per-segment intermediates; empty uses the system
	// temp directory.
	TempDir string
}

// Renderer turns output plans into video files. It is the consumer side of
// the scheduler handoff: plans in, encoded files out, no scheduling state.
type Renderer struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
}

// New creates a renderer on top of an ffmpeg executor.
func New(logger zerolog.Logger, exec *ffmpeg.Executor) *Renderer {
	return &Renderer{
		logger: logger.With().Str("component", "render").Logger(),
		exec:   exec,
	}
}

// RenderPlan extracts every entry of the plan into a uniformly encoded
// intermediate and concatenates them into the final output file.
func (r *Renderer) RenderPlan(ctx context.Context, plan *schedule.Plan, cat *catalog.Catalog, opts Options) error {
	if plan == nil || len(plan.Entries) == 0 {
		return fmt.Errorf("plan has no segments to render")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}

	r.logger.Info().
		Str("output", opts.OutputPath).
		Int("segments", len(plan.Entries)).
		Float64("duration", plan.Total()).
		Msg("rendering plan")

	tempDir, err := os.MkdirTemp(opts.TempDir, "slopforge-parts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	parts := make([]string, 0, len(plan.Entries))
	for i, e := range plan.Entries {
		src, ok := cat.Get(e.SourceID)
		if !ok {
			return fmt.Errorf("plan references unknown source %q", e.SourceID)
		}
		part := filepath.Join(tempDir, fmt.Sprintf("part_%03d.mp4", i))
		segOpts := ffmpeg.SegmentOptions{
			Start:        e.Start,
			End:          e.End,
			PlayDuration: e.PlayDuration,
			Output:       part,
			Width:        opts.Width,
			Height:       opts.Height,
			Preset:       opts.Preset,
			CRF:          opts.CRF,
		}
		if err := r.exec.ExtractSegment(ctx, src.Path, segOpts); err != nil {
			return fmt.Errorf("segment %d of %s: %w", i+1, e.SourceID, err)
		}
		parts = append(parts, part)
	}

	concatTarget := opts.OutputPath
	if opts.AudioPath != "" {
		concatTarget = filepath.Join(tempDir, "concat.mp4")
	}
	concatOpts := ffmpeg.ConcatOptions{
		Inputs: parts,
		Output: concatTarget,
	}
	if err := r.exec.Concat(ctx, concatOpts); err != nil {
		return fmt.Errorf("concat to %s: %w", concatTarget, err)
	}

	if opts.AudioPath != "" {
		mixOpts := ffmpeg.MixOptions{
			Input:     concatTarget,
			AudioPath: opts.AudioPath,
			Output:    opts.OutputPath,
		}
		if err := r.exec.MixAudio(ctx, mixOpts); err != nil {
			return fmt.Errorf("audio mix to %s: %w", opts.OutputPath, err)
		}
	}

	r.logger.Info().Str("output", opts.OutputPath).Msg("render complete")
	return nil
}
