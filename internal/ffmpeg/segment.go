package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/keagan/slopforge/pkg/util"
)

// SegmentOptions defines one excerpt extraction. When PlayDuration exceeds
// End-Start the excerpt is looped until it fills the play duration, which
// is how the scheduler's loop-padding fallback reaches the target length.
type SegmentOptions struct {
	Start        float64
	End          float64
	PlayDuration float64
	Output       string
	// Width and Height define the output frame. With both set the excerpt
	// is scaled to fit and centered on black padding, so portrait and
	// landscape sources land on the same frame; height alone scales with
	// the source aspect preserved. 0 for both keeps the source size.
	Width        int
	Height       int
	Preset       string
	CRF          int
	ProgressFunc func(Progress)
}

// ExtractSegment cuts one excerpt out of a source video, re-encoding so
// that every piece of a plan shares codec and frame size and the concat
// step can stream-copy.
func (e *Executor) ExtractSegment(ctx context.Context, input string, opts SegmentOptions) error {
	excerpt := opts.End - opts.Start
	if excerpt <= 0 {
		return fmt.Errorf("invalid segment: end must be after start")
	}
	play := opts.PlayDuration
	if play < excerpt {
		play = excerpt
	}
	looped := play > excerpt+1e-3

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", opts.Start).
		Float64("excerpt", excerpt).
		Bool("looped", looped).
		Msg("extracting segment")

	target := opts.Output
	var tmp string
	if looped {
		tmp = opts.Output + ".part.mp4"
		target = tmp
		defer os.Remove(tmp)
	}

	runOpts := RunOptions{
		Args:            buildExtractArgs(input, opts, excerpt, target),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("segment extraction")
		},
	}
	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("segment extraction failed: %w", err)
	}

	if !looped {
		return nil
	}

	loops := int(math.Ceil(play/excerpt)) - 1
	loopOpts := RunOptions{
		Args:            buildLoopArgs(tmp, loops, play, opts.Output),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("segment looping")
		},
	}
	if err := e.Run(ctx, loopOpts); err != nil {
		return fmt.Errorf("segment looping failed: %w", err)
	}
	return nil
}

// buildExtractArgs assembles the excerpt invocation. -ss before -i seeks
// on the demuxer, which is fast and accurate enough at keyframe scale.
func buildExtractArgs(input string, opts SegmentOptions, excerpt float64, target string) []string {
	args := []string{
		"-ss", util.FormatSeconds(opts.Start),
		"-i", input,
		"-t", util.FormatSeconds(excerpt),
	}
	if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease:force_divisible_by=2,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			opts.Width, opts.Height, opts.Width, opts.Height))
	} else if opts.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", opts.Height))
	}

	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-crf", strconv.Itoa(crf),
		"-preset", preset,
		"-c:a", DefaultAudioCodec,
		"-pix_fmt", "yuv420p",
		target,
	)
	return args
}

// buildLoopArgs repeats an already-encoded excerpt out to the play
// duration without re-encoding.
func buildLoopArgs(input string, loops int, play float64, output string) []string {
	return []string{
		"-stream_loop", strconv.Itoa(loops),
		"-i", input,
		"-t", util.FormatSeconds(play),
		"-c", "copy",
		output,
	}
}
