package ffmpeg

import (
	"context"
	"fmt"
)

// MixOptions defines the background-track pass applied to a finished
// output. The track replaces whatever audio the segments carried, looped
// or truncated to the video length.
type MixOptions struct {
	Input        string
	AudioPath    string
	Output       string
	ProgressFunc func(Progress)
}

// MixAudio muxes a looping background track under the video stream. The
// video is stream-copied; only the audio is encoded.
func (e *Executor) MixAudio(ctx context.Context, opts MixOptions) error {
	if opts.Input == "" || opts.AudioPath == "" || opts.Output == "" {
		return fmt.Errorf("input, audio and output paths are required")
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("audio", opts.AudioPath).
		Str("output", opts.Output).
		Msg("mixing background audio")

	runOpts := RunOptions{
		Args:            buildMixArgs(opts.Input, opts.AudioPath, opts.Output),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("audio mixing")
		},
	}
	return e.Run(ctx, runOpts)
}

// buildMixArgs loops the track indefinitely and lets -shortest cut it at
// the video's end; -stream_loop must precede the input it applies to.
func buildMixArgs(input, audio, output string) []string {
	return []string{
		"-i", input,
		"-stream_loop", "-1",
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", DefaultAudioCodec,
		"-shortest",
		output,
	}
}
