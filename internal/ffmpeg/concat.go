package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ConcatOptions defines concatenation parameters. Inputs are expected to
// share codec and frame size, so the default is a stream copy.
type ConcatOptions struct {
	Inputs       []string
	Output       string
	ReEncode     bool
	Preset       string
	CRF          int
	ProgressFunc func(Progress)
}

// Concat merges multiple video files into one using the concat demuxer.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating segments")

	listFile, err := e.writeConcatList(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	if opts.ReEncode {
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
			"-crf", fmt.Sprintf("%d", crf),
			"-preset", preset,
			"-c:a", DefaultAudioCodec,
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concatenating")
		},
	}
	return e.Run(ctx, runOpts)
}

// writeConcatList generates the temporary file list the concat demuxer
// consumes.
func (e *Executor) writeConcatList(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "slopforge-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", absPath); err != nil {
			return "", err
		}
	}
	return tmpFile.Name(), nil
}
