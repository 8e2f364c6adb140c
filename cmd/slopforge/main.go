package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/keagan/slopforge/internal/catalog"
	"github.com/keagan/slopforge/internal/config"
	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/render"
	"github.com/keagan/slopforge/internal/schedule"
	"github.com/keagan/slopforge/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	numVideos int
	seed      int64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slopforge",
	Short: "slopforge - randomized short-video batch generator",
	Long:  "Assembles batches of short videos by stitching randomly chosen excerpts from a pool of source clips.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if numVideos > 0 {
			cfg.Generator.NumVideos = numVideos
		}
		if seed != 0 {
			cfg.Generator.Seed = seed
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./slopforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVarP(&numVideos, "videos", "n", 0, "number of videos to generate (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed for reproducible scheduling")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [input dir]",
	Short: "Schedule and render a batch of output videos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		if len(args) == 1 {
			cfg.InputDir = args[0]
		}

		exec, cat, err := loadCatalog(ctx, cfg, cfg.Generator.Signatures)
		if err != nil {
			return err
		}

		planner := newPlanner(cat, cfg)
		plans, err := planner.Run(ctx)
		if err != nil {
			return err
		}

		if err := util.EnsureDir(cfg.OutputDir); err != nil {
			return err
		}

		audioPath := cfg.AudioPath
		if audioPath != "" && !util.FileExists(audioPath) {
			log.Warn().Str("audio", audioPath).Msg("background track not found, rendering without audio mix")
			audioPath = ""
		}

		renderer := render.New(log.Logger, exec)
		rendered := 0
		for i, plan := range plans {
			output := filepath.Join(cfg.OutputDir, fmt.Sprintf("output_%02d.mp4", i+1))
			opts := render.Options{
				OutputPath: output,
				Width:      cfg.FFmpeg.Width,
				Height:     cfg.FFmpeg.Height,
				Preset:     cfg.FFmpeg.Preset,
				CRF:        cfg.FFmpeg.CRF,
				AudioPath:  audioPath,
				TempDir:    cfg.TempDir,
			}
			if err := renderer.RenderPlan(ctx, plan, cat, opts); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error().Err(err).Str("output", output).Msg("render failed, continuing with next video")
				continue
			}
			rendered++
		}

		log.Info().
			Int("planned", len(plans)).
			Int("rendered", rendered).
			Str("output_dir", cfg.OutputDir).
			Msg("generation complete")
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [input dir]",
	Short: "Schedule a batch and print the segment plans as JSON, without rendering",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		if len(args) == 1 {
			cfg.InputDir = args[0]
		}

		_, cat, err := loadCatalog(ctx, cfg, cfg.Generator.Signatures)
		if err != nil {
			return err
		}

		planner := newPlanner(cat, cfg)
		plans, err := planner.Run(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plans)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = "./slopforge.yaml"
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// loadCatalog discovers the source videos, probes their durations and
// builds the immutable catalog, optionally with color signatures.
func loadCatalog(ctx context.Context, cfg *config.Config, signatures bool) (*ffmpeg.Executor, *catalog.Catalog, error) {
	exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, nil, err
	}

	files, err := util.VideoFiles(cfg.InputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", cfg.InputDir, err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: no MP4/MOV files in %s", catalog.ErrEmptyCatalog, cfg.InputDir)
	}

	entries := make([]catalog.Entry, 0, len(files))
	for _, f := range files {
		info, err := exec.Probe(ctx, f)
		if err != nil {
			log.Warn().Err(err).Str("file", f).Msg("probe failed, skipping source")
			continue
		}
		entries = append(entries, catalog.Entry{
			ID:       filepath.Base(f),
			Path:     f,
			Duration: info.Duration,
		})
	}

	var sampler catalog.FrameSampler
	if signatures {
		sampler = ffmpeg.NewSampler(exec)
	}
	cat, err := catalog.Load(ctx, entries, sampler, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	return exec, cat, nil
}

// newPlanner wires the config into a batch planner with a log-backed
// progress sink.
func newPlanner(cat *catalog.Catalog, cfg *config.Config) *schedule.BatchPlanner {
	g := cfg.Generator
	params := schedule.Params{
		TargetDuration:  g.TargetDuration,
		MinClips:        g.MinClips,
		MaxClips:        g.MaxClips,
		MinClipDuration: g.MinClipDuration,
		MaxClipDuration: g.MaxClipDuration,
		BufferMargin:    g.BufferMargin,
		MinSegmentSize:  g.MinSegmentSize,
		RecencyWindow:   g.RecencyWindow,
		SafetyMargin:    g.SafetyMargin,
		MaxAttempts:     g.MaxAttempts,
		CandidateSample: g.CandidateSample,
		UltraShortPicks: g.UltraShortPicks,
		Epsilon:         g.Epsilon,
	}

	runSeed := g.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	sink := schedule.SinkFunc(func(percent int, message string) {
		log.Info().Int("progress", percent).Msg(message)
	})
	return schedule.NewBatchPlanner(cat, params, g.NumVideos, runSeed, sink, log.Logger)
}
