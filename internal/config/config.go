package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration.
type Config struct {
	// Core paths
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`

	// AudioPath is the background track looped under every output video,
	// replacing the segments' own audio. Empty disables the mix.
	AudioPath string `yaml:"audio_path"`

	// Scheduling settings
	Generator GeneratorConfig `yaml:"generator"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

// GeneratorConfig steers the segment scheduler.
type GeneratorConfig struct {
	NumVideos       int     `yaml:"num_videos"`
	MinClips        int     `yaml:"min_clips"`
	MaxClips        int     `yaml:"max_clips"`
	MinClipDuration float64 `yaml:"min_clip_duration"`
	MaxClipDuration float64 `yaml:"max_clip_duration"`
	TargetDuration  float64 `yaml:"target_duration"`
	BufferMargin    float64 `yaml:"buffer_margin"`
	MinSegmentSize  float64 `yaml:"min_segment_size"`
	RecencyWindow   int     `yaml:"recency_window"` // 0 = derived from source count
	SafetyMargin    float64 `yaml:"safety_margin"`
	MaxAttempts     int     `yaml:"max_attempts"`
	CandidateSample int     `yaml:"candidate_sample"`
	UltraShortPicks int     `yaml:"ultra_short_picks"`
	Epsilon         float64 `yaml:"epsilon"`
	// Seed makes scheduling reproducible; 0 picks a time-based seed.
	Seed int64 `yaml:"seed"`
	// Signatures toggles feature-vector extraction for dissimilarity
	// ranking. Costs one frame decode per sample point per source.
	Signatures bool `yaml:"signatures"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
	// Width and Height define the output frame. Every extracted segment is
	// scaled to fit and padded to exactly this size so portrait and
	// landscape sources mix in one video and the concat step can
	// stream-copy. Defaults to 9:16.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Load reads configuration from file or returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the scheduler cannot work with.
func (c *Config) Validate() error {
	g := c.Generator
	switch {
	case g.NumVideos < 1:
		return fmt.Errorf("num_videos must be >= 1, got %d", g.NumVideos)
	case g.TargetDuration <= 0:
		return fmt.Errorf("target_duration must be > 0, got %g", g.TargetDuration)
	case g.MinClipDuration <= 0:
		return fmt.Errorf("min_clip_duration must be > 0, got %g", g.MinClipDuration)
	case g.MaxClipDuration < g.MinClipDuration:
		return fmt.Errorf("max_clip_duration %g below min_clip_duration %g", g.MaxClipDuration, g.MinClipDuration)
	case g.MinClips < 1:
		return fmt.Errorf("min_clips must be >= 1, got %d", g.MinClips)
	case g.MaxClips < g.MinClips:
		return fmt.Errorf("max_clips %d below min_clips %d", g.MaxClips, g.MinClips)
	case g.BufferMargin < 0:
		return fmt.Errorf("buffer_margin must be >= 0, got %g", g.BufferMargin)
	case g.MinSegmentSize < 0:
		return fmt.Errorf("min_segment_size must be >= 0, got %g", g.MinSegmentSize)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		InputDir:  "./assets/input_videos",
		OutputDir: "./outputs",
		TempDir:   "",
		AudioPath: "./assets/input_audio/audio.mp3",
		Generator: GeneratorConfig{
			NumVideos:       15,
			MinClips:        4,
			MaxClips:        8,
			MinClipDuration: 3.0,
			MaxClipDuration: 5.0,
			TargetDuration:  16.0,
			BufferMargin:    0.1,
			MinSegmentSize:  0.5,
			RecencyWindow:   0,
			SafetyMargin:    0.25,
			MaxAttempts:     20,
			CandidateSample: 3,
			UltraShortPicks: 8,
			Epsilon:         0.1,
			Seed:            0,
			Signatures:      true,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
			Width:      1080,
			Height:     1920,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./slopforge.yaml",
		"./slopforge.yml",
		filepath.Join(os.Getenv("HOME"), ".slopforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
