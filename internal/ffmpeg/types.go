package ffmpeg

// VideoInfo contains metadata about a probed video file. Durations are in
// seconds, matching the scheduler's time model.
type VideoInfo struct {
	FilePath string
	Duration float64
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
}

// Progress carries decoded fields from an ffmpeg status line.
type Progress struct {
	Time  string
	Speed string
}

// RunOptions configures a single ffmpeg invocation.
type RunOptions struct {
	Args            []string
	ProgressHandler func(Progress)
	LogHandler      func(line string)
}

// Default encoding settings.
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)
