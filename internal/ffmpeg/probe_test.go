package ffmpeg

import (
	"math"
	"testing"
)

const sampleProbeOutput = `{
	"streams": [
		{
			"codec_type": "video",
			"width": 1080,
			"height": 1920,
			"r_frame_rate": "30000/1001"
		},
		{
			"codec_type": "audio"
		}
	],
	"format": {
		"duration": "12.480000"
	}
}`

func TestDecodeProbe(t *testing.T) {
	info, err := decodeProbe([]byte(sampleProbeOutput))
	if err != nil {
		t.Fatalf("decodeProbe failed: %v", err)
	}

	if math.Abs(info.Duration-12.48) > 1e-6 {
		t.Errorf("duration = %v, want 12.48", info.Duration)
	}
	if info.Width != 1080 || info.Height != 1920 {
		t.Errorf("dimensions = %dx%d, want 1080x1920", info.Width, info.Height)
	}
	if math.Abs(info.FPS-30000.0/1001.0) > 1e-6 {
		t.Errorf("fps = %v, want %v", info.FPS, 30000.0/1001.0)
	}
	if !info.HasAudio {
		t.Error("expected HasAudio to be true")
	}
}

func TestDecodeProbeVideoOnly(t *testing.T) {
	data := `{
		"streams": [{"codec_type": "video", "width": 640, "height": 360, "r_frame_rate": "25/1"}],
		"format": {"duration": "3.5"}
	}`

	info, err := decodeProbe([]byte(data))
	if err != nil {
		t.Fatalf("decodeProbe failed: %v", err)
	}
	if info.HasAudio {
		t.Error("expected HasAudio to be false")
	}
	if info.FPS != 25 {
		t.Errorf("fps = %v, want 25", info.FPS)
	}
}

func TestDecodeProbeBadJSON(t *testing.T) {
	if _, err := decodeProbe([]byte("not json")); err == nil {
		t.Error("expected error for malformed ffprobe output")
	}
}

func TestDecodeProbeMissingDuration(t *testing.T) {
	info, err := decodeProbe([]byte(`{"streams": [], "format": {}}`))
	if err != nil {
		t.Fatalf("decodeProbe failed: %v", err)
	}
	if info.Duration != 0 {
		t.Errorf("duration = %v, want 0 when ffprobe reports none", info.Duration)
	}
}
