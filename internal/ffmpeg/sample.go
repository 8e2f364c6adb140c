package ffmpeg

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/keagan/slopforge/internal/catalog"
	"github.com/keagan/slopforge/pkg/util"
)

// Sampler is the production catalog.FrameSampler: it pulls a single frame
// at the requested timestamp and reduces it to the catalog's coarse color
// descriptor.
type Sampler struct {
	exec *Executor
}

// NewSampler wraps an executor as a frame sampler.
func NewSampler(exec *Executor) *Sampler {
	return &Sampler{exec: exec}
}

// Sample extracts one frame and returns its mean red, green and blue
// channel values plus overall luma, each normalized to [0,1].
func (s *Sampler) Sample(ctx context.Context, path string, at float64) (catalog.Descriptor, error) {
	framePath := filepath.Join(os.TempDir(), fmt.Sprintf("slopforge_frame_%d.jpg", time.Now().UnixNano()))
	defer os.Remove(framePath)

	if err := s.exec.extractFrame(ctx, path, at, framePath); err != nil {
		return catalog.Descriptor{}, err
	}

	file, err := os.Open(framePath)
	if err != nil {
		return catalog.Descriptor{}, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return catalog.Descriptor{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return describe(img), nil
}

// extractFrame grabs a single frame at the given timestamp.
func (e *Executor) extractFrame(ctx context.Context, input string, at float64, output string) error {
	opts := RunOptions{
		Args: []string{
			"-ss", util.FormatSeconds(at),
			"-i", input,
			"-frames:v", "1",
			"-q:v", "3",
			output,
		},
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}
	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("frame extraction at %.2fs failed: %w", at, err)
	}
	return nil
}

// describe reduces an image to channel means plus luma.
func describe(img image.Image) catalog.Descriptor {
	bounds := img.Bounds()
	pixels := float64(bounds.Dx() * bounds.Dy())
	if pixels == 0 {
		return catalog.Descriptor{}
	}

	var rSum, gSum, bSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rSum += float64(r >> 8)
			gSum += float64(g >> 8)
			bSum += float64(b >> 8)
		}
	}

	rMean := rSum / pixels
	gMean := gSum / pixels
	bMean := bSum / pixels
	luma := 0.299*rMean + 0.587*gMean + 0.114*bMean

	return catalog.Descriptor{
		rMean / 255.0,
		gMean / 255.0,
		bMean / 255.0,
		luma / 255.0,
	}
}
