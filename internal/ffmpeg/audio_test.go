package ffmpeg

import "testing"

func TestBuildMixArgs(t *testing.T) {
	args := buildMixArgs("video.mp4", "track.mp3", "out.mp4")

	if !argsContainPair(args, "-i", "video.mp4") {
		t.Errorf("missing video input, args = %v", args)
	}
	for i, a := range args {
		if a == "-stream_loop" {
			if args[i+1] != "-1" || args[i+2] != "-i" || args[i+3] != "track.mp3" {
				t.Errorf("stream_loop must precede the audio input, args = %v", args)
			}
		}
	}
	if !argsContainPair(args, "-map", "0:v") || !argsContainPair(args, "-map", "1:a") {
		t.Errorf("track must replace the original audio, args = %v", args)
	}
	if !argsContainPair(args, "-c:v", "copy") {
		t.Errorf("video must be stream-copied, args = %v", args)
	}

	shortest := false
	for _, a := range args {
		if a == "-shortest" {
			shortest = true
		}
	}
	if !shortest {
		t.Errorf("missing -shortest to cut the looped track, args = %v", args)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output must be last, args = %v", args)
	}
}
