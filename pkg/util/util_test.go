package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{4.5, "00:00:04.500"},
		{61.25, "00:01:01.250"},
		{3723.5, "01:02:03.500"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.seconds); got != tc.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"0/0", 0},
		{"garbage", 0},
		{"25", 0},
	}
	for _, tc := range cases {
		if got := ParseFrameRate(tc.input); got != tc.want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestVideoFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MOV", "notes.txt", "c.avi"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := VideoFiles(dir)
	if err != nil {
		t.Fatalf("VideoFiles failed: %v", err)
	}

	want := []string{filepath.Join(dir, "a.MOV"), filepath.Join(dir, "b.mp4")}
	if len(files) != len(want) {
		t.Fatalf("got %d files %v, want %d", len(files), files, len(want))
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestVideoFilesMissingDir(t *testing.T) {
	if _, err := VideoFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !FileExists(path) {
		t.Error("expected created directory to exist")
	}
	if FileExists(filepath.Join(path, "missing")) {
		t.Error("expected missing path to not exist")
	}
}
