package clipper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ytclip-server/internal/models"
)

// fakeRunner stands in for ffmpeg and writes output bytes itself.
type fakeRunner struct {
	lastArgs []string
	output   []byte
	writeOut bool
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) error {
	f.lastArgs = args
	if f.writeOut {
		dest := args[len(args)-1]
		if err := os.WriteFile(dest, f.output, 0644); err != nil {
			return err
		}
	}
	return f.err
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestExtractPassesExactDuration(t *testing.T) {
	tests := []struct {
		name         string
		start, end   int
		wantSeek     string
		wantDuration string
	}{
		{name: "window 5 to 15", start: 5, end: 15, wantSeek: "5", wantDuration: "10"},
		{name: "minimum window", start: 0, end: 3, wantSeek: "0", wantDuration: "3"},
		{name: "late window", start: 120, end: 150, wantSeek: "120", wantDuration: "30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{writeOut: true, output: []byte("clip")}
			c := &Clipper{runner: runner, binary: "ffmpeg"}
			dest := filepath.Join(t.TempDir(), "clip.mp4")

			if err := c.Extract(context.Background(), "/tmp/full.mp4", tt.start, tt.end, dest); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := argValue(runner.lastArgs, "-ss"); got != tt.wantSeek {
				t.Errorf("seek = %q, want %q", got, tt.wantSeek)
			}
			if got := argValue(runner.lastArgs, "-t"); got != tt.wantDuration {
				t.Errorf("duration = %q, want %q", got, tt.wantDuration)
			}
			if got := argValue(runner.lastArgs, "-c"); got != "copy" {
				t.Errorf("codec = %q, want stream copy", got)
			}
		})
	}
}

func TestExtractEmptyResultIsFatal(t *testing.T) {
	// Zero-byte output with a clean exit must still fail: silent
	// truncation happens on "successful" runs.
	runner := &fakeRunner{writeOut: true, output: nil}
	c := &Clipper{runner: runner, binary: "ffmpeg"}
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	err := c.Extract(context.Background(), "/tmp/full.mp4", 0, 10, dest)
	if !errors.Is(err, models.ErrEmptyClip) {
		t.Fatalf("expected ErrEmptyClip, got %v", err)
	}
}

func TestExtractMissingResultIsFatal(t *testing.T) {
	runner := &fakeRunner{writeOut: false}
	c := &Clipper{runner: runner, binary: "ffmpeg"}
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	err := c.Extract(context.Background(), "/tmp/full.mp4", 0, 10, dest)
	if !errors.Is(err, models.ErrEmptyClip) {
		t.Fatalf("expected ErrEmptyClip, got %v", err)
	}
}

func TestExtractSubprocessFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("ffmpeg: moov atom not found")}
	c := &Clipper{runner: runner, binary: "ffmpeg"}
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	err := c.Extract(context.Background(), "/tmp/full.mp4", 0, 10, dest)
	if err == nil || errors.Is(err, models.ErrEmptyClip) {
		t.Fatalf("expected the subprocess error, got %v", err)
	}
}

func TestExtractRejectsBadWindow(t *testing.T) {
	c := &Clipper{runner: &fakeRunner{}, binary: "ffmpeg"}

	var validation *models.ValidationError
	err := c.Extract(context.Background(), "/tmp/full.mp4", 10, 10, "/tmp/clip.mp4")
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
