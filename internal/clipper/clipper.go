// Package clipper cuts a time range out of a downloaded video with
// ffmpeg, using stream copy so no re-encode happens.
package clipper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"ytclip-server/internal/models"
)

// Runner mirrors the downloader's runner seam for testability.
type Runner interface {
	Run(ctx context.Context, name string, args []string) error
}

// ExecRunner runs the real transcoder.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %s", name, string(out))
	}
	return nil
}

// Clipper invokes ffmpeg for clip extraction.
type Clipper struct {
	runner Runner
	binary string
}

func New() *Clipper {
	return &Clipper{runner: ExecRunner{}, binary: "ffmpeg"}
}

// Extract cuts [start, end) seconds from sourcePath into destPath.
// ffmpeg sometimes truncates silently on a zero exit, so the size of
// the result is authoritative: a missing or zero-byte destination is a
// hard failure regardless of the exit code.
func (c *Clipper) Extract(ctx context.Context, sourcePath string, start, end int, destPath string) error {
	duration := end - start
	if duration <= 0 {
		return &models.ValidationError{Msg: "end must be greater than start"}
	}

	args := []string{
		"-i", sourcePath,
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(duration),
		"-c", "copy",
		destPath,
	}
	if err := c.runner.Run(ctx, c.binary, args); err != nil {
		return err
	}

	info, err := os.Stat(destPath)
	if err != nil || info.Size() == 0 {
		return models.ErrEmptyClip
	}
	return nil
}
