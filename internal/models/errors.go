package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL means no video identifier could be extracted.
	ErrInvalidURL = errors.New("invalid YouTube URL")

	// ErrToolUnavailable means the external download tool is not installed.
	ErrToolUnavailable = errors.New("yt-dlp is not installed")

	// ErrEmptyDownload means the download tool exited cleanly but the
	// output file is missing or zero bytes.
	ErrEmptyDownload = errors.New("downloaded file is empty")

	// ErrEmptyClip is the same condition for the clip step. ffmpeg has
	// been seen to truncate silently on a zero exit, so the size check
	// is authoritative over the exit code.
	ErrEmptyClip = errors.New("generated clip is empty")
)

// ValidationError is a caller mistake, reported as 400 and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// DownloadError aggregates a failed retry run. Err holds the last
// attempt's failure.
type DownloadError struct {
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
