// Package videoinfo fetches video metadata. Primary source is the
// download tool's JSON dump; when YouTube bot-blocks the subprocess the
// service falls back to the API client library instead of failing.
package videoinfo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"ytclip-server/internal/downloader"
	"ytclip-server/internal/models"
)

const fetchTimeout = 2 * time.Minute

// CommandOutput runs a subprocess and returns its stdout. Swappable in
// tests.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, stderr.String())
	}
	return out.Bytes(), nil
}

// Service answers info and formats requests.
type Service struct {
	run      CommandOutput
	fallback func(videoID string) (*models.VideoInfo, error)
}

func NewService() *Service {
	return &Service{
		run:      execOutput,
		fallback: apiFallback,
	}
}

// rawInfo is the subset of yt-dlp's JSON dump we surface.
type rawInfo struct {
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Uploader    string `json:"uploader"`
	ViewCount   int64  `json:"view_count"`
	UploadDate  string `json:"upload_date"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Fetch returns metadata for the video behind url.
func (s *Service) Fetch(ctx context.Context, url string) (*models.VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	out, err := s.run(ctx, "yt-dlp",
		"--dump-json",
		"--user-agent", downloader.RandomUserAgent(),
		"--no-check-certificates",
		"--extractor-args", "youtube:player_client=android",
		"--no-warnings",
		"--quiet",
		url,
	)
	if err != nil {
		if isBotBlocked(err) {
			log.Printf("🤖 Bot detection on info fetch, falling back to API client")
			if id := downloader.ExtractVideoID(url); id != "" {
				return s.fallback(id)
			}
		}
		return nil, err
	}

	var raw rawInfo
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("unexpected yt-dlp output: %w", err)
	}

	return &models.VideoInfo{
		Success:     true,
		Title:       raw.Title,
		Duration:    raw.Duration,
		Author:      raw.Uploader,
		ViewCount:   raw.ViewCount,
		UploadDate:  raw.UploadDate,
		Description: truncate(raw.Description, 200),
		Thumbnail:   raw.Thumbnail,
	}, nil
}

// Formats lists the available download formats for url.
func (s *Service) Formats(ctx context.Context, url string) ([]models.VideoFormat, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	out, err := s.run(ctx, "yt-dlp",
		"--list-formats",
		"--user-agent", downloader.RandomUserAgent(),
		"--no-check-certificates",
		"--extractor-args", "youtube:player_client=android",
		url,
	)
	if err != nil {
		return nil, err
	}

	return parseFormats(string(out)), nil
}

// parseFormats picks the tabular rows out of the --list-formats dump.
func parseFormats(output string) []models.VideoFormat {
	var formats []models.VideoFormat
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		if strings.Contains(line, "ID") && strings.Contains(line, "EXT") {
			continue
		}
		if strings.Contains(line, "---") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		formats = append(formats, models.VideoFormat{
			ID:         parts[0],
			Extension:  parts[1],
			Resolution: parts[2],
			Note:       strings.Join(parts[3:], " "),
		})
	}
	return formats
}

func apiFallback(videoID string) (*models.VideoInfo, error) {
	client := youtube.Client{}
	video, err := client.GetVideo(videoID)
	if err != nil {
		return nil, fmt.Errorf("fallback lookup failed: %w", err)
	}

	thumbnail := ""
	if len(video.Thumbnails) > 0 {
		thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	return &models.VideoInfo{
		Success:     true,
		Title:       video.Title,
		Duration:    int(video.Duration.Seconds()),
		Author:      video.Author,
		ViewCount:   int64(video.Views),
		UploadDate:  video.PublishDate.Format("20060102"),
		Description: truncate(video.Description, 200),
		Thumbnail:   thumbnail,
	}, nil
}

func isBotBlocked(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Sign in to confirm") || strings.Contains(msg, "bot")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
