package jobs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytclip-server/internal/config"
	"ytclip-server/internal/downloader"
	"ytclip-server/internal/models"
)

const (
	defaultClipStart = 0
	defaultClipEnd   = 10
	minClipSeconds   = 3

	admissionTimeout = 10 * time.Second
)

// DownloadEngine is what the orchestrator needs from the retrying
// downloader.
type DownloadEngine interface {
	CheckAvailable(ctx context.Context) error
	Download(ctx context.Context, url, destPath string, onProgress downloader.ProgressFunc) error
}

// ClipExtractor is what the orchestrator needs from the transcoder step.
type ClipExtractor interface {
	Extract(ctx context.Context, sourcePath string, start, end int, destPath string) error
}

// Orchestrator runs the download-and-clip pipeline: validate, resolve
// the video id, download into a per-job arena, cut the clip, relocate
// if asked to, and hand the result back for streaming. Jobs are
// admitted through a bounded gate so the host isn't overrun.
type Orchestrator struct {
	cfg     *config.Config
	engine  DownloadEngine
	clipper ClipExtractor
	tracker *Tracker
	gate    chan struct{}
}

func NewOrchestrator(cfg *config.Config, engine DownloadEngine, clip ClipExtractor, tracker *Tracker) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		engine:  engine,
		clipper: clip,
		tracker: tracker,
		gate:    make(chan struct{}, cfg.MaxConcurrentJobs),
	}
}

// Run executes one job. On success the caller streams result.Path and
// must call cleanup once the response has finished (or failed); cleanup
// removes the job arena and resets the job's progress record.
func (o *Orchestrator) Run(ctx context.Context, req models.DownloadRequest) (result *models.JobResult, cleanup func(), err error) {
	start, end, filename, err := normalizeRequest(&req)
	if err != nil {
		return nil, nil, err
	}

	videoID := downloader.ExtractVideoID(req.URL)
	if videoID == "" {
		return nil, nil, &models.ValidationError{Msg: models.ErrInvalidURL.Error()}
	}

	if err := o.engine.CheckAvailable(ctx); err != nil {
		return nil, nil, err
	}

	// Rate Limiting
	select {
	case o.gate <- struct{}{}:
	case <-time.After(admissionTimeout):
		return nil, nil, fmt.Errorf("server busy")
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	jobID := uuid.New().String()
	log.Printf("[JOB %s] Processing video %s (clip: %ds to %ds)", jobID, videoID, start, end)

	o.tracker.Start(jobID, filename)

	// Per-job arena keeps concurrent jobs off each other's files.
	arena, err := os.MkdirTemp(o.cfg.TempDir, "job-")
	if err != nil {
		<-o.gate
		o.tracker.Fail(jobID, err.Error())
		return nil, nil, err
	}

	fail := func(cause error) (*models.JobResult, func(), error) {
		o.tracker.Fail(jobID, cause.Error())
		removeArena(jobID, arena)
		<-o.gate
		return nil, nil, cause
	}

	// Stage: download
	fullVideoPath := filepath.Join(arena, "full-"+filename)
	log.Printf("[JOB %s] Downloading video with yt-dlp...", jobID)
	if err := o.engine.Download(ctx, req.URL, fullVideoPath, func(u models.ProgressUpdate) {
		o.tracker.Update(jobID, u)
	}); err != nil {
		return fail(err)
	}

	fullVideoPath, err = recoverDownloadPath(arena, fullVideoPath, filename)
	if err != nil {
		return fail(err)
	}
	if err := requireNonEmpty(fullVideoPath, models.ErrEmptyDownload); err != nil {
		return fail(err)
	}

	// Stage: clip. Fixed midpoint marker; extraction is fast relative
	// to the download.
	o.tracker.SetStage(jobID, models.StatusCreatingClip, models.StageCreatingClip, 50)
	log.Printf("[JOB %s] Creating clip...", jobID)

	clipPath := filepath.Join(arena, filename)
	if err := o.clipper.Extract(ctx, fullVideoPath, start, end, clipPath); err != nil {
		return fail(err)
	}

	// Stage: relocate
	finalPath := clipPath
	if destDir, ok := o.resolveOutputDir(req.Filepath); ok && destDir != arena {
		moved := filepath.Join(destDir, filename)
		log.Printf("[JOB %s] Moving clip to %s", jobID, moved)
		if err := copyFile(clipPath, moved); err != nil {
			return fail(err)
		}
		if err := os.Remove(clipPath); err != nil {
			log.Printf("[JOB %s] ⚠️ Could not remove working copy: %v", jobID, err)
		}
		finalPath = moved
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return fail(err)
	}

	// Stage: stream
	o.tracker.SetStage(jobID, models.StatusCompleted, models.StageSendingFile, 100)
	log.Printf("[JOB %s] Clip ready, sending file...", jobID)

	result = &models.JobResult{
		JobID:     jobID,
		Path:      finalPath,
		Filename:  filename,
		Size:      info.Size(),
		StartedAt: time.Now(),
	}
	cleanup = func() {
		removeArena(jobID, arena)
		o.tracker.Finish(jobID)
		<-o.gate
		log.Printf("[JOB %s] Temporary files cleaned up", jobID)
	}
	return result, cleanup, nil
}

// Tracker exposes the progress registry for the polling handlers.
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// normalizeRequest applies defaults and validates the clip window.
func normalizeRequest(req *models.DownloadRequest) (start, end int, filename string, err error) {
	if strings.TrimSpace(req.URL) == "" {
		return 0, 0, "", &models.ValidationError{Msg: "url is required"}
	}

	start, end = defaultClipStart, defaultClipEnd
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}
	if start < 0 {
		return 0, 0, "", &models.ValidationError{Msg: "start must not be negative"}
	}
	if end <= start {
		return 0, 0, "", &models.ValidationError{Msg: "end must be greater than start"}
	}
	if end-start < minClipSeconds {
		return 0, 0, "", &models.ValidationError{Msg: fmt.Sprintf("clip must be at least %d seconds", minClipSeconds)}
	}

	filename = strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = fmt.Sprintf("video-%d.mp4", time.Now().UnixMilli())
	}
	// Strip any path components a caller might smuggle in.
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		return 0, 0, "", &models.ValidationError{Msg: "invalid filename"}
	}
	return start, end, filename, nil
}

// recoverDownloadPath handles the download tool appending its own
// extension: when the expected path is missing, scan the arena for a
// best-effort prefix match and rename it into place.
func recoverDownloadPath(arena, expected, filename string) (string, error) {
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	stem := "full-" + strings.TrimSuffix(filename, filepath.Ext(filename))
	entries, err := os.ReadDir(arena)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stem) {
			continue
		}
		actual := filepath.Join(arena, entry.Name())
		if err := os.Rename(actual, expected); err != nil {
			return "", err
		}
		return expected, nil
	}
	return "", fmt.Errorf("video download failed - no file found")
}

func requireNonEmpty(path string, empty error) error {
	info, err := os.Stat(path)
	if err != nil {
		return empty
	}
	if info.Size() == 0 {
		return empty
	}
	log.Printf("Downloaded file size: %d bytes", info.Size())
	return nil
}

// resolveOutputDir maps the caller's destination hint to a concrete
// directory. Named shortcuts resolve under the home directory; "custom"
// and anything unresolvable fall back to the shared download dir or the
// arena. Arbitrary paths must stay under home (traversal guard).
func (o *Orchestrator) resolveOutputDir(hint string) (string, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", false
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	var dir string
	switch strings.ToLower(hint) {
	case "downloads":
		dir = filepath.Join(home, "Downloads")
	case "desktop":
		dir = filepath.Join(home, "Desktop")
	case "documents":
		dir = filepath.Join(home, "Documents")
	case "music":
		dir = filepath.Join(home, "Music")
	case "videos":
		dir = filepath.Join(home, "Videos")
	case "pictures":
		dir = filepath.Join(home, "Pictures")
	case "custom":
		dir = o.cfg.DownloadDir
	default:
		abs, err := filepath.Abs(hint)
		if err != nil || home == "" || !strings.HasPrefix(abs, home) {
			log.Printf("Invalid custom path %q, using default", hint)
			return "", false
		}
		dir = abs
	}

	if home == "" && dir != o.cfg.DownloadDir {
		return "", false
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Could not create output directory %s, using default: %v", dir, err)
		return "", false
	}
	return dir, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// removeArena deletes a job's temp directory, logging instead of
// swallowing failures.
func removeArena(jobID, arena string) {
	if err := os.RemoveAll(arena); err != nil {
		log.Printf("[JOB %s] ⚠️ Could not remove temp dir %s: %v", jobID, arena, err)
	}
}
