package jobs

import (
	"sync"
	"time"

	"ytclip-server/internal/models"
)

// Tracker keeps one progress record per job, keyed by job id, so
// concurrent jobs cannot overwrite each other's reporting. Terminal
// records stick around until the janitor evicts them, which lets a
// poller observe a final error state before it disappears.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*trackedJob
	currentID string
}

type trackedJob struct {
	snapshot  models.ProgressSnapshot
	updatedAt time.Time
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*trackedJob)}
}

// Start registers a new job and makes it the one reported by the
// unkeyed progress endpoint.
func (t *Tracker) Start(jobID, filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs[jobID] = &trackedJob{
		snapshot: models.ProgressSnapshot{
			JobID:           jobID,
			Status:          models.StatusDownloading,
			Stage:           models.StageDownloadingVideo,
			Progress:        0,
			CurrentDownload: filename,
		},
		updatedAt: time.Now(),
	}
	t.currentID = jobID
}

// Update applies a parsed download progress line to the job.
func (t *Tracker) Update(jobID string, u models.ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	downloaded, total, remaining := u.Downloaded, u.Total, u.ETASeconds
	speed := u.Speed

	job.snapshot.Progress = u.Percent
	job.snapshot.Downloaded = &downloaded
	job.snapshot.Total = &total
	job.snapshot.Speed = &speed
	job.snapshot.Remaining = &remaining
	job.snapshot.Stage = models.StageDownloadingVideo
	job.updatedAt = time.Now()
}

// SetStage moves the job to a fixed stage marker.
func (t *Tracker) SetStage(jobID, status, stage string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	job.snapshot.Status = status
	job.snapshot.Stage = stage
	job.snapshot.Progress = progress
	job.updatedAt = time.Now()
}

// Fail records a terminal error for the job.
func (t *Tracker) Fail(jobID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return
	}
	job.snapshot = models.ProgressSnapshot{
		JobID:    jobID,
		Status:   models.StatusError,
		Progress: 0,
		Error:    message,
	}
	job.updatedAt = time.Now()
}

// Finish drops the job after its response has fully streamed. The
// unkeyed endpoint flips back to idle at this point.
func (t *Tracker) Finish(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.jobs, jobID)
	if t.currentID == jobID {
		t.currentID = ""
	}
}

// Snapshot returns the record for one job id.
func (t *Tracker) Snapshot(jobID string) (models.ProgressSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return models.ProgressSnapshot{}, false
	}
	return job.snapshot, true
}

// Current returns the most recently started job's record, or the idle
// snapshot when nothing is in flight.
func (t *Tracker) Current() models.ProgressSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.currentID != "" {
		if job, ok := t.jobs[t.currentID]; ok {
			return job.snapshot
		}
	}
	return models.IdleSnapshot()
}

// evictBefore removes terminal records not touched since cutoff and
// returns how many were dropped.
func (t *Tracker) evictBefore(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, job := range t.jobs {
		if job.snapshot.Terminal() && job.updatedAt.Before(cutoff) {
			delete(t.jobs, id)
			if t.currentID == id {
				t.currentID = ""
			}
			evicted++
		}
	}
	return evicted
}
