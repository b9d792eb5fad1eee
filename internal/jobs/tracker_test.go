package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"ytclip-server/internal/models"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	if got := tr.Current(); got.Status != models.StatusIdle || got.Progress != 0 {
		t.Fatalf("fresh tracker = %+v, want idle", got)
	}

	tr.Start("job-1", "clip.mp4")
	snap, ok := tr.Snapshot("job-1")
	if !ok {
		t.Fatal("job-1 missing after Start")
	}
	if snap.Status != models.StatusDownloading || snap.Stage != models.StageDownloadingVideo {
		t.Errorf("after Start = %+v", snap)
	}
	if snap.CurrentDownload != "clip.mp4" {
		t.Errorf("currentDownload = %q", snap.CurrentDownload)
	}

	tr.Update("job-1", models.ProgressUpdate{Downloaded: 50, Total: 100, Speed: "1024", ETASeconds: 7, Percent: 50})
	snap, _ = tr.Snapshot("job-1")
	if snap.Progress != 50 || snap.Downloaded == nil || *snap.Downloaded != 50 {
		t.Errorf("after Update = %+v", snap)
	}

	tr.SetStage("job-1", models.StatusCreatingClip, models.StageCreatingClip, 50)
	snap, _ = tr.Snapshot("job-1")
	if snap.Status != models.StatusCreatingClip {
		t.Errorf("stage transition lost: %+v", snap)
	}

	tr.SetStage("job-1", models.StatusCompleted, models.StageSendingFile, 100)
	tr.Finish("job-1")

	if _, ok := tr.Snapshot("job-1"); ok {
		t.Error("job-1 still present after Finish")
	}
	if got := tr.Current(); got.Status != models.StatusIdle {
		t.Errorf("after Finish current = %+v, want idle", got)
	}
}

func TestTrackerFailureSticksUntilEviction(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1", "clip.mp4")
	tr.Fail("job-1", "yt-dlp process exited with code 1")

	snap, ok := tr.Snapshot("job-1")
	if !ok {
		t.Fatal("failed job evicted too early")
	}
	if snap.Status != models.StatusError || snap.Error == "" {
		t.Errorf("failure snapshot = %+v", snap)
	}

	// Still visible to the unkeyed poller until the janitor runs.
	if got := tr.Current(); got.Status != models.StatusError {
		t.Errorf("current = %+v, want the error state", got)
	}

	if n := tr.evictBefore(time.Now().Add(time.Second)); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if got := tr.Current(); got.Status != models.StatusIdle {
		t.Errorf("after eviction current = %+v, want idle", got)
	}
}

func TestTrackerEvictionSparesActiveJobs(t *testing.T) {
	tr := NewTracker()
	tr.Start("active", "a.mp4")
	tr.Start("failed", "b.mp4")
	tr.Fail("failed", "boom")

	if n := tr.evictBefore(time.Now().Add(time.Second)); n != 1 {
		t.Fatalf("evicted %d, want only the terminal job", n)
	}
	if _, ok := tr.Snapshot("active"); !ok {
		t.Error("active job was evicted")
	}
}

// Two concurrent jobs must not interleave: each id keeps its own
// progress record.
func TestTrackerConcurrentJobIsolation(t *testing.T) {
	tr := NewTracker()

	const jobs = 8
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			tr.Start(id, fmt.Sprintf("clip-%d.mp4", n))
			for pct := 0; pct <= 100; pct += 10 {
				tr.Update(id, models.ProgressUpdate{
					Downloaded: int64(pct),
					Total:      100,
					Percent:    pct,
				})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < jobs; i++ {
		id := fmt.Sprintf("job-%d", i)
		snap, ok := tr.Snapshot(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if snap.JobID != id {
			t.Errorf("%s snapshot carries id %s", id, snap.JobID)
		}
		if snap.Progress != 100 {
			t.Errorf("%s progress = %d, want 100", id, snap.Progress)
		}
		if want := fmt.Sprintf("clip-%d.mp4", i); snap.CurrentDownload != want {
			t.Errorf("%s filename = %q, want %q", id, snap.CurrentDownload, want)
		}
	}
}
