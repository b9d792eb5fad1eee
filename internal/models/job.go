package models

import (
	"time"
)

// Job status values as exposed by the progress endpoints.
const (
	StatusIdle         = "idle"
	StatusDownloading  = "downloading"
	StatusCreatingClip = "creating_clip"
	StatusSendingFile  = "sending_file"
	StatusCompleted    = "completed"
	StatusError        = "error"
)

// Stage values inside an active job.
const (
	StageDownloadingVideo = "downloading_video"
	StageCreatingClip     = "creating_clip"
	StageSendingFile      = "sending_file"
)

// ProgressSnapshot is one poll result for a job. Pointer fields stay
// null in JSON until the downloader has reported real numbers.
type ProgressSnapshot struct {
	JobID           string  `json:"job_id,omitempty"`
	Status          string  `json:"status"`
	Stage           string  `json:"stage,omitempty"`
	Progress        int     `json:"progress"`
	Downloaded      *int64  `json:"downloaded,omitempty"`
	Total           *int64  `json:"total,omitempty"`
	Speed           *string `json:"speed,omitempty"`
	Remaining       *int64  `json:"remaining,omitempty"`
	CurrentDownload string  `json:"currentDownload,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// IdleSnapshot is what pollers see when no job is active.
func IdleSnapshot() ProgressSnapshot {
	return ProgressSnapshot{Status: StatusIdle, Progress: 0}
}

// Terminal reports whether the snapshot will never change again.
func (p ProgressSnapshot) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusError
}

// DownloadRequest is the body of a clip download call. Start and End are
// pointers so an omitted window can fall back to the [0,10] default.
type DownloadRequest struct {
	URL      string `json:"url"`
	Start    *int   `json:"start"`
	End      *int   `json:"end"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
}

// ProgressUpdate is one parsed progress line from the download tool.
type ProgressUpdate struct {
	Downloaded int64
	Total      int64
	Speed      string
	ETASeconds int64
	Percent    int
}

// VideoInfo is the metadata payload for the info endpoint.
type VideoInfo struct {
	Success     bool   `json:"success"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Author      string `json:"author"`
	ViewCount   int64  `json:"viewCount"`
	UploadDate  string `json:"uploadDate"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// VideoFormat is one row of the formats listing.
type VideoFormat struct {
	ID         string `json:"id"`
	Extension  string `json:"extension"`
	Resolution string `json:"resolution"`
	Note       string `json:"note"`
}

// JobResult describes a finished pipeline run, ready for streaming.
type JobResult struct {
	JobID     string
	Path      string
	Filename  string
	Size      int64
	StartedAt time.Time
}
