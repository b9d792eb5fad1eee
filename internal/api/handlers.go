package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"ytclip-server/internal/config"
	"ytclip-server/internal/jobs"
	"ytclip-server/internal/models"
	"ytclip-server/internal/videoinfo"
)

type Handler struct {
	cfg          *config.Config
	Orchestrator *jobs.Orchestrator
	Info         *videoinfo.Service
}

func NewHandler(cfg *config.Config, orch *jobs.Orchestrator, info *videoinfo.Service) *Handler {
	return &Handler{cfg: cfg, Orchestrator: orch, Info: info}
}

// Download runs the clip pipeline and streams the result:
// POST /api/download-oauth
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "", "")
		return
	}

	result, cleanup, err := h.Orchestrator.Run(r.Context(), req)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			writeError(w, http.StatusBadRequest, validation.Msg, "", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "Download failed", err.Error(), "")
		return
	}
	defer cleanup()

	file, err := os.Open(result.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Download failed", err.Error(), "")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", result.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	w.Header().Set("X-Job-ID", result.JobID)

	if _, err := io.Copy(w, file); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		log.Printf("[JOB %s] ⚠️ Stream interrupted: %v", result.JobID, err)
	}
}

// VideoInfo returns metadata for a URL: POST /api/info-oauth
func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decodeURLBody(w, r)
	if !ok {
		return
	}

	info, err := h.Info.Fetch(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch video info", err.Error(), "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// Formats lists the available download formats: POST /api/formats-oauth
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decodeURLBody(w, r)
	if !ok {
		return
	}

	formats, err := h.Info.Formats(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch video formats", err.Error(), "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"formats": formats,
	})
}

func (h *Handler) decodeURLBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required", "", "")
		return "", false
	}
	return body.URL, true
}

// Progress serves both the unkeyed and the keyed form:
// GET /api/progress and GET /api/progress/{jobID}
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	tracker := h.Orchestrator.Tracker()

	jobID := strings.TrimPrefix(r.URL.Path, "/api/progress")
	jobID = strings.Trim(jobID, "/")

	var snapshot models.ProgressSnapshot
	if jobID == "" {
		snapshot = tracker.Current()
	} else {
		var ok bool
		snapshot, ok = tracker.Snapshot(jobID)
		if !ok {
			writeError(w, http.StatusNotFound, "Job not found", "", "")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// Health reports liveness plus host headroom: GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"oauth":       h.cfg.OAuthConfigured(),
		"environment": h.cfg.Environment,
	}

	if usage, err := disk.Usage(h.cfg.DownloadDir); err == nil {
		payload["disk"] = map[string]interface{}{
			"free_bytes":   usage.Free,
			"total_bytes":  usage.Total,
			"used_percent": usage.UsedPercent,
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		payload["memory"] = map[string]interface{}{
			"available_bytes": vm.Available,
			"used_percent":    vm.UsedPercent,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// Retired answers the superseded pre-OAuth routes with a fixed 401 so
// old clients get pushed to the OAuth endpoints.
func (h *Handler) Retired(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "This endpoint has been retired. Use the -oauth endpoints.", "", "auth_required")
}

// writeError emits the shared error JSON shape {error, details?, type?}.
func writeError(w http.ResponseWriter, status int, msg, details, tag string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	if tag != "" {
		body["type"] = tag
	}
	json.NewEncoder(w).Encode(body)
}
