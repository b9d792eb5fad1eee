package downloader

import (
	"math"
	"regexp"
	"strconv"

	"ytclip-server/internal/models"
)

// ProgressFunc receives each parsed progress update. It is the seam
// between the subprocess text stream and whatever tracks job state.
type ProgressFunc func(models.ProgressUpdate)

// Matches the fixed --progress-template emitted by yt-dlp:
// download:<downloaded_bytes>/<total_bytes>/<speed>/<eta>
var progressLineRegex = regexp.MustCompile(`download:(\d+)/(\d+)/([^/]+)/(\d+)`)

// ParseProgressLine extracts a progress update from one stdout line.
// Most lines are noise and return ok=false; that is not an error.
// A zero total also yields no update so percent never divides by zero.
func ParseProgressLine(line string) (models.ProgressUpdate, bool) {
	m := progressLineRegex.FindStringSubmatch(line)
	if m == nil {
		return models.ProgressUpdate{}, false
	}

	downloaded, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return models.ProgressUpdate{}, false
	}
	total, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || total == 0 {
		return models.ProgressUpdate{}, false
	}
	eta, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return models.ProgressUpdate{}, false
	}

	percent := int(math.Round(float64(downloaded) / float64(total) * 100))

	return models.ProgressUpdate{
		Downloaded: downloaded,
		Total:      total,
		Speed:      m[3],
		ETASeconds: eta,
		Percent:    percent,
	}, true
}
