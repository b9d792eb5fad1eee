package downloader

import "regexp"

// Covers the common URL shapes: watch?v=, the youtu.be short link and
// the embed path.
var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// ExtractVideoID pulls the video identifier out of a YouTube URL.
// The empty string means the URL has no recognizable identifier.
func ExtractVideoID(url string) string {
	m := videoIDRegex.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
