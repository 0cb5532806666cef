// Package youtube fetches video metadata from the YouTube Data API and
// transcripts through yt-dlp.
package youtube

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrInvalidURL is returned when no video id can be found in a URL.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
}

// ExtractVideoID returns the video id of a watch, short, embed or /v/ URL.
func ExtractVideoID(rawURL string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidURL
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts an ISO 8601 duration such as "PT1H2M3S" to
// seconds. Unparseable values yield 0.
func ParseISODuration(value string) int {
	m := isoDuration.FindStringSubmatch(value)
	if m == nil {
		return 0
	}

	seconds := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		seconds += n * unit
	}
	return seconds
}
