// Package youtube normalizes user-supplied YouTube URLs into canonical
// 11-character video IDs. Purely syntactic, no network access.
package youtube

import "regexp"

var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

// ExtractVideoID returns the canonical video ID embedded in input, or
// ("", false) when input does not match any accepted URL shape.
func ExtractVideoID(input string) (string, bool) {
	matches := videoIDRegex.FindStringSubmatch(input)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// IsValidURL reports whether ExtractVideoID would succeed for input.
func IsValidURL(input string) bool {
	_, ok := ExtractVideoID(input)
	return ok
}

// ThumbnailURL returns the medium-quality thumbnail for a video ID.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/mqdefault.jpg"
}

// EmbedURL returns the embeddable player URL for a video ID.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
