package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"resona-backend/internal/models"
	"resona-backend/internal/youtube"
)

// MetadataService resolves title and duration for a video so the submission
// response can carry them before any analysis output exists.
type MetadataService struct {
	ytClient   *yt.Client
	httpClient *http.Client
}

func NewMetadataService() *MetadataService {
	return &MetadataService{
		ytClient:   &yt.Client{},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// VideoMetadata fetches metadata via the player API, falling back to oEmbed
// (which has no duration) when that fails. Never returns an error: a video
// we cannot describe still gets analyzed, just with placeholder metadata.
func (s *MetadataService) VideoMetadata(ctx context.Context, videoID string) models.YouTubeVideo {
	meta := models.YouTubeVideo{
		ID:           videoID,
		Title:        "YouTube Video",
		ThumbnailURL: youtube.ThumbnailURL(videoID),
	}

	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err == nil {
		meta.Title = video.Title
		meta.Duration = video.Duration.Seconds()
		return meta
	}
	log.Printf("metadata: player API failed for %s, trying oEmbed: %v", videoID, err)

	oembedURL := "https://www.youtube.com/oembed?url=" + youtube.WatchURL(videoID) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return meta
	}
	resp, err := s.httpClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return meta
	}
	defer resp.Body.Close()

	var oembed struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err == nil {
		if oembed.Title != "" {
			meta.Title = oembed.Title
		}
		if oembed.ThumbnailURL != "" {
			meta.ThumbnailURL = oembed.ThumbnailURL
		}
	}
	return meta
}
