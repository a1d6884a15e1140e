package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"resona-backend/internal/models"
	"resona-backend/internal/services"
	"resona-backend/internal/youtube"
)

// AudioClient is the slice of the audio-service proxy the handlers use.
// Satisfied by *services.AudioService.
type AudioClient interface {
	StartAnalysis(ctx context.Context, videoID, youtubeURL string) (*services.StartResult, error)
	FetchAnalysis(ctx context.Context, jobID string) (*models.SongAnalysis, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// Cache is the completed-analysis cache the handlers read through.
type Cache interface {
	Get(ctx context.Context, jobID string) (*models.SongAnalysis, error)
	Set(ctx context.Context, jobID string, analysis *models.SongAnalysis) error
	JobForVideo(ctx context.Context, videoID string) (string, error)
	Delete(ctx context.Context, jobID string) error
}

// MetadataProvider resolves video title/duration for submission responses.
type MetadataProvider interface {
	VideoMetadata(ctx context.Context, videoID string) models.YouTubeVideo
}

type AnalyzeHandler struct {
	audio     AudioClient
	cache     Cache
	metadata  MetadataProvider
	validate  *validator.Validate
	wsBaseURL string
}

func NewAnalyzeHandler(audio AudioClient, cache Cache, metadata MetadataProvider, wsBaseURL string) *AnalyzeHandler {
	v := validator.New()
	v.RegisterValidation("youtube_url", func(fl validator.FieldLevel) bool {
		return youtube.IsValidURL(fl.Field().String())
	})
	return &AnalyzeHandler{
		audio:     audio,
		cache:     cache,
		metadata:  metadata,
		validate:  v,
		wsBaseURL: wsBaseURL,
	}
}

// Analyze handles POST /api/analyze. A video whose completed analysis is
// still cached short-circuits to a "complete" response; everything else is
// forwarded to the audio service.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	Metrics.AnalyzeRequests.Inc()

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrInvalidURL, "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrInvalidURL, "")
		return
	}

	videoID, ok := youtube.ExtractVideoID(req.YouTubeURL)
	if !ok {
		writeError(w, http.StatusBadRequest, models.ErrInvalidURL, "")
		return
	}

	if resp, ok := h.cachedResponse(r.Context(), videoID); ok {
		Metrics.CacheHits.Inc()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	start, err := h.audio.StartAnalysis(r.Context(), videoID, req.YouTubeURL)
	if err != nil {
		log.Printf("analyze: audio service submission failed for %s: %v", videoID, err)
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, models.ErrTimeout, "")
			return
		}
		writeError(w, http.StatusInternalServerError, models.ErrServiceError, "")
		return
	}

	meta := h.metadata.VideoMetadata(r.Context(), videoID)

	status := "processing"
	if start.Status == "complete" {
		status = "complete"
	}
	wsURL := start.WebSocketURL
	if wsURL == "" {
		wsURL = h.wsBaseURL + "/ws/" + start.JobID
	}

	writeJSON(w, http.StatusOK, models.AnalyzeResponse{
		JobID:        start.JobID,
		VideoID:      videoID,
		VideoTitle:   meta.Title,
		Duration:     meta.Duration,
		Status:       status,
		WebSocketURL: wsURL,
	})
}

// cachedResponse resolves a video to its completed job, if one is cached.
func (h *AnalyzeHandler) cachedResponse(ctx context.Context, videoID string) (models.AnalyzeResponse, bool) {
	jobID, err := h.cache.JobForVideo(ctx, videoID)
	if err != nil {
		return models.AnalyzeResponse{}, false
	}
	analysis, err := h.cache.Get(ctx, jobID)
	if err != nil {
		return models.AnalyzeResponse{}, false
	}
	return models.AnalyzeResponse{
		JobID:        jobID,
		VideoID:      videoID,
		VideoTitle:   analysis.Video.Title,
		Duration:     analysis.Video.Duration,
		Status:       "complete",
		WebSocketURL: h.wsBaseURL + "/ws/" + jobID,
	}, true
}
