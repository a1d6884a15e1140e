package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"resona-backend/internal/models"
)

// AudioService is the HTTP client for the audio-analysis service. The
// service's pipeline is a black box; this is its full surface.
type AudioService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAudioService(baseURL string) *AudioService {
	return &AudioService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StartResult is the analyzer's answer to an analysis request. Status is
// "complete" when the job already finished and its result is retrievable.
type StartResult struct {
	JobID        string `json:"job_id"`
	VideoID      string `json:"video_id"`
	Status       string `json:"status"`
	WebSocketURL string `json:"websocket_url"`
}

// StartAnalysis submits a video to the analyzer.
func (s *AudioService) StartAnalysis(ctx context.Context, videoID, youtubeURL string) (*StartResult, error) {
	body, _ := json.Marshal(map[string]string{
		"video_id":    videoID,
		"youtube_url": youtubeURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio service returned status %d", resp.StatusCode)
	}

	var result StartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("malformed audio service response: %w", err)
	}
	return &result, nil
}

// FetchAnalysis retrieves the final result of a completed job from the
// analyzer. Non-200 means the result is not (or no longer) retrievable.
func (s *AudioService) FetchAnalysis(ctx context.Context, jobID string) (*models.SongAnalysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/job/"+jobID+"/analysis", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis for job %s not retrievable (status %d)", jobID, resp.StatusCode)
	}

	var analysis models.SongAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}
	return &analysis, nil
}

// DeleteJob discards a job and its stored result on the analyzer.
func (s *AudioService) DeleteJob(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/job/"+jobID, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("audio service delete returned status %d", resp.StatusCode)
	}
	return nil
}
