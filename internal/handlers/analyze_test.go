package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"resona-backend/internal/models"
	"resona-backend/internal/services"
)

type fakeAudio struct {
	startResult *services.StartResult
	startErr    error
	startCalls  int

	analysis *models.SongAnalysis
	fetchErr error

	deleted []string
}

func (f *fakeAudio) StartAnalysis(ctx context.Context, videoID, youtubeURL string) (*services.StartResult, error) {
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startResult, nil
}

func (f *fakeAudio) FetchAnalysis(ctx context.Context, jobID string) (*models.SongAnalysis, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.analysis, nil
}

func (f *fakeAudio) DeleteJob(ctx context.Context, jobID string) error {
	f.deleted = append(f.deleted, jobID)
	return nil
}

type fakeCache struct {
	analyses map[string]*models.SongAnalysis
	videoJob map[string]string
	sets     int
	deletes  []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		analyses: make(map[string]*models.SongAnalysis),
		videoJob: make(map[string]string),
	}
}

func (f *fakeCache) Get(ctx context.Context, jobID string) (*models.SongAnalysis, error) {
	if a, ok := f.analyses[jobID]; ok {
		return a, nil
	}
	return nil, services.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, jobID string, analysis *models.SongAnalysis) error {
	f.sets++
	f.analyses[jobID] = analysis
	if analysis.Video.ID != "" {
		f.videoJob[analysis.Video.ID] = jobID
	}
	return nil
}

func (f *fakeCache) JobForVideo(ctx context.Context, videoID string) (string, error) {
	if jobID, ok := f.videoJob[videoID]; ok {
		return jobID, nil
	}
	return "", services.ErrCacheMiss
}

func (f *fakeCache) Delete(ctx context.Context, jobID string) error {
	f.deletes = append(f.deletes, jobID)
	delete(f.analyses, jobID)
	return nil
}

type fakeMetadata struct {
	video models.YouTubeVideo
}

func (f *fakeMetadata) VideoMetadata(ctx context.Context, videoID string) models.YouTubeVideo {
	if f.video.ID != "" {
		return f.video
	}
	return models.YouTubeVideo{ID: videoID, Title: "YouTube Video"}
}

func postAnalyze(t *testing.T, h *AnalyzeHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Analyze(rr, req)
	return rr
}

func TestAnalyze_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{"empty body", map[string]string{}},
		{"not a url", map[string]string{"youtubeUrl": "not-a-url"}},
		{"wrong host", map[string]string{"youtubeUrl": "https://vimeo.com/12345"}},
		{"id too short", map[string]string{"youtubeUrl": "https://youtu.be/short"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			audio := &fakeAudio{}
			h := NewAnalyzeHandler(audio, newFakeCache(), &fakeMetadata{}, "ws://localhost:8001")

			rr := postAnalyze(t, h, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}

			var resp models.APIErrorResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Code != "INVALID_URL" {
				t.Errorf("code = %q, want INVALID_URL", resp.Code)
			}
			if audio.startCalls != 0 {
				t.Errorf("audio service called %d times for invalid input", audio.startCalls)
			}
		})
	}
}

func TestAnalyze_StartsNewJob(t *testing.T) {
	audio := &fakeAudio{
		startResult: &services.StartResult{
			JobID:   "job_1",
			VideoID: "dQw4w9WgXcQ",
			Status:  "pending",
		},
	}
	meta := &fakeMetadata{video: models.YouTubeVideo{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Duration: 212}}
	h := NewAnalyzeHandler(audio, newFakeCache(), meta, "ws://localhost:8001")

	rr := postAnalyze(t, h, map[string]string{"youtubeUrl": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp models.AnalyzeResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.JobID != "job_1" || resp.Status != "processing" {
		t.Errorf("response = %+v, want job_1/processing", resp)
	}
	if resp.VideoTitle != "Never Gonna Give You Up" || resp.Duration != 212 {
		t.Errorf("metadata = %q/%v", resp.VideoTitle, resp.Duration)
	}
	if resp.WebSocketURL != "ws://localhost:8001/ws/job_1" {
		t.Errorf("WebSocketURL = %q", resp.WebSocketURL)
	}
}

func TestAnalyze_CachedVideoShortCircuits(t *testing.T) {
	audio := &fakeAudio{}
	cache := newFakeCache()
	cache.Set(context.Background(), "job_9", &models.SongAnalysis{
		ID:    "analysis_9",
		Video: models.YouTubeVideo{ID: "dQw4w9WgXcQ", Title: "Cached Title", Duration: 212},
	})
	h := NewAnalyzeHandler(audio, cache, &fakeMetadata{}, "ws://localhost:8001")

	rr := postAnalyze(t, h, map[string]string{"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp models.AnalyzeResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Status != "complete" || resp.JobID != "job_9" {
		t.Errorf("response = %+v, want cached complete job_9", resp)
	}
	if audio.startCalls != 0 {
		t.Error("cached video must not hit the audio service")
	}
}

func TestAnalyze_AudioServiceDown(t *testing.T) {
	audio := &fakeAudio{startErr: errors.New("connection refused")}
	h := NewAnalyzeHandler(audio, newFakeCache(), &fakeMetadata{}, "ws://localhost:8001")

	rr := postAnalyze(t, h, map[string]string{"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	var resp models.APIErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != "SERVICE_ERROR" {
		t.Errorf("code = %q, want SERVICE_ERROR", resp.Code)
	}
}

func TestAnalyze_AudioServiceTimeout(t *testing.T) {
	audio := &fakeAudio{startErr: context.DeadlineExceeded}
	h := NewAnalyzeHandler(audio, newFakeCache(), &fakeMetadata{}, "ws://localhost:8001")

	rr := postAnalyze(t, h, map[string]string{"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ"})
	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
}
