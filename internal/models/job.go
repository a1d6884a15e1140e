package models

type AnalysisStatus string

const (
	StatusIdle       AnalysisStatus = "idle"
	StatusPending    AnalysisStatus = "pending"
	StatusExtracting AnalysisStatus = "extracting"
	StatusAnalyzing  AnalysisStatus = "analyzing"
	StatusComplete   AnalysisStatus = "complete"
	StatusError      AnalysisStatus = "error"
)

// Terminal reports whether the status is an end state of the job lifecycle.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// AnalysisJob tracks one server-side analysis task through its lifecycle.
type AnalysisJob struct {
	JobID    string         `json:"jobId"`
	VideoID  string         `json:"videoId"`
	Status   AnalysisStatus `json:"status"`
	Progress int            `json:"progress"` // 0-100
	Error    string         `json:"error,omitempty"`
}

// API request/response types

type AnalyzeRequest struct {
	YouTubeURL string `json:"youtubeUrl" validate:"required,url,youtube_url"`
}

type AnalyzeResponse struct {
	JobID        string  `json:"jobId"`
	VideoID      string  `json:"videoId"`
	VideoTitle   string  `json:"videoTitle"`
	Duration     float64 `json:"duration"`
	Status       string  `json:"status"` // "processing" | "complete"
	WebSocketURL string  `json:"websocketUrl"`
}

// API error response: HTTP status mirrors Code.
type APIErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
