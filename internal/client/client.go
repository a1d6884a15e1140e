// Package client talks to the analysis gateway over HTTP: job submission,
// cached-result retrieval, and the delete used by the recovery path.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"resona-backend/internal/models"
)

// requestTimeout is the fixed ceiling on every round trip. A call never
// outlives it; expiry maps to TIMEOUT.
const requestTimeout = 10 * time.Second

type OutcomeKind int

const (
	// OutcomeStarted means a new job was created and is processing.
	OutcomeStarted OutcomeKind = iota
	// OutcomeCached means the job already completed server-side and the
	// final result can be fetched directly.
	OutcomeCached
	// OutcomeRejected means the submission failed with a taxonomy code.
	OutcomeRejected
)

// SubmissionOutcome is the uniform result of one submission attempt. Exactly
// one request goes out per Submit call; retry policy belongs to the caller.
type SubmissionOutcome struct {
	Kind         OutcomeKind
	JobID        string
	VideoID      string
	VideoTitle   string
	Duration     float64
	WebSocketURL string

	// Set only for OutcomeRejected.
	Code       models.ErrorCode
	Message    string
	RetryAfter time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Submit starts analysis of videoURL. Transport faults and service rejections
// are folded into the outcome rather than returned as errors.
func (c *Client) Submit(ctx context.Context, videoURL string) SubmissionOutcome {
	body, _ := json.Marshal(models.AnalyzeRequest{YouTubeURL: videoURL})

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return rejected(models.ErrUnknown, err.Error(), 0)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return rejected(models.ErrTimeout, "submission timed out", 0)
		}
		return rejected(models.ErrNetworkError, err.Error(), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.rejectedFromResponse(resp)
	}

	var ar models.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return rejected(models.ErrServiceError, "malformed submission response", 0)
	}

	outcome := SubmissionOutcome{
		Kind:         OutcomeStarted,
		JobID:        ar.JobID,
		VideoID:      ar.VideoID,
		VideoTitle:   ar.VideoTitle,
		Duration:     ar.Duration,
		WebSocketURL: ar.WebSocketURL,
	}
	if ar.Status == "complete" {
		outcome.Kind = OutcomeCached
	}
	return outcome
}

// FetchAnalysis retrieves the final result of a completed job. Any non-200
// response is a cache miss and reported as an error for the caller's recovery
// path to handle.
func (c *Client) FetchAnalysis(ctx context.Context, jobID string) (*models.SongAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/job/"+jobID+"/analysis", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis fetch failed: %w", err)
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

// DeleteJob discards a stale job server-side. Fire-and-forget cleanup: the
// caller proceeds with its retry regardless of the result.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/job/"+jobID, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("job delete returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) rejectedFromResponse(resp *http.Response) SubmissionOutcome {
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&errResp)

	code := models.ErrorCode(errResp.Code)
	if !models.KnownCode(code) {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			code = models.ErrRateLimited
		case resp.StatusCode == http.StatusGatewayTimeout:
			code = models.ErrTimeout
		case resp.StatusCode == http.StatusBadRequest:
			code = models.ErrInvalidURL
		case resp.StatusCode >= 500:
			code = models.ErrServiceError
		default:
			code = models.ErrUnknown
		}
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	msg := errResp.Error
	if msg == "" {
		msg = models.ErrorText(code)
	}
	return rejected(code, msg, retryAfter)
}

func rejected(code models.ErrorCode, message string, retryAfter time.Duration) SubmissionOutcome {
	return SubmissionOutcome{
		Kind:       OutcomeRejected,
		Code:       code,
		Message:    message,
		RetryAfter: retryAfter,
	}
}
