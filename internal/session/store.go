// Package session holds the client-side state of one analysis session: the
// job lifecycle, the growing segment timeline, and the orchestration that
// feeds them from the submission client and the streaming channel.
package session

import (
	"sync"

	"resona-backend/internal/models"
)

// Store owns the analysis state for one session. It is mutated by the
// orchestrator's routed channel events and read by UI consumers and the
// playback ticker, so access is mutex-guarded. Segments are append-only
// until a final analysis replaces them wholesale.
type Store struct {
	mu          sync.RWMutex
	job         models.AnalysisJob
	segments    []models.AnalysisSegment
	currentTime float64
	duration    float64
	analysis    *models.SongAnalysis
	err         *models.AppError
}

func NewStore() *Store {
	return &Store{job: models.AnalysisJob{Status: models.StatusIdle}}
}

// Job returns a snapshot of the tracked job.
func (s *Store) Job() models.AnalysisJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.job
}

// Segments returns a copy of the current segment collection.
func (s *Store) Segments() []models.AnalysisSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AnalysisSegment(nil), s.segments...)
}

// Analysis returns the final result, or nil while streaming.
func (s *Store) Analysis() *models.SongAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

func (s *Store) Duration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

func (s *Store) CurrentTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTime
}

// SetJob records the identifiers of a freshly submitted job.
func (s *Store) SetJob(jobID, videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.JobID = jobID
	s.job.VideoID = videoID
}

// ApplyProgress sets status and progress from a server-pushed update. Once
// the session reached a terminal state only Reset clears it, so late updates
// are ignored then.
func (s *Store) ApplyProgress(status models.AnalysisStatus, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job.Status.Terminal() {
		return
	}
	s.job.Status = status
	s.job.Progress = progress
}

// AppendSegment adds a streamed segment to the end of the timeline. Streamed
// segments are the only duration source until a final result arrives.
func (s *Store) AppendSegment(segment models.AnalysisSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job.Status.Terminal() {
		return
	}
	s.segments = append(s.segments, segment)
	if segment.EndTime > s.duration {
		s.duration = segment.EndTime
	}
}

// SetFinalAnalysis installs the authoritative result: the segment collection
// is replaced wholesale, status forced to complete, progress to 100, and the
// duration taken from the video metadata.
func (s *Store) SetFinalAnalysis(analysis models.SongAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job.Status == models.StatusError {
		return
	}
	s.analysis = &analysis
	s.segments = append([]models.AnalysisSegment(nil), analysis.Segments...)
	s.duration = analysis.Video.Duration
	s.job.Status = models.StatusComplete
	s.job.Progress = 100
}

// SetError moves the session into its terminal error state. The code's fixed
// message becomes the user-facing text; the full AppError stays readable via
// Err so callers can offer a retry for transient codes.
func (s *Store) SetError(code models.ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appErr := models.NewAppError(code, "")
	s.job.Status = models.StatusError
	s.job.Error = appErr.Message
	s.err = appErr
}

// Err returns the error that ended the session, or nil.
func (s *Store) Err() *models.AppError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// SetCurrentTime mirrors the playback cursor. Called at high frequency by
// the player adapter; never blocks on anything but the lock.
func (s *Store) SetCurrentTime(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTime = t
}

// CurrentSegment returns the segment active at the mirrored playback time.
func (s *Store) CurrentSegment() *models.AnalysisSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return segmentAt(s.segments, s.currentTime)
}

// SegmentAt returns the segment whose interval contains t. When the cursor
// has run past the last known segment boundary (streaming lag), the most
// recent segment is treated as still current rather than blanking out.
func (s *Store) SegmentAt(t float64) *models.AnalysisSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return segmentAt(s.segments, t)
}

func segmentAt(segments []models.AnalysisSegment, t float64) *models.AnalysisSegment {
	for i := range segments {
		if segments[i].Contains(t) {
			seg := segments[i]
			return &seg
		}
	}
	if len(segments) > 0 {
		seg := segments[len(segments)-1]
		return &seg
	}
	return nil
}

// Reset returns the store to its initial empty state. A new session always
// resets rather than mutating in place, so no segment from a previous video
// bleeds through.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = models.AnalysisJob{Status: models.StatusIdle}
	s.segments = nil
	s.currentTime = 0
	s.duration = 0
	s.analysis = nil
	s.err = nil
}
