package session

import (
	"context"
	"log"
	"sync"

	"resona-backend/internal/client"
	"resona-backend/internal/models"
	"resona-backend/internal/stream"
	"resona-backend/internal/youtube"
)

// Submitter is the job submission client the orchestrator drives. Satisfied
// by *client.Client; tests substitute fakes.
type Submitter interface {
	Submit(ctx context.Context, videoURL string) client.SubmissionOutcome
	FetchAnalysis(ctx context.Context, jobID string) (*models.SongAnalysis, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// ChannelHandle is the part of a streaming channel the orchestrator needs.
type ChannelHandle interface {
	Close()
}

// OpenChannel opens a streaming subscription for a job. The production
// implementation wraps stream.Open.
type OpenChannel func(ctx context.Context, wsURL, jobID string, handlers stream.Handlers) ChannelHandle

// Session orchestrates one analysis from URL to final result: normalize,
// submit, then either stream incremental updates or fetch the cached result.
// All dependencies are passed in explicitly.
type Session struct {
	videoURL string
	client   Submitter
	store    *Store
	open     OpenChannel

	startOnce sync.Once

	mu      sync.Mutex
	closed  bool
	gen     int
	channel ChannelHandle

	done     chan struct{}
	doneOnce sync.Once
}

func NewSession(videoURL string, submitter Submitter, store *Store, open OpenChannel) *Session {
	return &Session{
		videoURL: videoURL,
		client:   submitter,
		store:    store,
		open:     open,
		done:     make(chan struct{}),
	}
}

// Start kicks off the session. Duplicate calls are no-ops; the work runs on
// its own goroutine and the store reflects progress as it happens.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx, false)
	})
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close invalidates the session: the streaming channel is torn down and any
// late-arriving responses or events are discarded instead of applied.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	s.finish()
}

// run executes one pass of the session flow. retried marks the single
// automatic restart the cache-inconsistency recovery is allowed.
func (s *Session) run(ctx context.Context, retried bool) {
	videoID, ok := youtube.ExtractVideoID(s.videoURL)
	if !ok {
		s.store.SetError(models.ErrInvalidURL)
		s.finish()
		return
	}

	gen := s.currentGen()
	s.store.SetJob("", videoID)
	s.store.ApplyProgress(models.StatusPending, 0)

	outcome := s.client.Submit(ctx, s.videoURL)
	if !s.current(gen) {
		return
	}

	switch outcome.Kind {
	case client.OutcomeRejected:
		s.store.SetError(outcome.Code)
		s.finish()

	case client.OutcomeStarted:
		s.store.SetJob(outcome.JobID, videoID)
		s.store.ApplyProgress(models.StatusExtracting, 0)
		s.openStream(ctx, gen, outcome)

	case client.OutcomeCached:
		s.store.SetJob(outcome.JobID, videoID)
		// Almost done: the pipeline is not restarting, only the result
		// fetch remains.
		s.store.ApplyProgress(models.StatusAnalyzing, 99)
		s.fetchCached(ctx, gen, outcome.JobID, retried)
	}
}

func (s *Session) openStream(ctx context.Context, gen int, outcome client.SubmissionOutcome) {
	handlers := stream.Handlers{
		OnProgress: func(status models.AnalysisStatus, progress int, message string) {
			if !s.current(gen) {
				return
			}
			// Progress never regresses within one session.
			if cur := s.store.Job().Progress; progress < cur {
				progress = cur
			}
			s.store.ApplyProgress(status, progress)
		},
		OnSegment: func(timestamp float64, segment models.AnalysisSegment) {
			if !s.current(gen) {
				return
			}
			s.store.AppendSegment(segment)
		},
		OnComplete: func(analysis models.SongAnalysis) {
			if !s.current(gen) {
				return
			}
			s.store.SetFinalAnalysis(analysis)
			s.finish()
		},
		OnError: func(code models.ErrorCode, message string) {
			if !s.current(gen) {
				return
			}
			s.store.SetError(code)
			s.finish()
		},
	}

	ch := s.open(ctx, outcome.WebSocketURL, outcome.JobID, handlers)

	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		ch.Close()
		return
	}
	s.channel = ch
	s.mu.Unlock()
}

// fetchCached retrieves the final result of an already-complete job. A job
// marked complete whose result cannot be fetched is an inconsistent cache:
// discard it server-side and restart the whole session, exactly once.
func (s *Session) fetchCached(ctx context.Context, gen int, jobID string, retried bool) {
	analysis, err := s.client.FetchAnalysis(ctx, jobID)
	if !s.current(gen) {
		return
	}
	if err == nil {
		s.store.SetFinalAnalysis(*analysis)
		s.finish()
		return
	}

	if retried {
		s.store.SetError(models.ErrServiceError)
		s.finish()
		return
	}

	log.Printf("session: job %s complete but result unfetchable, discarding and retrying: %v", jobID, err)
	if delErr := s.client.DeleteJob(ctx, jobID); delErr != nil {
		log.Printf("session: stale job delete failed: %v", delErr)
	}

	if !s.advanceGen(gen) {
		return
	}
	s.store.Reset()
	s.run(ctx, true)
}

func (s *Session) currentGen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// current reports whether effects from generation gen may still be applied.
func (s *Session) current(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.gen == gen
}

// advanceGen supersedes generation gen, closing its channel if one is open.
func (s *Session) advanceGen(gen int) bool {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.gen++
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	return true
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}
