package session

import (
	"testing"

	"resona-backend/internal/models"
)

func seg(start, end float64) models.AnalysisSegment {
	return models.AnalysisSegment{StartTime: start, EndTime: end}
}

func TestStore_InitialState(t *testing.T) {
	s := NewStore()
	if got := s.Job().Status; got != models.StatusIdle {
		t.Errorf("Status = %q, want idle", got)
	}
	if len(s.Segments()) != 0 {
		t.Errorf("Segments = %v, want empty", s.Segments())
	}
	if s.CurrentSegment() != nil {
		t.Error("CurrentSegment on empty store should be nil")
	}
	if s.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", s.Duration())
	}
}

func TestStore_AppendSegment(t *testing.T) {
	s := NewStore()

	s.AppendSegment(seg(0, 10))
	s.AppendSegment(seg(10, 20))
	s.AppendSegment(seg(20, 30))

	if got := len(s.Segments()); got != 3 {
		t.Fatalf("len(Segments) = %d, want 3", got)
	}
	if s.Duration() != 30 {
		t.Errorf("Duration = %v, want 30", s.Duration())
	}

	// Duration is non-decreasing even for out-of-order arrivals.
	s.AppendSegment(seg(5, 15))
	if s.Duration() != 30 {
		t.Errorf("Duration after overlapping append = %v, want 30", s.Duration())
	}
	if got := len(s.Segments()); got != 4 {
		t.Errorf("len(Segments) = %d, want 4 (store never deduplicates)", got)
	}
}

func TestStore_SegmentAt(t *testing.T) {
	s := NewStore()
	a := seg(0, 10)
	b := seg(10, 20)
	s.AppendSegment(a)
	s.AppendSegment(b)

	tests := []struct {
		name string
		t    float64
		want models.AnalysisSegment
	}{
		{"inside first", 5, a},
		{"boundary belongs to second", 10, b},
		{"inside second", 15, b},
		{"past the end falls back to last", 25, b},
		{"exact start", 0, a},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.SegmentAt(tc.t)
			if got == nil {
				t.Fatalf("SegmentAt(%v) = nil", tc.t)
			}
			if got.StartTime != tc.want.StartTime || got.EndTime != tc.want.EndTime {
				t.Errorf("SegmentAt(%v) = [%v,%v), want [%v,%v)",
					tc.t, got.StartTime, got.EndTime, tc.want.StartTime, tc.want.EndTime)
			}
		})
	}

	if NewStore().SegmentAt(5) != nil {
		t.Error("SegmentAt on empty store should be nil")
	}
}

func TestStore_SegmentAt_OverlappingPicksFirstMatch(t *testing.T) {
	s := NewStore()
	s.AppendSegment(seg(0, 12))
	s.AppendSegment(seg(10, 20))

	got := s.SegmentAt(11)
	if got == nil || got.EndTime != 12 {
		t.Errorf("SegmentAt(11) = %+v, want first matching segment [0,12)", got)
	}
}

func TestStore_CurrentSegmentFollowsCursor(t *testing.T) {
	s := NewStore()
	s.AppendSegment(seg(0, 10))
	s.AppendSegment(seg(10, 20))

	s.SetCurrentTime(4)
	if got := s.CurrentSegment(); got == nil || got.EndTime != 10 {
		t.Errorf("CurrentSegment at t=4 = %+v", got)
	}
	s.SetCurrentTime(14)
	if got := s.CurrentSegment(); got == nil || got.StartTime != 10 {
		t.Errorf("CurrentSegment at t=14 = %+v", got)
	}
}

func TestStore_SetFinalAnalysisReplacesSegments(t *testing.T) {
	s := NewStore()
	s.AppendSegment(seg(0, 10))
	s.AppendSegment(seg(10, 20))

	final := models.SongAnalysis{
		ID:       "analysis_1",
		Video:    models.YouTubeVideo{ID: "dQw4w9WgXcQ", Duration: 212},
		Segments: []models.AnalysisSegment{seg(0, 212)},
	}
	s.SetFinalAnalysis(final)

	if got := s.Job(); got.Status != models.StatusComplete || got.Progress != 100 {
		t.Errorf("job = %+v, want complete/100", got)
	}
	if got := len(s.Segments()); got != 1 {
		t.Errorf("len(Segments) = %d, want 1 (wholesale replace)", got)
	}
	if s.Duration() != 212 {
		t.Errorf("Duration = %v, want 212 (from video metadata)", s.Duration())
	}
	if s.Analysis() == nil || s.Analysis().ID != "analysis_1" {
		t.Errorf("Analysis = %+v", s.Analysis())
	}
}

func TestStore_ErrorIsSticky(t *testing.T) {
	s := NewStore()
	s.SetError(models.ErrAnalysisFailed)

	s.ApplyProgress(models.StatusAnalyzing, 50)
	s.AppendSegment(seg(0, 10))
	s.SetFinalAnalysis(models.SongAnalysis{ID: "a"})

	job := s.Job()
	if job.Status != models.StatusError || job.Error != models.ErrorText(models.ErrAnalysisFailed) {
		t.Errorf("job = %+v, want sticky error", job)
	}
	if len(s.Segments()) != 0 {
		t.Error("segments must not accumulate while in error state")
	}

	s.Reset()
	if got := s.Job().Status; got != models.StatusIdle {
		t.Errorf("Status after Reset = %q, want idle", got)
	}
	if s.Err() != nil {
		t.Error("Err must be cleared by Reset")
	}
}

func TestStore_ErrCarriesRetryability(t *testing.T) {
	tests := []struct {
		code      models.ErrorCode
		retryable bool
	}{
		{models.ErrNetworkError, true},
		{models.ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			s := NewStore()
			s.SetError(tt.code)

			err := s.Err()
			if err == nil {
				t.Fatal("Err = nil after SetError")
			}
			if err.Code != tt.code || err.Retryable != tt.retryable {
				t.Errorf("Err = %+v, want code %s retryable %v", err, tt.code, tt.retryable)
			}
		})
	}
}

func TestStore_CompleteIsSticky(t *testing.T) {
	s := NewStore()
	s.SetFinalAnalysis(models.SongAnalysis{
		ID:       "analysis_1",
		Segments: []models.AnalysisSegment{seg(0, 212)},
		Video:    models.YouTubeVideo{Duration: 212},
	})

	s.ApplyProgress(models.StatusAnalyzing, 50)
	s.AppendSegment(seg(212, 220))

	job := s.Job()
	if job.Status != models.StatusComplete || job.Progress != 100 {
		t.Errorf("job = %+v, want complete/100 after late updates", job)
	}
	if got := len(s.Segments()); got != 1 {
		t.Errorf("len(Segments) = %d, want 1 (late chunk after final result ignored)", got)
	}
}

func TestStore_ResetIdempotent(t *testing.T) {
	s := NewStore()
	s.SetJob("job_1", "dQw4w9WgXcQ")
	s.ApplyProgress(models.StatusAnalyzing, 60)
	s.AppendSegment(seg(0, 10))
	s.SetCurrentTime(5)

	s.Reset()
	first := s.Job()
	firstLen := len(s.Segments())

	s.Reset()
	second := s.Job()

	if first != second {
		t.Errorf("double Reset diverged: %+v vs %+v", first, second)
	}
	if firstLen != 0 || len(s.Segments()) != 0 || s.Duration() != 0 || s.CurrentTime() != 0 {
		t.Error("Reset did not clear all state")
	}
}
