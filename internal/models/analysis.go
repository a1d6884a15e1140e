package models

import "time"

// FrequencyBands holds per-band magnitudes normalized to 0-1.
type FrequencyBands struct {
	Bass    float64 `json:"bass"`    // 20-250 Hz
	LowMid  float64 `json:"lowMid"`  // 250-500 Hz
	Mid     float64 `json:"mid"`     // 500-2000 Hz
	HighMid float64 `json:"highMid"` // 2000-4000 Hz
	High    float64 `json:"high"`    // 4000-20000 Hz
}

// BrainRegionActivation holds per-region intensities normalized to 0-1.
type BrainRegionActivation struct {
	AuditoryCortex   float64 `json:"auditoryCortex"`
	Amygdala         float64 `json:"amygdala"`
	Hippocampus      float64 `json:"hippocampus"`
	NucleusAccumbens float64 `json:"nucleusAccumbens"`
	MotorCortex      float64 `json:"motorCortex"`
	PrefrontalCortex float64 `json:"prefrontalCortex"`
	BasalGanglia     float64 `json:"basalGanglia"`
}

// BrainwaveState holds estimated band intensities normalized to 0-1.
type BrainwaveState struct {
	Delta float64 `json:"delta"` // 1-4 Hz, deep sleep
	Theta float64 `json:"theta"` // 4-8 Hz, meditation
	Alpha float64 `json:"alpha"` // 8-13 Hz, relaxed
	Beta  float64 `json:"beta"`  // 13-38 Hz, alert
	Gamma float64 `json:"gamma"` // 30-100 Hz, focus
}

type EmotionCategory string

const (
	EmotionHappy       EmotionCategory = "happy"
	EmotionSad         EmotionCategory = "sad"
	EmotionAngry       EmotionCategory = "angry"
	EmotionCalm        EmotionCategory = "calm"
	EmotionExcited     EmotionCategory = "excited"
	EmotionFearful     EmotionCategory = "fearful"
	EmotionEnergetic   EmotionCategory = "energetic"
	EmotionMelancholic EmotionCategory = "melancholic"
	EmotionUplifting   EmotionCategory = "uplifting"
	EmotionTense       EmotionCategory = "tense"
	EmotionPeaceful    EmotionCategory = "peaceful"
)

type EmotionClassification struct {
	Primary    EmotionCategory `json:"primary"`
	Confidence float64         `json:"confidence"` // 0-1
}

// AnalysisSegment is one time-bounded slice of analysis output.
// The interval is [StartTime, EndTime) in seconds.
type AnalysisSegment struct {
	StartTime    float64               `json:"startTime"`
	EndTime      float64               `json:"endTime"`
	Frequencies  FrequencyBands        `json:"frequencies"`
	BrainRegions BrainRegionActivation `json:"brainRegions"`
	Brainwaves   BrainwaveState        `json:"brainwaves"`
	Emotion      EmotionClassification `json:"emotion"`
}

// Contains reports whether t falls inside the segment's interval.
func (s AnalysisSegment) Contains(t float64) bool {
	return s.StartTime <= t && t < s.EndTime
}

type YouTubeVideo struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"` // seconds
	ThumbnailURL string  `json:"thumbnailUrl"`
}

// SongAnalysis is the authoritative final result for one video. Once present
// it supersedes any segments accumulated while streaming.
type SongAnalysis struct {
	ID             string                `json:"id"`
	Video          YouTubeVideo          `json:"video"`
	OverallEmotion EmotionClassification `json:"overallEmotion"`
	Segments       []AnalysisSegment     `json:"segments"`
	AnalyzedAt     time.Time             `json:"analyzedAt"`
}
