// Package screen is the entry point to the voice screening core. An
// Engine turns an audio recording into a structured assessment: the
// aggregated feature vector, four class probabilities, a wellness
// score, clinical scale estimates and, for calibrated users, a baseline
// deviation report.
//
// The Engine is stateless between calls except for the injected
// baseline Store; concurrent analyses of different recordings run fully
// in parallel, while calibration updates for the same user are
// serialized internally.
package screen

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicelens/voicelens/pkg/audio/wave"
	"github.com/voicelens/voicelens/pkg/baseline"
	"github.com/voicelens/voicelens/pkg/classify"
	"github.com/voicelens/voicelens/pkg/features"
	"github.com/voicelens/voicelens/pkg/scales"
)

// Config holds the analysis parameters for an Engine.
type Config struct {
	// Validation is the policy for full analyses; Calibration is the
	// lenient policy for baseline capture.
	Validation  wave.Policy
	Calibration wave.Policy

	// Segmentation of the validated waveform.
	Segment wave.SegmentConfig

	// Workers bounds the segment-level extraction fan-out. Zero or
	// negative means sequential extraction.
	Workers int

	// MinSamples / MaxSamples bound each user's calibration window.
	MinSamples int
	MaxSamples int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Validation:  wave.DefaultPolicy(),
		Calibration: wave.CalibrationPolicy(),
		Segment:     wave.DefaultSegmentConfig(),
		Workers:     4,
		MinSamples:  baseline.DefaultMinSamples,
		MaxSamples:  baseline.DefaultMaxSamples,
	}
}

// userLockCount is the size of the striped per-user lock table that
// serializes calibration writes.
const userLockCount = 64

// Engine runs the screening pipeline.
type Engine struct {
	cfg        Config
	extractor  *features.Extractor
	classifier classify.Classifier
	store      baseline.Store
	logger     *slog.Logger

	userLocks [userLockCount]sync.Mutex
}

// Result is the full outcome of one analysis.
type Result struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Duration     float64   `json:"duration_seconds"`
	SegmentCount int       `json:"segment_count"`

	Features      map[string]float64 `json:"features"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`

	MentalHealthScore float64            `json:"mental_health_score"`
	RiskLevel         classify.RiskLevel `json:"risk_level"`
	ScaleScores       scales.Scores      `json:"scale_scores"`
	Interpretations   map[string]string  `json:"interpretations"`

	// Personalization fields, populated by AnalyzePersonalized.
	BaselineState     string             `json:"baseline_state,omitempty"`
	BaselineDeviation *float64           `json:"baseline_deviation,omitempty"`
	DeviationBand     string             `json:"deviation_band,omitempty"`
	AdjustedRiskLevel classify.RiskLevel `json:"adjusted_risk_level,omitempty"`
}

// CalibrationStatus reports calibration progress after a Calibrate call.
type CalibrationStatus struct {
	SamplesCollected int  `json:"samples_collected"`
	SamplesRequired  int  `json:"samples_required"`
	IsCalibrated     bool `json:"is_calibrated"`
}

// Baseline states reported on personalized results.
const (
	BaselineStateNone         = "none"
	BaselineStateUncalibrated = "uncalibrated"
	BaselineStateCalibrated   = "calibrated"
)

func newResultID() string {
	return uuid.New().String()
}

// userLock returns the stripe lock for a user ID.
func (e *Engine) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &e.userLocks[h.Sum32()%userLockCount]
}
