// Package baseline implements per-user voice baselines: a bounded
// window of calibration feature vectors is accumulated per user and,
// once enough samples are present, summarized into per-feature mean and
// standard deviation. New recordings are then scored by how far they
// deviate from the user's own history.
//
// Baselines move through two states: uncalibrated (fewer than
// MinSamples) and calibrated. Scoring never mutates a baseline; only
// AddSample and Reset do.
package baseline

import (
	"math"
	"time"

	"github.com/voicelens/voicelens/pkg/features"
)

// Defaults for the calibration window.
const (
	DefaultMinSamples = 9  // samples needed to calibrate
	DefaultMaxSamples = 10 // ring buffer capacity; oldest evicted beyond this
)

// Baseline is one user's calibration state. The zero value is not
// usable; create with New.
type Baseline struct {
	MinSamples int
	MaxSamples int

	// Samples is the calibration ring buffer, oldest first.
	Samples []*features.Vector

	// Means and Stds are the per-feature summaries, keyed by schema
	// name. Recomputed after every calibration sample once calibrated.
	Means map[string]float64
	Stds  map[string]float64

	// CalibratedAt is when the baseline first became calibrated.
	CalibratedAt time.Time
}

// New creates an empty baseline with the given window bounds. Zero or
// negative arguments select the defaults.
func New(minSamples, maxSamples int) *Baseline {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if maxSamples < minSamples {
		maxSamples = DefaultMaxSamples
		if maxSamples < minSamples {
			maxSamples = minSamples
		}
	}
	return &Baseline{MinSamples: minSamples, MaxSamples: maxSamples}
}

// Calibrated reports whether enough samples have been collected.
func (b *Baseline) Calibrated() bool {
	return len(b.Samples) >= b.MinSamples
}

// AddSample appends a calibration vector, evicting the oldest sample
// once the window is full, and refreshes the per-feature summaries when
// the baseline is (or becomes) calibrated.
func (b *Baseline) AddSample(v *features.Vector, now time.Time) {
	b.Samples = append(b.Samples, v)
	if len(b.Samples) > b.MaxSamples {
		b.Samples = b.Samples[len(b.Samples)-b.MaxSamples:]
	}
	if !b.Calibrated() {
		return
	}
	if b.CalibratedAt.IsZero() {
		b.CalibratedAt = now
	}
	b.recompute()
}

// Reset discards all calibration state. Recalibration is always this
// explicit operation; adding samples never silently starts over.
func (b *Baseline) Reset() {
	b.Samples = nil
	b.Means = nil
	b.Stds = nil
	b.CalibratedAt = time.Time{}
}

func (b *Baseline) recompute() {
	names := features.Names()
	dim := features.Dim()
	n := float64(len(b.Samples))

	sums := make([]float64, dim)
	for _, s := range b.Samples {
		for i, v := range s.Values() {
			sums[i] += v
		}
	}
	means := make([]float64, dim)
	for i := range sums {
		means[i] = sums[i] / n
	}

	vars := make([]float64, dim)
	for _, s := range b.Samples {
		for i, v := range s.Values() {
			d := v - means[i]
			vars[i] += d * d
		}
	}

	b.Means = make(map[string]float64, dim)
	b.Stds = make(map[string]float64, dim)
	for i, name := range names {
		b.Means[name] = means[i]
		b.Stds[name] = math.Sqrt(vars[i] / n)
	}
}

// deviationWeights is the fixed feature subset used for deviation
// scoring, with importance weights summing to 1. The choice favors the
// prosodic features most indicative of day-to-day vocal change.
var deviationWeights = []struct {
	name   string
	weight float64
}{
	{"pitch_mean", 0.15},
	{"pitch_std", 0.15},
	{"speech_rate", 0.15},
	{"rms_mean", 0.15},
	{"jitter", 0.10},
	{"hnr", 0.10},
	{"spectral_centroid_mean", 0.10},
	{"zcr_mean", 0.10},
}

// Deviation scores how far a recording's features lie from the
// calibrated baseline: the weighted mean absolute z-score over the fixed
// feature subset. Features with zero baseline variance contribute
// nothing rather than propagating infinities. Returns 0 when the
// baseline is not calibrated.
func (b *Baseline) Deviation(v *features.Vector) float64 {
	if !b.Calibrated() || b.Means == nil {
		return 0
	}
	var total, weightUsed float64
	for _, w := range deviationWeights {
		val, ok := v.Get(w.name)
		if !ok {
			continue
		}
		sd := b.Stds[w.name]
		if sd <= 0 {
			continue
		}
		z := math.Abs(val-b.Means[w.name]) / sd
		total += w.weight * z
		weightUsed += w.weight
	}
	if weightUsed == 0 {
		return 0
	}
	return total / weightUsed
}

// Band labels a deviation score.
func Band(deviation float64) string {
	switch {
	case deviation < 0.5:
		return "consistent with baseline"
	case deviation < 1.0:
		return "minor variation"
	case deviation < 2.0:
		return "moderate change"
	default:
		return "significant change"
	}
}

// EscalationThreshold is the deviation at which a "low" risk level is
// escalated to "moderate".
const EscalationThreshold = 2.0
