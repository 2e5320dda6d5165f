// Package classify maps a feature vector to four mental-state class
// probabilities (normal, anxiety, depression, stress) plus a confidence
// scalar.
//
// Two interchangeable strategies sit behind the single Classifier
// interface: a heuristic scorer that is always available, and a learned
// ensemble of several classifier variants whose parameters are loaded
// once at startup. The ensemble is itself a Classifier, and the Fallback
// wrapper degrades to the heuristic path when the learned path fails.
//
// None of the numeric thresholds in this package are validated clinical
// claims; they are screening defaults and live in Config so callers can
// override them.
package classify

import (
	"math"

	"github.com/voicelens/voicelens/pkg/features"
)

// Class indexes the four assessment classes.
type Class int

const (
	ClassNormal Class = iota
	ClassAnxiety
	ClassDepression
	ClassStress
	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassAnxiety:
		return "anxiety"
	case ClassDepression:
		return "depression"
	case ClassStress:
		return "stress"
	}
	return "unknown"
}

// Probs is an ordered class probability vector. After Floor it sums to
// 1.0 and every entry is at least the configured minimum.
type Probs [numClasses]float64

// DefaultFloor is the minimum probability any class may be reported
// with, so no class is ever presented as impossible.
const DefaultFloor = 0.05

// Floor guarantees every class at least min while keeping the total at
// 1: the input is normalized, sub-floor classes are lifted to the floor
// and the mass above the floor is shrunk to pay for the lift. Classes
// already at or above the floor therefore stay at or above it.
func (p Probs) Floor(min float64) Probs {
	var sum float64
	for i := range p {
		if p[i] < 0 {
			p[i] = 0
		}
		sum += p[i]
	}
	if sum <= 0 || min*float64(numClasses) >= 1 {
		for i := range p {
			p[i] = 1.0 / float64(numClasses)
		}
		return p
	}
	for i := range p {
		p[i] /= sum
	}

	var deficit, excess float64
	for i := range p {
		if p[i] < min {
			deficit += min - p[i]
		} else {
			excess += p[i] - min
		}
	}
	if deficit > 0 && excess > 0 {
		scale := (excess - deficit) / excess
		for i := range p {
			if p[i] < min {
				p[i] = min
			} else {
				p[i] = min + (p[i]-min)*scale
			}
		}
	}
	return p
}

// Max returns the most probable class and its probability.
func (p Probs) Max() (Class, float64) {
	best := ClassNormal
	for c := ClassAnxiety; c < numClasses; c++ {
		if p[c] > p[best] {
			best = c
		}
	}
	return best, p[best]
}

// Map returns the probabilities keyed by class name.
func (p Probs) Map() map[string]float64 {
	m := make(map[string]float64, numClasses)
	for c := ClassNormal; c < numClasses; c++ {
		m[c.String()] = p[c]
	}
	return m
}

// Classifier scores a feature vector. Implementations must return a
// floored, normalized probability vector and a confidence in [0, 1].
type Classifier interface {
	Score(v *features.Vector) (Probs, float64, error)
}

// RiskLevel is the coarse risk banding derived from the probabilities.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Risk bands the maximum non-normal probability.
func Risk(p Probs) RiskLevel {
	worst := p[ClassAnxiety]
	if p[ClassDepression] > worst {
		worst = p[ClassDepression]
	}
	if p[ClassStress] > worst {
		worst = p[ClassStress]
	}
	switch {
	case worst < 0.2:
		return RiskLow
	case worst < 0.4:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// MentalHealthScore maps probabilities and confidence to a 0-100
// wellness score. The raw combination weights normal positively and the
// three distress classes negatively, is rescaled to 0-100 and then
// damped toward the middle when confidence is low.
func MentalHealthScore(p Probs, confidence float64) float64 {
	raw := p[ClassNormal]*1.0 - 0.5*(p[ClassAnxiety]+p[ClassDepression]+p[ClassStress])
	score := (raw + 0.5) * 100
	score *= 0.7 + 0.3*confidence
	return math.Min(100, math.Max(0, score))
}
