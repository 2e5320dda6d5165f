package classify

import (
	"math"
	"math/rand"

	"github.com/voicelens/voicelens/pkg/features"
)

// HeuristicConfig holds the threshold rules the heuristic scorer applies
// on top of its base probabilities. Each rule adjusts one class
// proportionally to how far the feature exceeds (or falls short of) its
// threshold, capped at the listed maximum.
type HeuristicConfig struct {
	Floor float64 // minimum per-class probability

	// Pitch variability: high pitch std reads as vocal agitation.
	PitchStdThreshold float64 // Hz; above this anxiety rises
	PitchStdMax       float64 // cap on the anxiety adjustment

	// Monotone pitch: a narrow pitch range reads as flat affect.
	PitchRangeThreshold float64 // Hz; below this depression rises
	PitchRangeMax       float64

	// Speech rate in energy peaks per second.
	FastRateThreshold float64 // above: anxiety and stress rise
	FastRateMax       float64
	SlowRateThreshold float64 // below: depression rises
	SlowRateMax       float64

	// Energy: low overall RMS reads as withdrawn, flat delivery.
	LowEnergyThreshold float64
	LowEnergyMax       float64

	// Voice quality.
	JitterThreshold float64 // relative; above: stress rises
	JitterMax       float64
	HNRThreshold    float64 // dB; below: depression rises
	HNRMax          float64

	// Perturbation is the half-width of the uniform zero-mean noise
	// added to each class before flooring. Zero disables it.
	Perturbation float64
}

// DefaultHeuristicConfig returns the screening defaults. These numbers
// are configurable heuristics, not validated psychometrics.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		Floor:               DefaultFloor,
		PitchStdThreshold:   35,
		PitchStdMax:         0.15,
		PitchRangeThreshold: 40,
		PitchRangeMax:       0.10,
		FastRateThreshold:   4.5,
		FastRateMax:         0.12,
		SlowRateThreshold:   2.0,
		SlowRateMax:         0.12,
		LowEnergyThreshold:  0.05,
		LowEnergyMax:        0.12,
		JitterThreshold:     0.02,
		JitterMax:           0.10,
		HNRThreshold:        7,
		HNRMax:              0.10,
		Perturbation:        0.02,
	}
}

// Heuristic is the always-available rule-based scorer. It starts from
// balanced base probabilities and nudges each class on threshold
// crossings of a handful of prosodic and voice-quality features.
type Heuristic struct {
	cfg HeuristicConfig
	rng *rand.Rand
}

// Base class probabilities before adjustment.
var heuristicBase = Probs{0.35, 0.22, 0.21, 0.22}

// NewHeuristic creates a heuristic scorer. rng may be nil, in which case
// perturbation is disabled; tests pass a seeded source for determinism.
func NewHeuristic(cfg HeuristicConfig, rng *rand.Rand) *Heuristic {
	return &Heuristic{cfg: cfg, rng: rng}
}

// excess returns how much of maxAdj the rule earns: proportional to how
// far value exceeds threshold, saturating at one threshold-width beyond.
func excess(value, threshold, maxAdj float64) float64 {
	if value <= threshold || threshold <= 0 {
		return 0
	}
	frac := (value - threshold) / threshold
	return math.Min(1, frac) * maxAdj
}

// shortfall mirrors excess for rules that fire below a threshold.
func shortfall(value, threshold, maxAdj float64) float64 {
	if value >= threshold || threshold <= 0 {
		return 0
	}
	frac := (threshold - value) / threshold
	return math.Min(1, frac) * maxAdj
}

// Score implements Classifier. It never fails.
func (h *Heuristic) Score(v *features.Vector) (Probs, float64, error) {
	c := h.cfg
	p := heuristicBase

	// Pitch variability → anxiety.
	p[ClassAnxiety] += excess(v.PitchStd, c.PitchStdThreshold, c.PitchStdMax)

	// Monotone pitch → depression. Only meaningful when pitch was
	// detected at all.
	if v.PitchMean > 0 {
		p[ClassDepression] += shortfall(v.PitchRange, c.PitchRangeThreshold, c.PitchRangeMax)
	}

	// Speech rate: fast → anxiety and stress; slow → depression.
	if fast := excess(v.SpeechRate, c.FastRateThreshold, c.FastRateMax); fast > 0 {
		p[ClassAnxiety] += fast / 2
		p[ClassStress] += fast / 2
	}
	p[ClassDepression] += shortfall(v.SpeechRate, c.SlowRateThreshold, c.SlowRateMax)

	// Low energy → depression.
	p[ClassDepression] += shortfall(v.RMSMean, c.LowEnergyThreshold, c.LowEnergyMax)

	// Rough voice (jitter) → stress.
	p[ClassStress] += excess(v.Jitter, c.JitterThreshold, c.JitterMax)

	// Breathy voice (low HNR) → depression.
	p[ClassDepression] += shortfall(v.HNR, c.HNRThreshold, c.HNRMax)

	// Whatever the distress classes gained, normal loses.
	gained := p[ClassAnxiety] + p[ClassDepression] + p[ClassStress] -
		(heuristicBase[ClassAnxiety] + heuristicBase[ClassDepression] + heuristicBase[ClassStress])
	p[ClassNormal] -= gained

	if h.rng != nil && c.Perturbation > 0 {
		for i := range p {
			p[i] += (h.rng.Float64()*2 - 1) * c.Perturbation
		}
	}

	p = p.Floor(c.Floor)
	_, conf := p.Max()
	return p, conf, nil
}
