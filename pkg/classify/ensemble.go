package classify

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/voicelens/voicelens/pkg/features"
)

// Ensemble combines several independently parameterized classifier
// variants. Each variant scores the standardized feature vector on its
// own; the combined probability vector is the F1-weighted average,
// softened by temperature and floored like every other classifier.
type Ensemble struct {
	scaler      *ScalerParams
	variants    []variant
	weights     []float64 // normalized F1 weights
	temperature float64
	floor       float64
}

// NewEnsemble builds an Ensemble from validated parameters.
func NewEnsemble(p *Params) (*Ensemble, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	dim := features.Dim()

	e := &Ensemble{
		scaler:      &p.Scaler,
		temperature: p.Temperature,
		floor:       DefaultFloor,
	}
	var totalF1 float64
	for i := range p.Variants {
		v, err := buildVariant(&p.Variants[i], dim)
		if err != nil {
			return nil, fmt.Errorf("%w: variant %d: %v", ErrModelUnavailable, i, err)
		}
		f1 := p.Variants[i].F1
		if f1 <= 0 {
			f1 = 1e-3
		}
		e.variants = append(e.variants, v)
		e.weights = append(e.weights, f1)
		totalF1 += f1
	}
	for i := range e.weights {
		e.weights[i] /= totalF1
	}
	return e, nil
}

// Score implements Classifier.
func (e *Ensemble) Score(v *features.Vector) (Probs, float64, error) {
	x := e.scaler.Transform(v.Values())

	var combined Probs
	for i, variant := range e.variants {
		p, err := variant.forward(x)
		if err != nil {
			return Probs{}, 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		for c := range combined {
			combined[c] += e.weights[i] * p[c]
		}
	}

	// Temperature softening: p^(1/T) with T > 1 flattens the
	// distribution so the ensemble never reports near-certainty.
	var sum float64
	for c := range combined {
		combined[c] = math.Pow(combined[c], 1/e.temperature)
		sum += combined[c]
	}
	for c := range combined {
		combined[c] /= sum
	}

	p := combined.Floor(e.floor)
	_, conf := p.Max()
	return p, conf, nil
}

// Fallback degrades from a primary classifier to a secondary one when
// the primary fails. The failure is logged and never surfaced; the
// secondary (the heuristic scorer) cannot fail.
type Fallback struct {
	Primary   Classifier
	Secondary Classifier
	Logger    *slog.Logger
}

// Score implements Classifier.
func (f *Fallback) Score(v *features.Vector) (Probs, float64, error) {
	p, conf, err := f.Primary.Score(v)
	if err == nil {
		return p, conf, nil
	}
	if f.Logger != nil {
		f.Logger.Warn("learned ensemble failed, falling back to heuristic scorer", "error", err)
	}
	return f.Secondary.Score(v)
}
