package classify

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/voicelens/voicelens/pkg/features"
)

// ErrModelUnavailable wraps any failure to load or apply the learned
// ensemble parameters. Callers recover from it by using the heuristic
// scorer; it is never surfaced as a request failure.
var ErrModelUnavailable = errors.New("classify: model parameters unavailable")

// Params is the on-disk parameter bundle for the learned ensemble,
// serialized with msgpack. It carries the feature schema version it was
// fitted against; loading rejects a mismatched schema.
type Params struct {
	SchemaVersion int           `msgpack:"schema_version"`
	Temperature   float64       `msgpack:"temperature"`
	Scaler        ScalerParams  `msgpack:"scaler"`
	Variants      []VariantSpec `msgpack:"variants"`
}

// ScalerParams standardizes the positional feature vector: per-feature
// fitted mean and scale.
type ScalerParams struct {
	Mean  []float64 `msgpack:"mean"`
	Scale []float64 `msgpack:"scale"`
}

// Transform returns (x - mean) / scale. Zero scales pass the centered
// value through unscaled.
func (s *ScalerParams) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		v := x[i] - s.Mean[i]
		if s.Scale[i] != 0 {
			v /= s.Scale[i]
		}
		out[i] = v
	}
	return out
}

// Layer is one affine layer: y = W·x + B.
type Layer struct {
	W [][]float64 `msgpack:"w"`
	B []float64   `msgpack:"b"`
}

// VariantSpec describes one ensemble member: its architecture kind, its
// held-out F1 score from training time (the ensemble weight) and the
// architecture-specific parameter block.
type VariantSpec struct {
	Kind string  `msgpack:"kind"`
	F1   float64 `msgpack:"f1"`

	Dense     *DenseParams     `msgpack:"dense,omitempty"`
	Conv      *ConvParams      `msgpack:"conv,omitempty"`
	Recurrent *RecurrentParams `msgpack:"recurrent,omitempty"`
	Attention *AttentionParams `msgpack:"attention,omitempty"`
}

// DenseParams is a feed-forward network: ReLU between layers, the last
// layer emits the 4 class logits.
type DenseParams struct {
	Layers []Layer `msgpack:"layers"`
}

// ConvParams is a 1-D convolutional variant: each kernel slides over the
// standardized vector, is ReLU-activated and mean-pooled, and the pooled
// activations feed a dense head.
type ConvParams struct {
	Kernels [][]float64 `msgpack:"kernels"`
	Layers  []Layer     `msgpack:"layers"`
}

// RecurrentParams is an Elman-style recurrent variant: the vector is
// consumed in fixed-size steps, h = tanh(W·s + U·h + B), and the final
// hidden state feeds the output layer.
type RecurrentParams struct {
	StepSize int         `msgpack:"step_size"`
	W        [][]float64 `msgpack:"w"`
	U        [][]float64 `msgpack:"u"`
	B        []float64   `msgpack:"b"`
	Out      Layer       `msgpack:"out"`
}

// AttentionParams is an attention-pooling variant: per-feature scores
// are softmaxed into weights, features are pooled into an embedding
// space and a dense head emits the logits.
type AttentionParams struct {
	Scores []float64   `msgpack:"scores"` // per-feature score bias
	Gains  []float64   `msgpack:"gains"`  // per-feature score gain
	Embed  [][]float64 `msgpack:"embed"`  // [dim(features)][embedDim]
	Layers []Layer     `msgpack:"layers"`
}

// LoadParams reads and validates an ensemble parameter file.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}
	var p Params
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelUnavailable, path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveParams writes a parameter bundle to disk (used by tooling and
// tests; the analysis path only reads).
func SaveParams(path string, p *Params) error {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("classify: encode params: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks schema compatibility and parameter shapes.
func (p *Params) Validate() error {
	if p.SchemaVersion != features.SchemaVersion {
		return fmt.Errorf("%w: params schema v%d, runtime schema v%d",
			ErrModelUnavailable, p.SchemaVersion, features.SchemaVersion)
	}
	dim := features.Dim()
	if len(p.Scaler.Mean) != dim || len(p.Scaler.Scale) != dim {
		return fmt.Errorf("%w: scaler dimension %d/%d, want %d",
			ErrModelUnavailable, len(p.Scaler.Mean), len(p.Scaler.Scale), dim)
	}
	if len(p.Variants) == 0 {
		return fmt.Errorf("%w: no variants", ErrModelUnavailable)
	}
	if p.Temperature <= 0 {
		return fmt.Errorf("%w: temperature %v", ErrModelUnavailable, p.Temperature)
	}
	for i := range p.Variants {
		if _, err := buildVariant(&p.Variants[i], dim); err != nil {
			return fmt.Errorf("%w: variant %d (%s): %v", ErrModelUnavailable, i, p.Variants[i].Kind, err)
		}
	}
	return nil
}
