package classify

import (
	"errors"
	"fmt"
	"math"
)

// variant is one learned ensemble member operating on the standardized
// positional feature vector.
type variant interface {
	forward(x []float64) (Probs, error)
}

// buildVariant validates the spec shapes against the input dimension and
// returns a ready forward pass.
func buildVariant(spec *VariantSpec, dim int) (variant, error) {
	switch spec.Kind {
	case "dense":
		if spec.Dense == nil {
			return nil, errors.New("missing dense params")
		}
		return newDense(spec.Dense, dim)
	case "conv":
		if spec.Conv == nil {
			return nil, errors.New("missing conv params")
		}
		return newConv(spec.Conv, dim)
	case "recurrent":
		if spec.Recurrent == nil {
			return nil, errors.New("missing recurrent params")
		}
		return newRecurrent(spec.Recurrent, dim)
	case "attention":
		if spec.Attention == nil {
			return nil, errors.New("missing attention params")
		}
		return newAttention(spec.Attention, dim)
	}
	return nil, fmt.Errorf("unknown variant kind %q", spec.Kind)
}

// matVec computes W·x + b.
func matVec(w [][]float64, b, x []float64) ([]float64, error) {
	out := make([]float64, len(w))
	for i, row := range w {
		if len(row) != len(x) {
			return nil, fmt.Errorf("layer row %d: width %d, input %d", i, len(row), len(x))
		}
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		if b != nil {
			sum += b[i]
		}
		out[i] = sum
	}
	return out, nil
}

func relu(x []float64) {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
	}
}

// softmax converts 4 logits to probabilities.
func softmax(logits []float64) (Probs, error) {
	if len(logits) != int(numClasses) {
		return Probs{}, fmt.Errorf("expected %d logits, got %d", numClasses, len(logits))
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var p Probs
	var sum float64
	for i, v := range logits {
		p[i] = math.Exp(v - max)
		sum += p[i]
	}
	for i := range p {
		p[i] /= sum
	}
	return p, nil
}

// runLayers applies a dense head: ReLU between layers, raw logits out.
func runLayers(layers []Layer, x []float64) (Probs, error) {
	h := x
	for i := range layers {
		var err error
		h, err = matVec(layers[i].W, layers[i].B, h)
		if err != nil {
			return Probs{}, err
		}
		if i < len(layers)-1 {
			relu(h)
		}
	}
	return softmax(h)
}

// checkLayers validates layer chaining from inDim down to 4 logits.
func checkLayers(layers []Layer, inDim int) error {
	if len(layers) == 0 {
		return errors.New("no layers")
	}
	cur := inDim
	for i, l := range layers {
		if len(l.W) == 0 {
			return fmt.Errorf("layer %d: empty weights", i)
		}
		for _, row := range l.W {
			if len(row) != cur {
				return fmt.Errorf("layer %d: width %d, want %d", i, len(row), cur)
			}
		}
		if l.B != nil && len(l.B) != len(l.W) {
			return fmt.Errorf("layer %d: bias %d, want %d", i, len(l.B), len(l.W))
		}
		cur = len(l.W)
	}
	if cur != int(numClasses) {
		return fmt.Errorf("head emits %d logits, want %d", cur, numClasses)
	}
	return nil
}

// dense: feed-forward network over the standardized vector.
type dense struct {
	p *DenseParams
}

func newDense(p *DenseParams, dim int) (*dense, error) {
	if err := checkLayers(p.Layers, dim); err != nil {
		return nil, err
	}
	return &dense{p: p}, nil
}

func (d *dense) forward(x []float64) (Probs, error) {
	return runLayers(d.p.Layers, x)
}

// conv: 1-D convolution over the vector, ReLU, mean pool per kernel,
// dense head.
type conv struct {
	p *ConvParams
}

func newConv(p *ConvParams, dim int) (*conv, error) {
	if len(p.Kernels) == 0 {
		return nil, errors.New("no kernels")
	}
	for i, k := range p.Kernels {
		if len(k) == 0 || len(k) > dim {
			return nil, fmt.Errorf("kernel %d: width %d out of range", i, len(k))
		}
	}
	return &conv{p: p}, checkLayers(p.Layers, len(p.Kernels))
}

func (c *conv) forward(x []float64) (Probs, error) {
	pooled := make([]float64, len(c.p.Kernels))
	for ki, kernel := range c.p.Kernels {
		w := len(kernel)
		steps := len(x) - w + 1
		var sum float64
		for s := 0; s < steps; s++ {
			var acc float64
			for j, kv := range kernel {
				acc += kv * x[s+j]
			}
			if acc > 0 { // ReLU
				sum += acc
			}
		}
		pooled[ki] = sum / float64(steps)
	}
	return runLayers(c.p.Layers, pooled)
}

// recurrent: Elman RNN over fixed-size slices of the vector.
type recurrent struct {
	p *RecurrentParams
}

func newRecurrent(p *RecurrentParams, dim int) (*recurrent, error) {
	if p.StepSize <= 0 || p.StepSize > dim {
		return nil, fmt.Errorf("step size %d out of range", p.StepSize)
	}
	hidden := len(p.W)
	if hidden == 0 {
		return nil, errors.New("empty input weights")
	}
	for _, row := range p.W {
		if len(row) != p.StepSize {
			return nil, fmt.Errorf("input weight width %d, want %d", len(row), p.StepSize)
		}
	}
	if len(p.U) != hidden {
		return nil, fmt.Errorf("recurrent weight rows %d, want %d", len(p.U), hidden)
	}
	for _, row := range p.U {
		if len(row) != hidden {
			return nil, fmt.Errorf("recurrent weight width %d, want %d", len(row), hidden)
		}
	}
	if len(p.B) != hidden {
		return nil, fmt.Errorf("bias %d, want %d", len(p.B), hidden)
	}
	return &recurrent{p: p}, checkLayers([]Layer{p.Out}, hidden)
}

func (r *recurrent) forward(x []float64) (Probs, error) {
	hidden := len(r.p.W)
	h := make([]float64, hidden)
	step := make([]float64, r.p.StepSize)

	for start := 0; start < len(x); start += r.p.StepSize {
		// Last step is zero-padded.
		for i := range step {
			if start+i < len(x) {
				step[i] = x[start+i]
			} else {
				step[i] = 0
			}
		}
		next := make([]float64, hidden)
		for i := 0; i < hidden; i++ {
			sum := r.p.B[i]
			for j, v := range r.p.W[i] {
				sum += v * step[j]
			}
			for j, v := range r.p.U[i] {
				sum += v * h[j]
			}
			next[i] = math.Tanh(sum)
		}
		h = next
	}
	return runLayers([]Layer{r.p.Out}, h)
}

// attention: softmax-weighted pooling of features into an embedding
// space, dense head on the pooled embedding.
type attention struct {
	p        *AttentionParams
	embedDim int
}

func newAttention(p *AttentionParams, dim int) (*attention, error) {
	if len(p.Scores) != dim || len(p.Gains) != dim || len(p.Embed) != dim {
		return nil, fmt.Errorf("attention dims scores=%d gains=%d embed=%d, want %d",
			len(p.Scores), len(p.Gains), len(p.Embed), dim)
	}
	embedDim := len(p.Embed[0])
	if embedDim == 0 {
		return nil, errors.New("empty embedding")
	}
	for i, e := range p.Embed {
		if len(e) != embedDim {
			return nil, fmt.Errorf("embed row %d: dim %d, want %d", i, len(e), embedDim)
		}
	}
	return &attention{p: p, embedDim: embedDim}, checkLayers(p.Layers, embedDim)
}

func (a *attention) forward(x []float64) (Probs, error) {
	// Attention weights over features.
	scores := make([]float64, len(x))
	max := math.Inf(-1)
	for i := range x {
		scores[i] = a.p.Scores[i] + a.p.Gains[i]*x[i]
		if scores[i] > max {
			max = scores[i]
		}
	}
	var norm float64
	for i := range scores {
		scores[i] = math.Exp(scores[i] - max)
		norm += scores[i]
	}

	pooled := make([]float64, a.embedDim)
	for i, xi := range x {
		w := scores[i] / norm
		for d := 0; d < a.embedDim; d++ {
			pooled[d] += w * xi * a.p.Embed[i][d]
		}
	}
	return runLayers(a.p.Layers, pooled)
}
