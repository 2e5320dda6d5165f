package screen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/voicelens/voicelens/pkg/audio/wave"
	"github.com/voicelens/voicelens/pkg/baseline"
	"github.com/voicelens/voicelens/pkg/classify"
	"github.com/voicelens/voicelens/pkg/features"
	"github.com/voicelens/voicelens/pkg/scales"
)

// Source identifies an audio input: a file path or an in-memory WAV
// buffer. Exactly one of Path and Data should be set.
type Source struct {
	Path string
	Data []byte
}

// FromFile references a WAV file on disk.
func FromFile(path string) Source { return Source{Path: path} }

// FromBytes wraps an in-memory WAV buffer.
func FromBytes(data []byte) Source { return Source{Data: data} }

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the default engine configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithClassifier injects a classifier, replacing the default heuristic
// scorer.
func WithClassifier(c classify.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithStore injects the baseline store. Default is an in-memory store.
func WithStore(s baseline.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the structured logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. Without options it uses the default config,
// the heuristic classifier and an in-memory baseline store.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.classifier == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		e.classifier = classify.NewHeuristic(classify.DefaultHeuristicConfig(), rng)
	}
	if e.store == nil {
		e.store = baseline.NewMemoryStore()
	}

	fcfg := features.DefaultConfig()
	fcfg.SampleRate = wave.TargetSampleRate
	e.extractor = features.NewExtractor(fcfg)
	return e
}

// NewWithParams creates an Engine whose classifier is the learned
// ensemble loaded from paramsPath, falling back to the heuristic scorer
// both when loading fails and per-call when scoring fails. A load
// failure is logged, never returned.
func NewWithParams(paramsPath string, opts ...Option) *Engine {
	e := New(opts...)
	heuristic := e.classifier

	params, err := classify.LoadParams(paramsPath)
	if err != nil {
		e.logger.Warn("ensemble parameters unavailable, using heuristic scorer", "path", paramsPath, "error", err)
		return e
	}
	ensemble, err := classify.NewEnsemble(params)
	if err != nil {
		e.logger.Warn("ensemble rejected, using heuristic scorer", "path", paramsPath, "error", err)
		return e
	}
	e.classifier = &classify.Fallback{Primary: ensemble, Secondary: heuristic, Logger: e.logger}
	return e
}

// ingest decodes, resamples, validates and segments one recording.
func (e *Engine) ingest(src Source, policy wave.Policy) (*wave.Buffer, []wave.Segment, error) {
	var buf *wave.Buffer
	var err error
	switch {
	case src.Path != "":
		buf, err = wave.DecodeFile(src.Path)
	case len(src.Data) > 0:
		buf, err = wave.Decode(bytes.NewReader(src.Data))
	default:
		return nil, nil, fmt.Errorf("%w: empty source", wave.ErrBadFormat)
	}
	if err != nil {
		return nil, nil, err
	}

	buf, err = wave.Resample(buf, wave.TargetSampleRate)
	if err != nil {
		return nil, nil, err
	}
	if err := wave.Validate(buf, policy); err != nil {
		return nil, nil, err
	}

	normalized := buf.Normalize()
	return normalized, wave.Split(normalized, e.cfg.Segment), nil
}

// extractAll featurizes every segment, fanning out across the
// configured worker count, and averages the per-segment vectors.
func (e *Engine) extractAll(ctx context.Context, segs []wave.Segment) (*features.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([]*features.Vector, len(segs))
	workers := e.cfg.Workers
	if workers <= 1 || len(segs) == 1 {
		for i, seg := range segs {
			vectors[i] = e.extractor.Extract(seg)
		}
		return features.Mean(vectors), nil
	}
	if workers > len(segs) {
		workers = len(segs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				vectors[i] = e.extractor.Extract(segs[i])
			}
		}()
	}
	for i := range segs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return features.Mean(vectors), nil
}

// Analyze runs the full pipeline on one recording and returns the
// structured assessment. Validation failures are returned as
// *wave.ValidationError.
func (e *Engine) Analyze(ctx context.Context, src Source) (*Result, error) {
	buf, segs, err := e.ingest(src, e.cfg.Validation)
	if err != nil {
		return nil, err
	}
	vec, err := e.extractAll(ctx, segs)
	if err != nil {
		return nil, err
	}
	return e.score(buf, segs, vec), nil
}

// score maps the aggregated feature vector to the final result.
func (e *Engine) score(buf *wave.Buffer, segs []wave.Segment, vec *features.Vector) *Result {
	probs, conf, err := e.classifier.Score(vec)
	if err != nil {
		// Only reachable with a custom classifier and no fallback; the
		// heuristic path cannot fail.
		e.logger.Warn("classifier failed, using heuristic scorer", "error", err)
		h := classify.NewHeuristic(classify.DefaultHeuristicConfig(), nil)
		probs, conf, _ = h.Score(vec)
	}

	mhs := classify.MentalHealthScore(probs, conf)
	scaleScores := scales.Map(probs, mhs)

	return &Result{
		ID:                newResultID(),
		CreatedAt:         time.Now().UTC(),
		Duration:          buf.Duration(),
		SegmentCount:      len(segs),
		Features:          vec.ToMap(),
		Probabilities:     probs.Map(),
		Confidence:        conf,
		MentalHealthScore: mhs,
		RiskLevel:         classify.Risk(probs),
		ScaleScores:       scaleScores,
		Interpretations:   scales.Interpretations(scaleScores),
	}
}

// Calibrate ingests one recording under the lenient calibration policy
// and adds its feature vector to the user's baseline. Calls for the
// same user are serialized; an insufficient sample count is a status,
// not an error.
func (e *Engine) Calibrate(ctx context.Context, userID string, src Source) (*CalibrationStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("screen: empty user id")
	}
	_, segs, err := e.ingest(src, e.cfg.Calibration)
	if err != nil {
		return nil, err
	}
	vec, err := e.extractAll(ctx, segs)
	if err != nil {
		return nil, err
	}

	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	b, err := e.store.Get(ctx, userID)
	if err == baseline.ErrNotFound {
		b = baseline.New(e.cfg.MinSamples, e.cfg.MaxSamples)
	} else if err != nil {
		return nil, fmt.Errorf("screen: load baseline for %s: %w", userID, err)
	}

	b.AddSample(vec, time.Now().UTC())
	if err := e.store.Save(ctx, userID, b); err != nil {
		return nil, fmt.Errorf("screen: save baseline for %s: %w", userID, err)
	}

	status := &CalibrationStatus{
		SamplesCollected: len(b.Samples),
		SamplesRequired:  b.MinSamples,
		IsCalibrated:     b.Calibrated(),
	}
	e.logger.Info("calibration sample added",
		"user", userID,
		"collected", status.SamplesCollected,
		"required", status.SamplesRequired,
		"calibrated", status.IsCalibrated)
	return status, nil
}

// ResetBaseline discards a user's calibration state. Recalibration is
// always this explicit operation.
func (e *Engine) ResetBaseline(ctx context.Context, userID string) error {
	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return e.store.Delete(ctx, userID)
}

// Baseline returns the stored baseline record for a user, or
// baseline.ErrNotFound.
func (e *Engine) Baseline(ctx context.Context, userID string) (*baseline.Record, error) {
	b, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.ToRecord(), nil
}

// AnalyzePersonalized runs Analyze and, when the user has a calibrated
// baseline, adds the deviation report and the adjusted risk level. An
// uncalibrated or absent baseline yields the plain result with
// BaselineState explaining why.
func (e *Engine) AnalyzePersonalized(ctx context.Context, userID string, src Source) (*Result, error) {
	res, err := e.Analyze(ctx, src)
	if err != nil {
		return nil, err
	}

	b, err := e.store.Get(ctx, userID)
	if err == baseline.ErrNotFound {
		res.BaselineState = BaselineStateNone
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("screen: load baseline for %s: %w", userID, err)
	}
	if !b.Calibrated() {
		res.BaselineState = BaselineStateUncalibrated
		return res, nil
	}

	vec := features.FromMap(res.Features)
	dev := b.Deviation(vec)
	res.BaselineState = BaselineStateCalibrated
	res.BaselineDeviation = &dev
	res.DeviationBand = baseline.Band(dev)
	res.AdjustedRiskLevel = res.RiskLevel
	if dev >= baseline.EscalationThreshold && res.RiskLevel == classify.RiskLow {
		res.AdjustedRiskLevel = classify.RiskModerate
	}
	return res, nil
}
