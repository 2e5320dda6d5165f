package baseline_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/voicelens/voicelens/pkg/baseline"
	"github.com/voicelens/voicelens/pkg/features"
)

// calVector returns a calibration vector with a controlled pitch mean so
// tests can reason about the resulting baseline statistics.
func calVector(pitch float64) *features.Vector {
	return &features.Vector{
		PitchMean:    pitch,
		PitchStd:     20,
		SpeechRate:   3.0,
		RMSMean:      0.1,
		Jitter:       0.01,
		HNR:          15,
		CentroidMean: 1200,
		ZCRMean:      0.05,
	}
}

func TestCalibrationTransition(t *testing.T) {
	b := baseline.New(0, 0)
	if b.MinSamples != baseline.DefaultMinSamples || b.MaxSamples != baseline.DefaultMaxSamples {
		t.Fatalf("defaults = %d/%d, want %d/%d",
			b.MinSamples, b.MaxSamples, baseline.DefaultMinSamples, baseline.DefaultMaxSamples)
	}

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < baseline.DefaultMinSamples-1; i++ {
		b.AddSample(calVector(200), now)
		if b.Calibrated() {
			t.Fatalf("calibrated after %d samples", i+1)
		}
	}
	b.AddSample(calVector(200), now)
	if !b.Calibrated() {
		t.Fatal("not calibrated after MinSamples")
	}
	if !b.CalibratedAt.Equal(now) {
		t.Errorf("CalibratedAt = %v, want %v", b.CalibratedAt, now)
	}
	if got := b.Means["pitch_mean"]; math.Abs(got-200) > 1e-9 {
		t.Errorf("mean pitch = %f, want 200", got)
	}
	if got := b.Stds["pitch_mean"]; got != 0 {
		t.Errorf("pitch std = %f, want 0 for identical samples", got)
	}
}

func TestCalibrationMeansDistinctSamples(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Now()

	// Nine distinct vectors; the baseline means must equal their
	// arithmetic mean per feature.
	var pitchSum, rmsSum float64
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		v := calVector(100 + float64(i)*10)
		v.RMSMean = 0.05 + float64(i)*0.01
		pitchSum += v.PitchMean
		rmsSum += v.RMSMean
		b.AddSample(v, now)
	}
	if !b.Calibrated() {
		t.Fatal("not calibrated after MinSamples distinct vectors")
	}

	n := float64(baseline.DefaultMinSamples)
	if got, want := b.Means["pitch_mean"], pitchSum/n; math.Abs(got-want) > 1e-9 {
		t.Errorf("mean pitch = %f, want %f", got, want)
	}
	if got, want := b.Means["rms_mean"], rmsSum/n; math.Abs(got-want) > 1e-9 {
		t.Errorf("mean rms = %f, want %f", got, want)
	}
	if b.Stds["pitch_mean"] <= 0 {
		t.Errorf("pitch std = %f, want > 0 for distinct samples", b.Stds["pitch_mean"])
	}
}

func TestRingEviction(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Now()
	for i := 0; i < baseline.DefaultMaxSamples+5; i++ {
		b.AddSample(calVector(float64(100+i)), now)
	}
	if len(b.Samples) != baseline.DefaultMaxSamples {
		t.Fatalf("window = %d samples, want %d", len(b.Samples), baseline.DefaultMaxSamples)
	}
	// Oldest samples are gone; the window holds the last MaxSamples.
	first := b.Samples[0].PitchMean
	if first != float64(100+5) {
		t.Errorf("oldest retained pitch = %f, want %f", first, float64(100+5))
	}
}

func TestDeviation(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Now()
	// Alternate pitch so its variance is nonzero.
	for i := 0; i < baseline.DefaultMinSamples+1; i++ {
		pitch := 190.0
		if i%2 == 1 {
			pitch = 210.0
		}
		b.AddSample(calVector(pitch), now)
	}

	// A vector at the baseline means deviates only through pitch.
	same := calVector(200)
	d := b.Deviation(same)
	if d < 0 {
		t.Fatalf("deviation = %f, want >= 0", d)
	}

	far := calVector(320)
	if df := b.Deviation(far); df <= d {
		t.Errorf("far deviation %f not above near deviation %f", df, d)
	}

	// Deviation never mutates the baseline.
	before := len(b.Samples)
	b.Deviation(far)
	b.Deviation(far)
	if len(b.Samples) != before {
		t.Error("Deviation mutated the sample window")
	}
}

func TestDeviationUncalibrated(t *testing.T) {
	b := baseline.New(0, 0)
	b.AddSample(calVector(200), time.Now())
	if d := b.Deviation(calVector(500)); d != 0 {
		t.Errorf("uncalibrated deviation = %f, want 0", d)
	}
}

func TestDeviationZeroVariance(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Now()
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		b.AddSample(calVector(200), now)
	}
	// Every scored feature has zero variance; the z-scores would be
	// infinite, so they are skipped and the deviation collapses to 0.
	d := b.Deviation(calVector(500))
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("deviation = %f, want finite", d)
	}
	if d != 0 {
		t.Errorf("deviation = %f, want 0 when all variances are zero", d)
	}
}

func TestReset(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Now()
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		b.AddSample(calVector(200), now)
	}
	b.Reset()
	if b.Calibrated() || len(b.Samples) != 0 || b.Means != nil || !b.CalibratedAt.IsZero() {
		t.Errorf("Reset left state behind: %+v", b)
	}
}

func TestBand(t *testing.T) {
	cases := []struct {
		d    float64
		want string
	}{
		{0.2, "consistent with baseline"},
		{0.7, "minor variation"},
		{1.5, "moderate change"},
		{2.5, "significant change"},
	}
	for _, c := range cases {
		if got := baseline.Band(c.d); got != c.want {
			t.Errorf("Band(%f) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestRecordRoundtrip(t *testing.T) {
	b := baseline.New(0, 0)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < baseline.DefaultMinSamples+1; i++ {
		pitch := 190.0
		if i%2 == 1 {
			pitch = 210.0
		}
		b.AddSample(calVector(pitch), now)
	}

	r := b.ToRecord()
	if r.SamplesUsed != len(b.Samples) {
		t.Errorf("SamplesUsed = %d, want %d", r.SamplesUsed, len(b.Samples))
	}
	if r.SchemaVer != features.SchemaVersion {
		t.Errorf("SchemaVer = %d, want %d", r.SchemaVer, features.SchemaVersion)
	}

	back := baseline.FromRecord(r)
	if !back.Calibrated() {
		t.Fatal("roundtrip lost calibration")
	}
	v := calVector(320)
	if a, z := b.Deviation(v), back.Deviation(v); math.Abs(a-z) > 1e-9 {
		t.Errorf("deviation changed across roundtrip: %f vs %f", a, z)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := baseline.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	if _, err := s.Get(ctx, "nobody"); !errors.Is(err, baseline.ErrNotFound) {
		t.Fatalf("Get(nobody) = %v, want ErrNotFound", err)
	}

	b := baseline.New(0, 0)
	now := time.Now()
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		b.AddSample(calVector(200), now)
	}
	if err := s.Save(ctx, "alice", b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Calibrated() {
		t.Error("stored baseline lost calibration")
	}
	if got.Means["pitch_mean"] != 200 {
		t.Errorf("stored mean pitch = %f, want 200", got.Means["pitch_mean"])
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice"); !errors.Is(err, baseline.ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	// Deleting an absent user is not an error.
	if err := s.Delete(ctx, "alice"); err != nil {
		t.Errorf("repeat Delete: %v", err)
	}
}
