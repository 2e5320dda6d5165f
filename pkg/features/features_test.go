package features_test

import (
	"math"
	"testing"

	"github.com/voicelens/voicelens/pkg/audio/wave"
	"github.com/voicelens/voicelens/pkg/features"
)

func makeSineSegment(freq float64, sampleRate int, dur, amp float64) wave.Segment {
	n := int(dur * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return wave.Segment{Samples: samples, SampleRate: sampleRate}
}

func TestSchemaDim(t *testing.T) {
	names := features.Names()
	if len(names) != features.Dim() {
		t.Fatalf("len(Names) = %d, Dim = %d", len(names), features.Dim())
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate feature name %q", n)
		}
		seen[n] = true
	}
}

func TestValuesRoundtrip(t *testing.T) {
	vals := make([]float64, features.Dim())
	for i := range vals {
		vals[i] = float64(i) * 0.5
	}
	v, err := features.FromValues(vals)
	if err != nil {
		t.Fatalf("FromValues: %v", err)
	}
	got := v.Values()
	for i := range vals {
		if got[i] != vals[i] {
			t.Fatalf("value %d: got %f, want %f", i, got[i], vals[i])
		}
	}

	if _, err := features.FromValues(vals[:10]); err == nil {
		t.Error("FromValues accepted a short slice")
	}
}

func TestMapRoundtrip(t *testing.T) {
	v := &features.Vector{PitchMean: 220, ZCRMean: 0.05, HNR: 12}
	m := v.ToMap()
	if m["pitch_mean"] != 220 {
		t.Errorf("pitch_mean = %f, want 220", m["pitch_mean"])
	}
	back := features.FromMap(m)
	if back.PitchMean != 220 || back.ZCRMean != 0.05 || back.HNR != 12 {
		t.Errorf("roundtrip lost values: %+v", back)
	}
}

func TestGet(t *testing.T) {
	v := &features.Vector{Jitter: 0.015}
	got, ok := v.Get("jitter")
	if !ok || got != 0.015 {
		t.Errorf("Get(jitter) = %f, %v", got, ok)
	}
	if _, ok := v.Get("no_such_feature"); ok {
		t.Error("Get accepted an unknown name")
	}
}

func TestMean(t *testing.T) {
	a := &features.Vector{PitchMean: 100, RMSMean: 0.2}
	b := &features.Vector{PitchMean: 300, RMSMean: 0.4}
	m := features.Mean([]*features.Vector{a, b})
	if math.Abs(m.PitchMean-200) > 1e-9 {
		t.Errorf("PitchMean = %f, want 200", m.PitchMean)
	}
	if math.Abs(m.RMSMean-0.3) > 1e-9 {
		t.Errorf("RMSMean = %f, want 0.3", m.RMSMean)
	}

	empty := features.Mean(nil)
	if !empty.Finite() {
		t.Error("empty Mean not finite")
	}
}

func TestExtractSine(t *testing.T) {
	ex := features.NewExtractor(features.DefaultConfig())
	seg := makeSineSegment(440, 16000, 5.0, 0.8)
	v := ex.Extract(seg)

	if !v.Finite() {
		t.Fatal("vector contains non-finite values")
	}
	// A 440 Hz sine crosses zero 880 times per second.
	wantZCR := 2 * 440.0 / 16000.0
	if math.Abs(v.ZCRMean-wantZCR) > 0.005 {
		t.Errorf("ZCRMean = %f, want %f ± 0.005", v.ZCRMean, wantZCR)
	}
	// Pitch tracks the fundamental within one FFT bin (7.8 Hz).
	if math.Abs(v.PitchMean-440) > 10 {
		t.Errorf("PitchMean = %f, want 440 ± 10", v.PitchMean)
	}
	// A steady tone has near-zero pitch variation and jitter.
	if v.PitchStd > 5 {
		t.Errorf("PitchStd = %f, want < 5", v.PitchStd)
	}
	if v.Jitter > 0.01 {
		t.Errorf("Jitter = %f, want < 0.01", v.Jitter)
	}
	// A pure tone is strongly harmonic.
	if v.HNR < 10 {
		t.Errorf("HNR = %f, want >= 10", v.HNR)
	}
	// The centroid of a pure tone sits near its frequency.
	if v.CentroidMean < 300 || v.CentroidMean > 900 {
		t.Errorf("CentroidMean = %f, want near 440", v.CentroidMean)
	}
}

func TestExtractSilence(t *testing.T) {
	ex := features.NewExtractor(features.DefaultConfig())
	seg := wave.Segment{Samples: make([]float64, 5*16000), SampleRate: 16000}
	v := ex.Extract(seg)

	if !v.Finite() {
		t.Fatal("silent vector contains non-finite values")
	}
	if v.RMSMean != 0 {
		t.Errorf("RMSMean = %f, want 0", v.RMSMean)
	}
	if v.SilencePercent < 99 {
		t.Errorf("SilencePercent = %f, want ~100", v.SilencePercent)
	}
	if v.PitchMean != 0 {
		t.Errorf("PitchMean = %f, want 0 for unvoiced input", v.PitchMean)
	}
}

func TestExtractShortSegment(t *testing.T) {
	ex := features.NewExtractor(features.DefaultConfig())
	// Shorter than one analysis frame; must still produce a finite vector.
	seg := makeSineSegment(200, 16000, 0.05, 0.5)
	v := ex.Extract(seg)
	if !v.Finite() {
		t.Fatal("short-segment vector contains non-finite values")
	}
}

func TestExtractDeterministic(t *testing.T) {
	ex := features.NewExtractor(features.DefaultConfig())
	seg := makeSineSegment(330, 16000, 5.0, 0.6)
	a := ex.Extract(seg).Values()
	b := ex.Extract(seg).Values()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("feature %d differs between runs: %f vs %f", i, a[i], b[i])
		}
	}
}
