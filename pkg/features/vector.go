// Package features computes the fixed-schema acoustic feature vector the
// classifier and baseline stages consume. Three families are extracted
// per analysis segment: time-domain (energy, zero crossings, silence),
// frequency-domain (spectral shape, MFCCs, contrast) and prosodic /
// voice-quality (pitch, speech rate, jitter, shimmer, HNR).
//
// The Vector is a named-field struct; positional ordering is defined
// only by the versioned Schema and used at serialization boundaries
// (scaler input, baseline maps). Every field is always populated with a
// finite value, so the schema is stable across silence, missing pitch
// and other degenerate inputs.
package features

import (
	"fmt"
	"math"
)

// SchemaVersion identifies the positional feature ordering. Bump it
// whenever fields are added, removed or reordered; persisted scalers and
// baselines carry the version they were built against.
const SchemaVersion = 1

// NumMFCC is the number of cepstral coefficients in the schema.
const NumMFCC = 13

// Stats summarizes one per-frame series.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Vector is the per-segment (and, after averaging, per-recording)
// feature vector.
type Vector struct {
	// Time domain.
	EnvelopeMean    float64
	EnvelopeStd     float64
	RMSMean         float64
	RMSStd          float64
	ZCRMean         float64
	ZCRStd          float64
	SilenceCount    float64
	SilenceMeanDur  float64
	SilenceTotalDur float64
	SilencePercent  float64

	// Frequency domain.
	CentroidMean  float64
	CentroidStd   float64
	BandwidthMean float64
	BandwidthStd  float64
	RolloffMean   float64
	RolloffStd    float64
	FlatnessMean  float64
	FlatnessStd   float64
	ContrastMean  float64
	ContrastStd   float64
	MFCC          [NumMFCC]Stats

	// Prosody / voice quality.
	PitchMean        float64
	PitchStd         float64
	PitchRange       float64
	PitchDeltaMean   float64
	PitchDeltaStd    float64
	SpeechRate       float64
	RhythmRegularity float64
	Jitter           float64
	Shimmer          float64
	HNR              float64
}

type ref struct {
	name string
	ptr  *float64
}

// refs returns the schema-ordered name→field mapping. The order here IS
// schema v1; do not reorder without bumping SchemaVersion.
func (v *Vector) refs() []ref {
	r := []ref{
		{"envelope_mean", &v.EnvelopeMean},
		{"envelope_std", &v.EnvelopeStd},
		{"rms_mean", &v.RMSMean},
		{"rms_std", &v.RMSStd},
		{"zcr_mean", &v.ZCRMean},
		{"zcr_std", &v.ZCRStd},
		{"silence_count", &v.SilenceCount},
		{"silence_mean_duration", &v.SilenceMeanDur},
		{"silence_total_duration", &v.SilenceTotalDur},
		{"silence_percent", &v.SilencePercent},

		{"spectral_centroid_mean", &v.CentroidMean},
		{"spectral_centroid_std", &v.CentroidStd},
		{"spectral_bandwidth_mean", &v.BandwidthMean},
		{"spectral_bandwidth_std", &v.BandwidthStd},
		{"spectral_rolloff_mean", &v.RolloffMean},
		{"spectral_rolloff_std", &v.RolloffStd},
		{"spectral_flatness_mean", &v.FlatnessMean},
		{"spectral_flatness_std", &v.FlatnessStd},
		{"spectral_contrast_mean", &v.ContrastMean},
		{"spectral_contrast_std", &v.ContrastStd},
	}
	for i := range v.MFCC {
		n := fmt.Sprintf("mfcc%d", i+1)
		r = append(r,
			ref{n + "_mean", &v.MFCC[i].Mean},
			ref{n + "_std", &v.MFCC[i].Std},
			ref{n + "_min", &v.MFCC[i].Min},
			ref{n + "_max", &v.MFCC[i].Max},
		)
	}
	r = append(r,
		ref{"pitch_mean", &v.PitchMean},
		ref{"pitch_std", &v.PitchStd},
		ref{"pitch_range", &v.PitchRange},
		ref{"pitch_delta_mean", &v.PitchDeltaMean},
		ref{"pitch_delta_std", &v.PitchDeltaStd},
		ref{"speech_rate", &v.SpeechRate},
		ref{"rhythm_regularity", &v.RhythmRegularity},
		ref{"jitter", &v.Jitter},
		ref{"shimmer", &v.Shimmer},
		ref{"hnr", &v.HNR},
	)
	return r
}

// Names returns the schema-ordered feature names.
func Names() []string {
	var v Vector
	rs := v.refs()
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.name
	}
	return names
}

// Dim is the number of features in the schema.
func Dim() int {
	var v Vector
	return len(v.refs())
}

// Values returns the schema-ordered feature values.
func (v *Vector) Values() []float64 {
	rs := v.refs()
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = *r.ptr
	}
	return out
}

// FromValues builds a Vector from schema-ordered values. The length
// must match Dim().
func FromValues(vals []float64) (*Vector, error) {
	v := &Vector{}
	rs := v.refs()
	if len(vals) != len(rs) {
		return nil, fmt.Errorf("features: expected %d values, got %d", len(rs), len(vals))
	}
	for i, r := range rs {
		*r.ptr = vals[i]
	}
	return v, nil
}

// Get returns the value of the named feature.
func (v *Vector) Get(name string) (float64, bool) {
	for _, r := range v.refs() {
		if r.name == name {
			return *r.ptr, true
		}
	}
	return 0, false
}

// ToMap returns the vector as a name→value map.
func (v *Vector) ToMap() map[string]float64 {
	rs := v.refs()
	m := make(map[string]float64, len(rs))
	for _, r := range rs {
		m[r.name] = *r.ptr
	}
	return m
}

// FromMap builds a Vector from a name→value map. Names absent from the
// map stay zero; unknown names are ignored.
func FromMap(m map[string]float64) *Vector {
	v := &Vector{}
	for _, r := range v.refs() {
		if val, ok := m[r.name]; ok {
			*r.ptr = val
		}
	}
	return v
}

// Mean averages multiple segment vectors into one recording vector.
// Returns the zero vector for an empty input.
func Mean(vs []*Vector) *Vector {
	out := &Vector{}
	if len(vs) == 0 {
		return out
	}
	acc := make([]float64, Dim())
	for _, v := range vs {
		for i, val := range v.Values() {
			acc[i] += val
		}
	}
	for i := range acc {
		acc[i] /= float64(len(vs))
	}
	v, _ := FromValues(acc)
	return v
}

// Finite reports whether every feature value is finite (no NaN/Inf).
func (v *Vector) Finite() bool {
	for _, val := range v.Values() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}
