package wave

import (
	"fmt"
	"math"
)

// ValidationKind identifies the reason a recording was rejected.
type ValidationKind string

const (
	KindTooShort ValidationKind = "too_short"
	KindClipped  ValidationKind = "clipped"
	KindTooNoisy ValidationKind = "too_noisy"
)

// ValidationError reports a rejected recording together with the
// offending measurement and the limit it violated.
type ValidationError struct {
	Kind     ValidationKind
	Measured float64
	Limit    float64
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindTooShort:
		return fmt.Sprintf("wave: duration %.1fs below minimum %.1fs", e.Measured, e.Limit)
	case KindClipped:
		return fmt.Sprintf("wave: peak amplitude %.2f at or above clipping level %.2f", e.Measured, e.Limit)
	case KindTooNoisy:
		return fmt.Sprintf("wave: estimated SNR %.1f dB below minimum %.1f dB", e.Measured, e.Limit)
	}
	return fmt.Sprintf("wave: validation failed (%s)", e.Kind)
}

// Policy holds the validation thresholds. All numbers are screening
// defaults, not clinical claims; callers may loosen or tighten them.
type Policy struct {
	// MinDuration is the minimum recording length in seconds.
	MinDuration float64

	// MinSNR is the minimum estimated signal-to-noise ratio in dB.
	MinSNR float64

	// NoiseThreshold is the absolute amplitude below which a sample is
	// treated as part of the noise floor for the SNR estimate.
	NoiseThreshold float64
}

// DefaultPolicy returns the validation thresholds for a full analysis.
func DefaultPolicy() Policy {
	return Policy{
		MinDuration:    10.0,
		MinSNR:         10.0,
		NoiseThreshold: 0.01,
	}
}

// CalibrationPolicy returns the lenient thresholds used when capturing
// baseline calibration samples.
func CalibrationPolicy() Policy {
	return Policy{
		MinDuration:    5.0,
		MinSNR:         5.0,
		NoiseThreshold: 0.01,
	}
}

// Validate checks the buffer against the policy. It must run before
// Normalize so the clipping check sees the original amplitudes.
// Returns a *ValidationError describing the first failed check.
func Validate(buf *Buffer, p Policy) error {
	if d := buf.Duration(); d < p.MinDuration {
		return &ValidationError{Kind: KindTooShort, Measured: d, Limit: p.MinDuration}
	}
	if peak := buf.Peak(); peak >= 1.0 {
		return &ValidationError{Kind: KindClipped, Measured: peak, Limit: 1.0}
	}
	if snr := EstimateSNR(buf.Samples, p.NoiseThreshold); snr < p.MinSNR {
		return &ValidationError{Kind: KindTooNoisy, Measured: snr, Limit: p.MinSNR}
	}
	return nil
}

// EstimateSNR approximates the signal-to-noise ratio in dB by comparing
// the mean power of all samples against the mean power of near-silent
// samples (|x| < noiseThreshold). When no sample falls below the
// threshold a small floor power is assumed, which yields a high SNR.
func EstimateSNR(samples []float64, noiseThreshold float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var signalPower, noisePower float64
	noiseCount := 0
	for _, s := range samples {
		p := s * s
		signalPower += p
		if math.Abs(s) < noiseThreshold {
			noisePower += p
			noiseCount++
		}
	}
	signalPower /= float64(len(samples))

	const floorPower = 1e-10
	if noiseCount == 0 {
		noisePower = floorPower
	} else {
		noisePower /= float64(noiseCount)
		if noisePower < floorPower {
			noisePower = floorPower
		}
	}
	if signalPower < floorPower {
		signalPower = floorPower
	}
	return 10 * math.Log10(signalPower/noisePower)
}
