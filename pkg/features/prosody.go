package features

import (
	"math"

	"github.com/voicelens/voicelens/pkg/dsp"
)

// prosody fills the prosodic / voice-quality family: pitch statistics,
// speech rate, rhythm regularity, jitter, shimmer and HNR.
//
// Frames where no pitch is detected are excluded from the pitch track;
// a recording with no voiced frames reports zeros for all pitch-derived
// features so the schema stays stable.
func (e *Extractor) prosody(v *Vector, frames [][]float64, spec [][]float64) {
	pitch := e.pitchTrack(spec)

	v.PitchMean = mean(pitch)
	v.PitchStd = std(pitch)
	if len(pitch) > 0 {
		lo, hi := pitch[0], pitch[0]
		for _, p := range pitch {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		v.PitchRange = hi - lo
	}

	// Frame-to-frame pitch movement.
	var deltas []float64
	for i := 1; i < len(pitch); i++ {
		deltas = append(deltas, math.Abs(pitch[i]-pitch[i-1]))
	}
	v.PitchDeltaMean = mean(deltas)
	v.PitchDeltaStd = std(deltas)

	// Jitter: mean absolute relative change in pitch period.
	var jitters []float64
	for i := 1; i < len(pitch); i++ {
		prev := 1.0 / pitch[i-1]
		cur := 1.0 / pitch[i]
		jitters = append(jitters, math.Abs(cur-prev)/prev)
	}
	v.Jitter = mean(jitters)

	e.rateAndShimmer(v, frames)
	v.HNR = e.harmonicNoiseRatio(spec)
}

// pitchTrack estimates the fundamental frequency of each frame by peak
// salience: every candidate bin in the pitch range is scored by the
// harmonically weighted sum of magnitudes at its first four harmonics,
// and the best candidate is kept when it carries enough of the frame's
// spectral energy to count as voiced.
func (e *Extractor) pitchTrack(spec [][]float64) []float64 {
	loBin := e.hzBin(e.cfg.PitchMin)
	hiBin := e.hzBin(e.cfg.PitchMax)
	half := e.fftSize/2 + 1

	var track []float64
	for _, mag := range spec {
		var total float64
		for _, m := range mag {
			total += m
		}
		if total <= 0 {
			continue
		}

		bestBin, bestSalience := 0, 0.0
		for k := loBin; k <= hiBin; k++ {
			salience := 0.0
			for h := 1; h <= 4; h++ {
				hk := k * h
				if hk >= half {
					break
				}
				salience += mag[hk] / float64(h)
			}
			if salience > bestSalience {
				bestSalience = salience
				bestBin = k
			}
		}

		// Voicing gate: the fundamental itself must stand out against
		// the strongest component in the frame.
		if bestBin == 0 || mag[bestBin] < e.cfg.VoicingThreshold*maxMag(mag) {
			continue
		}
		track = append(track, e.binHz(bestBin))
	}
	return track
}

func maxMag(mag []float64) float64 {
	var m float64
	for _, v := range mag {
		if v > m {
			m = v
		}
	}
	return m
}

// rateAndShimmer detects energy peaks in the frame envelope, then
// derives speech rate (peaks per second), rhythm regularity (inverse
// variation of inter-peak intervals) and shimmer (mean absolute relative
// change in peak amplitude).
func (e *Extractor) rateAndShimmer(v *Vector, frames [][]float64) {
	rms := make([]float64, len(frames))
	for i, frame := range frames {
		var sumSq float64
		for _, s := range frame {
			sumSq += s * s
		}
		rms[i] = math.Sqrt(sumSq / float64(len(frame)))
	}

	threshold := mean(rms) + 0.5*std(rms)
	minGap := int(e.cfg.PeakMinDistance / e.frameDur())
	if minGap < 1 {
		minGap = 1
	}

	var peakIdx []int
	var peakAmp []float64
	last := -minGap
	for i := 1; i+1 < len(rms); i++ {
		if rms[i] > threshold && rms[i] >= rms[i-1] && rms[i] >= rms[i+1] && i-last >= minGap {
			peakIdx = append(peakIdx, i)
			peakAmp = append(peakAmp, rms[i])
			last = i
		}
	}

	duration := float64(len(frames)) * e.frameDur()
	if duration > 0 {
		v.SpeechRate = float64(len(peakIdx)) / duration
	}

	// Rhythm regularity from the coefficient of variation of inter-peak
	// intervals: 1 means perfectly regular, approaching 0 means erratic.
	if len(peakIdx) >= 3 {
		intervals := make([]float64, len(peakIdx)-1)
		for i := 1; i < len(peakIdx); i++ {
			intervals[i-1] = float64(peakIdx[i]-peakIdx[i-1]) * e.frameDur()
		}
		if m := mean(intervals); m > 0 {
			v.RhythmRegularity = 1.0 / (1.0 + std(intervals)/m)
		}
	}

	var shimmers []float64
	for i := 1; i < len(peakAmp); i++ {
		if peakAmp[i-1] > 0 {
			shimmers = append(shimmers, math.Abs(peakAmp[i]-peakAmp[i-1])/peakAmp[i-1])
		}
	}
	v.Shimmer = mean(shimmers)
}

// harmonicNoiseRatio estimates HNR in dB from a harmonic/percussive
// style split of the magnitude spectrogram: median filtering along time
// keeps sustained harmonic energy, and the residual against the original
// spectrogram is treated as noise.
func (e *Extractor) harmonicNoiseRatio(spec [][]float64) float64 {
	if len(spec) < 3 {
		return 0
	}
	half := len(spec[0])

	var harmonic, residual float64
	col := make([]float64, len(spec))
	for k := 0; k < half; k++ {
		for t := range spec {
			col[t] = spec[t][k]
		}
		smoothed := dsp.MedianFilter(col, 9)
		for t := range spec {
			h := smoothed[t]
			if h > col[t] {
				h = col[t]
			}
			r := col[t] - h
			harmonic += h * h
			residual += r * r
		}
	}

	if harmonic <= 0 {
		return 0
	}
	if residual < 1e-10 {
		residual = 1e-10
	}
	hnr := 10 * math.Log10(harmonic/residual)

	// Clamp to a physically plausible range.
	if hnr > 40 {
		hnr = 40
	}
	if hnr < -20 {
		hnr = -20
	}
	return hnr
}
