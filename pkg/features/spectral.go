package features

import (
	"math"
	"sort"

	"github.com/voicelens/voicelens/pkg/dsp"
)

// rolloffFraction is the cumulative-energy fraction defining the
// spectral roll-off frequency.
const rolloffFraction = 0.85

// spectral fills the frequency-domain family from the magnitude
// spectrogram: spectral shape statistics, MFCCs and multi-band contrast.
func (e *Extractor) spectral(v *Vector, spec [][]float64) {
	n := len(spec)
	centroid := make([]float64, 0, n)
	bandwidth := make([]float64, 0, n)
	rolloff := make([]float64, 0, n)
	flatness := make([]float64, 0, n)
	var contrast []float64
	mfcc := make([][]float64, NumMFCC)

	for _, mag := range spec {
		var magSum, weighted float64
		for k, m := range mag {
			magSum += m
			weighted += e.binHz(k) * m
		}
		if magSum <= 0 {
			// Silent frame: spectral shape is undefined, skip it. If every
			// frame is silent the summaries below fall back to zeros.
			continue
		}

		c := weighted / magSum
		centroid = append(centroid, c)

		var spread float64
		for k, m := range mag {
			d := e.binHz(k) - c
			spread += d * d * m
		}
		bandwidth = append(bandwidth, math.Sqrt(spread/magSum))

		// Roll-off over energy (squared magnitude).
		var energySum float64
		for _, m := range mag {
			energySum += m * m
		}
		var cum float64
		roll := e.binHz(len(mag) - 1)
		for k, m := range mag {
			cum += m * m
			if cum >= rolloffFraction*energySum {
				roll = e.binHz(k)
				break
			}
		}
		rolloff = append(rolloff, roll)

		flatness = append(flatness, spectralFlatness(mag))
		contrast = append(contrast, e.bandContrast(mag)...)

		// MFCC: mel filterbank energies → log → DCT-II.
		logMel := make([]float64, e.cfg.NumMels)
		for m := 0; m < e.cfg.NumMels; m++ {
			var energy float64
			for k, w := range e.melFB[m] {
				energy += w * mag[k] * mag[k]
			}
			if energy < 1e-10 {
				energy = 1e-10
			}
			logMel[m] = math.Log(energy)
		}
		coeffs := dsp.DCT2(logMel, NumMFCC)
		for i, c := range coeffs {
			mfcc[i] = append(mfcc[i], c)
		}
	}

	v.CentroidMean = mean(centroid)
	v.CentroidStd = std(centroid)
	v.BandwidthMean = mean(bandwidth)
	v.BandwidthStd = std(bandwidth)
	v.RolloffMean = mean(rolloff)
	v.RolloffStd = std(rolloff)
	v.FlatnessMean = mean(flatness)
	v.FlatnessStd = std(flatness)
	v.ContrastMean = mean(contrast)
	v.ContrastStd = std(contrast)
	for i := range mfcc {
		v.MFCC[i] = summarize(mfcc[i])
	}
}

// spectralFlatness is the ratio of geometric to arithmetic mean of the
// power spectrum (Wiener entropy); 1 for white noise, near 0 for tones.
func spectralFlatness(mag []float64) float64 {
	var logSum, sum float64
	for _, m := range mag {
		p := m*m + 1e-12
		logSum += math.Log(p)
		sum += p
	}
	n := float64(len(mag))
	return math.Exp(logSum/n) / (sum / n)
}

// bandContrast computes the peak-to-valley contrast in dB for each
// configured frequency band of one frame.
func (e *Extractor) bandContrast(mag []float64) []float64 {
	edges := e.cfg.ContrastBands
	out := make([]float64, 0, len(edges)-1)
	for b := 0; b+1 < len(edges); b++ {
		lo := e.hzBin(edges[b])
		hi := e.hzBin(edges[b+1])
		if hi <= lo {
			out = append(out, 0)
			continue
		}
		band := make([]float64, hi-lo)
		for k := lo; k < hi; k++ {
			band[k-lo] = mag[k]*mag[k] + 1e-12
		}
		sort.Float64s(band)

		// Contrast between the top and bottom quintile of the band.
		q := len(band) / 5
		if q < 1 {
			q = 1
		}
		var valley, peak float64
		for i := 0; i < q; i++ {
			valley += band[i]
			peak += band[len(band)-1-i]
		}
		out = append(out, 10*math.Log10(peak/valley))
	}
	return out
}
