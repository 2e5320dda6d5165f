// Package dsp provides the signal-processing primitives shared by the
// feature extraction pipeline: an in-place radix-2 FFT, analysis windows,
// frame iteration, triangular mel filterbanks and the DCT-II used for
// cepstral coefficients.
//
// All functions are pure and operate on float64 slices. Callers are
// expected to reuse buffers across frames where allocation matters.
package dsp

import (
	"math"
	"math/cmplx"
)

// NextPow2 returns the smallest power of 2 >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// HammingWindow computes a Hamming window of the given length.
func HammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// HannWindow computes a Hann window of the given length.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// FFT computes the in-place Cooley-Tukey FFT.
// The input length must be a power of 2.
func FFT(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	// Butterfly operations.
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		wn := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				u := x[start+k]
				t := w * x[start+k+half]
				x[start+k] = u + t
				x[start+k+half] = u - t
				w *= wn
			}
		}
	}
}

// Spectrum computes the magnitude spectrum of one windowed frame.
// The frame is zero-padded to fftSize (a power of 2) and the first
// fftSize/2+1 magnitudes are returned. window must have len(frame)
// elements; fftBuf must have fftSize elements and is clobbered.
func Spectrum(frame, window []float64, fftBuf []complex128, out []float64) []float64 {
	fftSize := len(fftBuf)
	half := fftSize/2 + 1
	for i := range fftBuf {
		fftBuf[i] = 0
	}
	for i := range frame {
		fftBuf[i] = complex(frame[i]*window[i], 0)
	}
	FFT(fftBuf)
	if out == nil {
		out = make([]float64, half)
	}
	for k := 0; k < half; k++ {
		r := real(fftBuf[k])
		im := imag(fftBuf[k])
		out[k] = math.Sqrt(r*r + im*im)
	}
	return out
}

// NumFrames returns how many full analysis frames fit into n samples
// with the given frame length and hop.
func NumFrames(n, frameLen, hop int) int {
	if n < frameLen {
		return 0
	}
	return (n-frameLen)/hop + 1
}

// HzToMel converts frequency in Hz to mel scale.
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz.
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterbank computes triangular mel filterbank weights.
// Returns [numMels][fftSize/2+1] weights spanning 0..sampleRate/2.
func MelFilterbank(numMels, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1

	melLow := HzToMel(0)
	melHigh := HzToMel(float64(sampleRate) / 2)

	// Equally spaced mel points.
	melPoints := make([]float64, numMels+2)
	for i := range melPoints {
		melPoints[i] = melLow + float64(i)*(melHigh-melLow)/float64(numMels+1)
	}

	// Convert back to Hz and then to FFT bin indices.
	binIndices := make([]int, numMels+2)
	for i := range melPoints {
		hz := MelToHz(melPoints[i])
		binIndices[i] = int(math.Floor(hz * float64(fftSize) / float64(sampleRate)))
		if binIndices[i] >= halfFFT {
			binIndices[i] = halfFFT - 1
		}
	}

	// Build triangular filters.
	fb := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		fb[m] = make([]float64, halfFFT)
		left := binIndices[m]
		center := binIndices[m+1]
		right := binIndices[m+2]

		for k := left; k <= center; k++ {
			if center > left {
				fb[m][k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right; k++ {
			if right > center {
				fb[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}
	return fb
}

// DCT2 computes the orthonormal DCT-II of the input, keeping the first
// numCoeffs coefficients. Used to turn log mel energies into cepstral
// coefficients.
func DCT2(in []float64, numCoeffs int) []float64 {
	n := len(in)
	if n == 0 || numCoeffs <= 0 {
		return nil
	}
	if numCoeffs > n {
		numCoeffs = n
	}
	out := make([]float64, numCoeffs)
	scale0 := math.Sqrt(1.0 / float64(n))
	scale := math.Sqrt(2.0 / float64(n))
	for k := 0; k < numCoeffs; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
		if k == 0 {
			out[k] = sum * scale0
		} else {
			out[k] = sum * scale
		}
	}
	return out
}

// MedianFilter applies a 1-D median filter of the given odd width,
// clamping at the edges. Width <= 1 returns a copy.
func MedianFilter(in []float64, width int) []float64 {
	out := make([]float64, len(in))
	if width <= 1 {
		copy(out, in)
		return out
	}
	half := width / 2
	buf := make([]float64, 0, width)
	for i := range in {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(in) {
			hi = len(in) - 1
		}
		buf = append(buf[:0], in[lo:hi+1]...)
		out[i] = median(buf)
	}
	return out
}

// median returns the median of buf, reordering it in place.
func median(buf []float64) float64 {
	n := len(buf)
	// Insertion sort; buffers here are small (filter widths of 9-17).
	for i := 1; i < n; i++ {
		v := buf[i]
		j := i - 1
		for j >= 0 && buf[j] > v {
			buf[j+1] = buf[j]
			j--
		}
		buf[j+1] = v
	}
	if n%2 == 1 {
		return buf[n/2]
	}
	return 0.5 * (buf[n/2-1] + buf[n/2])
}
