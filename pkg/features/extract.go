package features

import (
	"github.com/voicelens/voicelens/pkg/audio/wave"
	"github.com/voicelens/voicelens/pkg/dsp"
)

// Config holds the analysis parameters for feature extraction.
// Defaults target 16 kHz mono speech.
type Config struct {
	SampleRate  int // analysis sample rate in Hz (default: 16000)
	FrameLength int // analysis frame in samples (default: 2048)
	HopLength   int // hop between frames in samples (default: 512)
	NumMels     int // mel channels feeding the MFCC DCT (default: 26)

	// SilenceRMS is the per-frame RMS level below which a frame counts
	// as silent.
	SilenceRMS float64

	// PitchMin / PitchMax bound the fundamental-frequency search, Hz.
	PitchMin float64
	PitchMax float64

	// VoicingThreshold is the minimum fraction of frame spectral energy
	// the pitch salience peak must carry for the frame to count as voiced.
	VoicingThreshold float64

	// PeakMinDistance is the minimum spacing between energy peaks in
	// seconds, enforced so one syllable is not counted twice.
	PeakMinDistance float64

	// ContrastBands are the band edges in Hz for spectral contrast.
	ContrastBands []float64
}

// DefaultConfig returns the standard analysis configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:       wave.TargetSampleRate,
		FrameLength:      2048,
		HopLength:        512,
		NumMels:          26,
		SilenceRMS:       0.02,
		PitchMin:         65,
		PitchMax:         500,
		VoicingThreshold: 0.10,
		PeakMinDistance:  0.10,
		ContrastBands:    []float64{200, 400, 800, 1600, 3200, 6400, 8000},
	}
}

// Extractor computes feature vectors from audio segments. It precomputes
// the analysis window and mel filterbank once; Extract is safe for
// concurrent use.
type Extractor struct {
	cfg     Config
	fftSize int
	window  []float64
	melFB   [][]float64
}

// NewExtractor builds an Extractor for the given configuration.
func NewExtractor(cfg Config) *Extractor {
	fftSize := dsp.NextPow2(cfg.FrameLength)
	return &Extractor{
		cfg:     cfg,
		fftSize: fftSize,
		window:  dsp.HannWindow(cfg.FrameLength),
		melFB:   dsp.MelFilterbank(cfg.NumMels, fftSize, cfg.SampleRate),
	}
}

// Extract computes the full feature vector for one segment. Every field
// is populated with a finite value regardless of input content.
func (e *Extractor) Extract(seg wave.Segment) *Vector {
	v := &Vector{}

	frames := e.frames(seg.Samples)
	spec := e.spectrogram(frames)

	e.timeDomain(v, frames)
	e.spectral(v, spec)
	e.prosody(v, frames, spec)
	return v
}

// frames slices the segment into overlapping analysis frames. A segment
// shorter than one frame is zero-padded to a single frame.
func (e *Extractor) frames(samples []float64) [][]float64 {
	n := dsp.NumFrames(len(samples), e.cfg.FrameLength, e.cfg.HopLength)
	if n == 0 {
		padded := make([]float64, e.cfg.FrameLength)
		copy(padded, samples)
		return [][]float64{padded}
	}
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		start := i * e.cfg.HopLength
		out[i] = samples[start : start+e.cfg.FrameLength]
	}
	return out
}

// spectrogram computes the magnitude spectrum of every frame.
func (e *Extractor) spectrogram(frames [][]float64) [][]float64 {
	spec := make([][]float64, len(frames))
	fftBuf := make([]complex128, e.fftSize)
	for i, frame := range frames {
		spec[i] = dsp.Spectrum(frame, e.window, fftBuf, nil)
	}
	return spec
}

// binHz returns the center frequency of FFT bin k.
func (e *Extractor) binHz(k int) float64 {
	return float64(k) * float64(e.cfg.SampleRate) / float64(e.fftSize)
}

// hzBin returns the FFT bin index closest to the given frequency.
func (e *Extractor) hzBin(hz float64) int {
	k := int(hz * float64(e.fftSize) / float64(e.cfg.SampleRate))
	half := e.fftSize/2 + 1
	if k < 0 {
		k = 0
	}
	if k >= half {
		k = half - 1
	}
	return k
}

// frameDur returns the hop duration in seconds, i.e. the time step
// between consecutive frames.
func (e *Extractor) frameDur() float64 {
	return float64(e.cfg.HopLength) / float64(e.cfg.SampleRate)
}
