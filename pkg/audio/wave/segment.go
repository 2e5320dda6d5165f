package wave

// SegmentConfig controls how a validated recording is split into
// analysis windows.
type SegmentConfig struct {
	// Length is the window length in seconds.
	Length float64

	// Overlap is the fraction of each window shared with the next,
	// in [0, 1). 0.5 means 50% overlap.
	Overlap float64

	// EnergyFloor is the minimum mean-square energy for a window to be
	// kept. Windows below it are treated as silence and dropped.
	EnergyFloor float64
}

// DefaultSegmentConfig returns the standard 5s / 50% overlap windowing.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		Length:      5.0,
		Overlap:     0.5,
		EnergyFloor: 1e-5,
	}
}

// Segment is one analysis window of a recording.
type Segment struct {
	Samples    []float64
	SampleRate int
}

// Split cuts the buffer into overlapping fixed-length segments,
// dropping windows whose energy falls below the configured floor.
// A recording shorter than one window yields a single zero-padded
// segment. If every window is below the floor the first window is kept
// so the caller always has at least one segment to featurize.
func Split(buf *Buffer, cfg SegmentConfig) []Segment {
	winLen := int(cfg.Length * float64(buf.SampleRate))
	if winLen <= 0 {
		winLen = 1
	}

	if len(buf.Samples) < winLen {
		padded := make([]float64, winLen)
		copy(padded, buf.Samples)
		return []Segment{{Samples: padded, SampleRate: buf.SampleRate}}
	}

	hop := int(float64(winLen) * (1 - cfg.Overlap))
	if hop < 1 {
		hop = 1
	}

	var segs []Segment
	var first []float64
	for start := 0; start+winLen <= len(buf.Samples); start += hop {
		win := buf.Samples[start : start+winLen]
		if first == nil {
			first = win
		}
		if meanSquare(win) < cfg.EnergyFloor {
			continue
		}
		segs = append(segs, Segment{Samples: win, SampleRate: buf.SampleRate})
	}
	if len(segs) == 0 {
		segs = append(segs, Segment{Samples: first, SampleRate: buf.SampleRate})
	}
	return segs
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}
