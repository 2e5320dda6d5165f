package features

import "math"

// timeDomain fills the time-domain family: amplitude envelope, RMS
// energy, zero-crossing rate and silence statistics.
func (e *Extractor) timeDomain(v *Vector, frames [][]float64) {
	n := len(frames)
	envelope := make([]float64, n)
	rms := make([]float64, n)
	zcr := make([]float64, n)

	for i, frame := range frames {
		var peak, sumSq float64
		crossings := 0
		for j, s := range frame {
			if a := math.Abs(s); a > peak {
				peak = a
			}
			sumSq += s * s
			if j > 0 && ((frame[j-1] >= 0 && s < 0) || (frame[j-1] < 0 && s >= 0)) {
				crossings++
			}
		}
		envelope[i] = peak
		rms[i] = math.Sqrt(sumSq / float64(len(frame)))
		zcr[i] = float64(crossings) / float64(len(frame)-1)
	}

	v.EnvelopeMean = mean(envelope)
	v.EnvelopeStd = std(envelope)
	v.RMSMean = mean(rms)
	v.RMSStd = std(rms)
	v.ZCRMean = mean(zcr)
	v.ZCRStd = std(zcr)

	// Silence statistics: runs of consecutive frames below the RMS
	// threshold count as one silence event each.
	var durations []float64
	silentFrames := 0
	run := 0
	flush := func() {
		if run > 0 {
			durations = append(durations, float64(run)*e.frameDur())
			run = 0
		}
	}
	for _, r := range rms {
		if r < e.cfg.SilenceRMS {
			silentFrames++
			run++
		} else {
			flush()
		}
	}
	flush()

	v.SilenceCount = float64(len(durations))
	v.SilenceMeanDur = mean(durations)
	for _, d := range durations {
		v.SilenceTotalDur += d
	}
	v.SilencePercent = 100 * float64(silentFrames) / float64(n)
}
