// Package scales maps class probabilities and the aggregate wellness
// score onto four standardized clinical rating scales: PHQ-9, GAD-7,
// PSS and WEMWBS.
//
// The mapping is a pure, deterministic function. The resulting numbers
// are screening estimates derived from voice analysis, not administered
// questionnaires, and must be presented as such.
package scales

import (
	"fmt"
	"math"

	"github.com/voicelens/voicelens/pkg/classify"
)

// Score is one mapped scale value with its severity band.
type Score struct {
	Scale    string  `json:"scale"`
	Value    float64 `json:"value"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Severity string  `json:"severity"`
}

// Scores holds the four mapped scales.
type Scores struct {
	PHQ9   Score `json:"phq9"`
	GAD7   Score `json:"gad7"`
	PSS    Score `json:"pss"`
	WEMWBS Score `json:"wemwbs"`
}

// Map derives the four scale scores from class probabilities and the
// 0-100 mental health score.
func Map(p classify.Probs, mentalHealthScore float64) Scores {
	phq9 := math.Floor(p[classify.ClassDepression] * 27)
	gad7 := math.Floor(p[classify.ClassAnxiety] * 21)
	pss := math.Floor(p[classify.ClassStress] * 40)
	wemwbs := math.Floor(14 + mentalHealthScore/100*56)

	return Scores{
		PHQ9:   Score{Scale: "PHQ-9", Value: phq9, Min: 0, Max: 27, Severity: phq9Severity(phq9)},
		GAD7:   Score{Scale: "GAD-7", Value: gad7, Min: 0, Max: 21, Severity: gad7Severity(gad7)},
		PSS:    Score{Scale: "PSS", Value: pss, Min: 0, Max: 40, Severity: pssSeverity(pss)},
		WEMWBS: Score{Scale: "WEMWBS", Value: wemwbs, Min: 14, Max: 70, Severity: wemwbsSeverity(wemwbs)},
	}
}

func phq9Severity(v float64) string {
	switch {
	case v < 5:
		return "minimal"
	case v < 10:
		return "mild"
	case v < 15:
		return "moderate"
	case v < 20:
		return "moderately severe"
	default:
		return "severe"
	}
}

func gad7Severity(v float64) string {
	switch {
	case v < 5:
		return "minimal"
	case v < 10:
		return "mild"
	case v < 15:
		return "moderate"
	default:
		return "severe"
	}
}

func pssSeverity(v float64) string {
	switch {
	case v < 14:
		return "low"
	case v < 27:
		return "moderate"
	default:
		return "high"
	}
}

func wemwbsSeverity(v float64) string {
	switch {
	case v < 40:
		return "low wellbeing"
	case v < 59:
		return "average wellbeing"
	default:
		return "high wellbeing"
	}
}

// Interpretations returns human-readable summaries keyed by scale name.
func Interpretations(s Scores) map[string]string {
	return map[string]string{
		"PHQ-9": fmt.Sprintf("Estimated depression screening score %.0f/27 (%s). Voice-derived estimate, not a diagnosis.",
			s.PHQ9.Value, s.PHQ9.Severity),
		"GAD-7": fmt.Sprintf("Estimated anxiety screening score %.0f/21 (%s). Voice-derived estimate, not a diagnosis.",
			s.GAD7.Value, s.GAD7.Severity),
		"PSS": fmt.Sprintf("Estimated perceived stress score %.0f/40 (%s stress).",
			s.PSS.Value, s.PSS.Severity),
		"WEMWBS": fmt.Sprintf("Estimated mental wellbeing score %.0f/70 (%s).",
			s.WEMWBS.Value, s.WEMWBS.Severity),
	}
}
