package scales_test

import (
	"strings"
	"testing"

	"github.com/voicelens/voicelens/pkg/classify"
	"github.com/voicelens/voicelens/pkg/scales"
)

func TestMapValues(t *testing.T) {
	p := classify.Probs{0.4, 0.2, 0.3, 0.1}
	s := scales.Map(p, 60)

	if s.PHQ9.Value != 8 { // floor(0.3 * 27)
		t.Errorf("PHQ9 = %f, want 8", s.PHQ9.Value)
	}
	if s.GAD7.Value != 4 { // floor(0.2 * 21)
		t.Errorf("GAD7 = %f, want 4", s.GAD7.Value)
	}
	if s.PSS.Value != 4 { // floor(0.1 * 40)
		t.Errorf("PSS = %f, want 4", s.PSS.Value)
	}
	if s.WEMWBS.Value != 47 { // floor(14 + 0.6*56)
		t.Errorf("WEMWBS = %f, want 47", s.WEMWBS.Value)
	}
}

func TestMapRanges(t *testing.T) {
	extremes := []struct {
		p   classify.Probs
		mhs float64
	}{
		{classify.Probs{1, 0, 0, 0}, 100},
		{classify.Probs{0, 1, 0, 0}, 0},
		{classify.Probs{0, 0, 1, 0}, 0},
		{classify.Probs{0, 0, 0, 1}, 0},
	}
	for _, e := range extremes {
		s := scales.Map(e.p, e.mhs)
		for _, sc := range []scales.Score{s.PHQ9, s.GAD7, s.PSS, s.WEMWBS} {
			if sc.Value < sc.Min || sc.Value > sc.Max {
				t.Errorf("%s = %f outside [%f, %f]", sc.Scale, sc.Value, sc.Min, sc.Max)
			}
		}
	}
}

func TestMapDeterministic(t *testing.T) {
	p := classify.Probs{0.25, 0.25, 0.25, 0.25}
	a := scales.Map(p, 50)
	b := scales.Map(p, 50)
	if a != b {
		t.Errorf("same input produced different scores: %+v vs %+v", a, b)
	}
}

func TestSeverityBands(t *testing.T) {
	// High depression probability lands in a non-minimal PHQ-9 band.
	s := scales.Map(classify.Probs{0.1, 0.1, 0.7, 0.1}, 20)
	if s.PHQ9.Severity == "minimal" {
		t.Errorf("PHQ9 %f rated minimal", s.PHQ9.Value)
	}
	// Near-zero distress lands in the lowest bands.
	s = scales.Map(classify.Probs{0.85, 0.05, 0.05, 0.05}, 90)
	if s.PHQ9.Severity != "minimal" {
		t.Errorf("PHQ9 severity = %q, want minimal", s.PHQ9.Severity)
	}
	if s.GAD7.Severity != "minimal" {
		t.Errorf("GAD7 severity = %q, want minimal", s.GAD7.Severity)
	}
	if s.PSS.Severity != "low" {
		t.Errorf("PSS severity = %q, want low", s.PSS.Severity)
	}
	if s.WEMWBS.Severity != "high wellbeing" {
		t.Errorf("WEMWBS severity = %q, want high wellbeing", s.WEMWBS.Severity)
	}
}

func TestInterpretations(t *testing.T) {
	s := scales.Map(classify.Probs{0.4, 0.2, 0.3, 0.1}, 60)
	interp := scales.Interpretations(s)
	for _, scale := range []string{"PHQ-9", "GAD-7", "PSS", "WEMWBS"} {
		if interp[scale] == "" {
			t.Errorf("missing interpretation for %s", scale)
		}
	}
	// Depression and anxiety estimates must carry the non-diagnosis note.
	for _, scale := range []string{"PHQ-9", "GAD-7"} {
		if !strings.Contains(interp[scale], "not a diagnosis") {
			t.Errorf("%s interpretation lacks the non-diagnosis note: %q", scale, interp[scale])
		}
	}
}
