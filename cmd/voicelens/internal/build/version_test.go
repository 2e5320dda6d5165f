package build

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "dev", "", ""
	if s := String(); !strings.HasPrefix(s, "voicelens dev") || strings.Contains(s, "(") {
		t.Errorf("dev build String() = %q", s)
	}

	Version, Commit, Date = "v0.3.0", "abc1234", "2026-08-29T00:00:00Z"
	s := String()
	for _, want := range []string{"voicelens v0.3.0", "+abc1234", "(2026-08-29T00:00:00Z)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
