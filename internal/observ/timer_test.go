package observ

import (
	"strings"
	"testing"
)

func TestTimer_Report(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("decode")
	tm.End(a, "")
	b := tm.Begin("lower")
	tm.End(b, "3 funcs")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0].Name != "decode" || r.Phases[1].Note != "3 funcs" {
		t.Errorf("report = %+v", r)
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Errorf("total %f below phase %f", r.TotalMS, r.Phases[0].DurationMS)
	}

	s := tm.Summary()
	for _, want := range []string{"decode", "lower", "// 3 funcs", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestTimer_EndOutOfRange(t *testing.T) {
	tm := NewTimer()
	if d := tm.End(3, "x"); d != 0 {
		t.Errorf("End(3) = %v", d)
	}
	if r := tm.Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Errorf("empty report = %+v", r)
	}
}
