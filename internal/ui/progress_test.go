package ui

import (
	"errors"
	"strings"
	"testing"

	"ebbc/internal/pipeline"
)

func newModel() *progressModel {
	return NewProgressModel("lower prog.json", make(chan pipeline.Event)).(*progressModel)
}

func TestApplyEvent_TracksFunctions(t *testing.T) {
	m := newModel()
	m.applyEvent(pipeline.Event{Func: "main@0", Stage: pipeline.StageLower, Status: pipeline.StatusQueued})
	m.applyEvent(pipeline.Event{Func: "f@1", Stage: pipeline.StageLower, Status: pipeline.StatusQueued})
	m.applyEvent(pipeline.Event{Func: "main@0", Stage: pipeline.StageLower, Status: pipeline.StatusDone})
	m.applyEvent(pipeline.Event{Func: "f@1", Stage: pipeline.StageLower, Status: pipeline.StatusWorking})

	if len(m.funcs) != 2 {
		t.Fatalf("funcs = %d, want 2", len(m.funcs))
	}
	if m.funcs[0].status != pipeline.StatusDone || m.funcs[1].status != pipeline.StatusWorking {
		t.Errorf("statuses = %+v", m.funcs)
	}
	if got := m.percent(); got != 0.75 {
		t.Errorf("percent = %v, want 0.75", got)
	}

	view := m.View()
	for _, want := range []string{"main@0", "f@1", "lower prog.json"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestApplyEvent_StageAndFailure(t *testing.T) {
	m := newModel()
	m.applyEvent(pipeline.Event{Stage: pipeline.StageDecode, Status: pipeline.StatusDone})
	if m.stageLabel != "decode done" {
		t.Errorf("stage label = %q", m.stageLabel)
	}
	m.applyEvent(pipeline.Event{Func: "g@2", Stage: pipeline.StageLower, Status: pipeline.StatusError, Err: errors.New("boom")})
	if !m.failed {
		t.Error("failure not recorded")
	}
	m.done = true
	if !strings.Contains(m.View(), "failed:") {
		t.Errorf("view = %q", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a_very_long_function_name", 10); got != "a_ve..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Errorf("truncate = %q", got)
	}
}
