package recorder

import (
	"testing"

	"github.com/use-agent/ccbrowser/models"
)

func TestNormalizeSteps_DedupesConsecutiveNavigate(t *testing.T) {
	in := []models.Step{
		{Type: models.StepNavigate, URL: "https://example.com/dashboard"},
		{Type: models.StepNavigate, URL: "https://example.com/dashboard"},
		{Type: models.StepClick},
		{Type: models.StepNavigate, URL: "https://example.com/dashboard/"},
	}
	out := normalizeSteps(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 steps after dedup, got %d: %+v", len(out), out)
	}
	if out[0].Type != models.StepNavigate || out[1].Type != models.StepClick || out[2].Type != models.StepNavigate {
		t.Errorf("unexpected step order: %+v", out)
	}
}

func TestNormalizeSteps_IdempotentUnderSecondPass(t *testing.T) {
	in := []models.Step{
		{Type: models.StepNavigate, URL: "https://a.test"},
		{Type: models.StepNavigate, URL: "https://a.test"},
	}
	once := normalizeSteps(in)
	twice := normalizeSteps(once)
	if len(once) != len(twice) {
		t.Fatalf("normalizeSteps not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestStepFromRaw(t *testing.T) {
	cases := []struct {
		in       rawEvent
		wantType models.StepType
		wantOK   bool
	}{
		{rawEvent{Type: "click"}, models.StepClick, true},
		{rawEvent{Type: "type", Value: "abc"}, models.StepTypeAction, true},
		{rawEvent{Type: "select", Value: "opt2"}, models.StepSelect, true},
		{rawEvent{Type: "keypress", Key: "Enter"}, models.StepKeypress, true},
		{rawEvent{Type: "scroll", ScrollX: 10, ScrollY: 20}, models.StepScroll, true},
		{rawEvent{Type: "mouseover"}, "", false},
	}
	for _, c := range cases {
		step, ok := stepFromRaw(c.in)
		if ok != c.wantOK {
			t.Fatalf("stepFromRaw(%+v) ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if ok && step.Type != c.wantType {
			t.Errorf("stepFromRaw(%+v).Type = %q, want %q", c.in, step.Type, c.wantType)
		}
	}
}

func TestSameURL_IgnoresTrailingSlash(t *testing.T) {
	if !sameURL("https://example.com/x", "https://example.com/x/") {
		t.Error("expected trailing-slash variants to be treated as the same URL")
	}
	if sameURL("https://example.com/x", "https://example.com/y") {
		t.Error("expected different paths to differ")
	}
}

func TestRecorder_StatusWhenIdle(t *testing.T) {
	r := New()
	s := r.Status()
	if s.Active || s.Steps != 0 {
		t.Errorf("expected idle status, got %+v", s)
	}
}
