package pagestate

import (
	"testing"

	"github.com/use-agent/ccbrowser/models"
)

func TestResolveDescriptor_AriaModeReturnsAriaRef(t *testing.T) {
	desc := models.ElementDescriptor{Role: "button", Name: "Submit", Nth: 2, Mode: models.RefModeAria, FrameSelector: "iframe#x"}
	got := ResolveDescriptor("e3", desc)
	if got.AriaRef != "e3" {
		t.Errorf("got AriaRef %q, want e3", got.AriaRef)
	}
	if got.FrameSelector != "iframe#x" {
		t.Errorf("got FrameSelector %q, want iframe#x", got.FrameSelector)
	}
	// Aria mode must still carry the same role/name/nth scoping a role-mode
	// ref does: there is no native aria-ref primitive to fall back to, and
	// an unqualified selector would resolve every ref on the page to the
	// same element.
	if got.Selector != roleSelectors["button"] {
		t.Errorf("got selector %q, want the button selector group", got.Selector)
	}
	if got.Name != "Submit" || got.Nth != 2 {
		t.Errorf("got Name=%q Nth=%d, want Submit/2", got.Name, got.Nth)
	}
}

func TestResolveDescriptor_RoleModeUsesKnownSelector(t *testing.T) {
	desc := models.ElementDescriptor{Role: "button", Name: "Submit", Nth: 1, Mode: models.RefModeRole}
	got := ResolveDescriptor("e1", desc)
	if got.Selector != roleSelectors["button"] {
		t.Errorf("got selector %q, want the button selector group", got.Selector)
	}
	if got.Name != "Submit" || got.Nth != 1 {
		t.Errorf("got Name=%q Nth=%d, want Submit/1", got.Name, got.Nth)
	}
}

func TestResolveDescriptor_UnknownRoleFallsBackToAttributeSelector(t *testing.T) {
	desc := models.ElementDescriptor{Role: "tab", Mode: models.RefModeRole}
	got := ResolveDescriptor("e2", desc)
	if got.Selector != "[role='tab']" {
		t.Errorf("got selector %q, want [role='tab']", got.Selector)
	}
}
