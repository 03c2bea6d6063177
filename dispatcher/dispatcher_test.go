package dispatcher

import (
	"errors"
	"testing"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

func TestIsHumanMode(t *testing.T) {
	cases := map[models.Mode]bool{
		models.ModeHuman:   true,
		models.ModeStealth: true,
		models.ModeFast:    false,
	}
	for mode, want := range cases {
		if got := isHumanMode(mode); got != want {
			t.Errorf("isHumanMode(%q) = %v, want %v", mode, got, want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://example.com/path/":     "https://example.com/path",
		"https://example.com/path#frag": "https://example.com/path",
		"https://example.com/path":      "https://example.com/path",
		"https://example.com/#top":      "https://example.com/",
	}
	for in, want := range cases {
		if got := normalizeURL(in); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranslateLocatorError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil passes through", nil, ""},
		{"timeout", errors.New("context deadline exceeded"), ccerrors.CodeTimeout},
		{"not found", errors.New("could not find element"), ccerrors.CodeTimeout},
		{"detached", errors.New("element is detached from document"), ccerrors.CodeDetachedElement},
		{"multiple", errors.New("multiple elements matched"), ccerrors.CodeMultipleMatches},
		{"unknown defaults to timeout", errors.New("some other rod error"), ccerrors.CodeTimeout},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := translateLocatorError(c.err)
			if c.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			var de *ccerrors.DaemonError
			if !errors.As(got, &de) {
				t.Fatalf("expected a *ccerrors.DaemonError, got %T", got)
			}
			if de.Code != c.wantCode {
				t.Errorf("expected code %q, got %q", c.wantCode, de.Code)
			}
		})
	}
}
