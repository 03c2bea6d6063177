package captcha

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestNewOrchestrator_NilRandGetsDefault(t *testing.T) {
	o := NewOrchestrator(nil, 3, time.Millisecond, nil)
	if o.Rand == nil {
		t.Fatal("expected a non-nil default *rand.Rand")
	}
}

func TestNewOrchestrator_PreservesInjectedRand(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	o := NewOrchestrator(nil, 3, time.Millisecond, r)
	if o.Rand != r {
		t.Fatal("expected injected *rand.Rand to be preserved")
	}
}

func TestNewOrchestrator_StoresAttemptSettings(t *testing.T) {
	o := NewOrchestrator(nil, 5, 200*time.Millisecond, nil)
	if o.MaxAttempts != 5 {
		t.Errorf("got MaxAttempts %d, want 5", o.MaxAttempts)
	}
	if o.AttemptBackoff != 200*time.Millisecond {
		t.Errorf("got AttemptBackoff %v, want 200ms", o.AttemptBackoff)
	}
}

// solvers is a package-level map keyed by Type; this guards against a
// future Type addition to the detection probe that forgets to register a
// matching solver, which would silently fall into the "unsupported" path.
func TestSolvers_CoverEveryDetectableTypeExceptUnknown(t *testing.T) {
	known := []Type{
		TypeRecaptchaV2,
		TypeHCaptcha,
		TypeCloudflareTurnstile,
		TypeCloudflareInterstitial,
		TypeSlider,
		TypeImageGrid,
		TypeRecaptchaImage,
		TypeTextCaptcha,
	}
	for _, typ := range known {
		if _, ok := solvers[typ]; !ok {
			t.Errorf("no solver registered for %q", typ)
		}
	}
}
