package replayer

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/use-agent/ccbrowser/models"
)

func TestFatalNavigateError_UnwrapsAndFormats(t *testing.T) {
	inner := errors.New("boom")
	err := &fatalNavigateError{err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected fatalNavigateError to unwrap to its inner error")
	}
	if err.Error() != "boom" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSleepStep_FastModeUsesFixedDelay(t *testing.T) {
	start := time.Now()
	sleepStep(context.Background(), models.ModeFast, rand.New(rand.NewPCG(1, 2)))
	elapsed := time.Since(start)
	if elapsed < fastStepDelay {
		t.Errorf("expected at least %v, got %v", fastStepDelay, elapsed)
	}
	if elapsed > fastStepDelay+50*time.Millisecond {
		t.Errorf("fast step delay ran too long: %v", elapsed)
	}
}

func TestSleepStep_HumanModeStaysWithinReplayBounds(t *testing.T) {
	start := time.Now()
	sleepStep(context.Background(), models.ModeHuman, rand.New(rand.NewPCG(3, 4)))
	elapsed := time.Since(start)
	if elapsed < 400*time.Millisecond {
		t.Errorf("expected at least 400ms, got %v", elapsed)
	}
	if elapsed > 950*time.Millisecond {
		t.Errorf("human step delay exceeded replay bounds: %v", elapsed)
	}
}

func TestSleepStep_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleepStep(ctx, models.ModeHuman, rand.New(rand.NewPCG(5, 6)))
	if time.Since(start) > 50*time.Millisecond {
		t.Error("expected sleepStep to return immediately on a cancelled context")
	}
}

func TestReplayStep_RejectsUnknownStepType(t *testing.T) {
	rp := New(rand.New(rand.NewPCG(1, 1)))
	err := rp.replayStep(context.Background(), nil, models.Step{Type: models.StepType("mouseover")})
	if err == nil {
		t.Fatal("expected an error for an unknown step type")
	}
}

func TestReplayKeypress_RejectsUnsupportedKey(t *testing.T) {
	err := replayKeypress(context.Background(), nil, models.Step{Type: models.StepKeypress, Key: "F5"})
	if err == nil {
		t.Fatal("expected an error for an unsupported keypress key")
	}
}

func TestResolveLocators_RejectsEmptyLocatorList(t *testing.T) {
	_, err := resolveLocators(context.Background(), nil, nil, time.Second)
	if err == nil {
		t.Fatal("expected an error when a step carries no locators")
	}
}
