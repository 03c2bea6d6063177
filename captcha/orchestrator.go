package captcha

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/vision"
)

// Orchestrator drives Detect + Solve with retry, per spec.md §4.6.
type Orchestrator struct {
	Vision         *vision.Client
	MaxAttempts    int
	AttemptBackoff time.Duration
	Rand           *rand.Rand
}

// NewOrchestrator creates an Orchestrator. If rng is nil, a process-default
// source is used (non-deterministic — fine outside of tests, which inject
// their own *rand.Rand).
func NewOrchestrator(visionClient *vision.Client, maxAttempts int, backoff time.Duration, rng *rand.Rand) *Orchestrator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Orchestrator{Vision: visionClient, MaxAttempts: maxAttempts, AttemptBackoff: backoff, Rand: rng}
}

// Solve detects the CAPTCHA on page and attempts to solve it, retrying up
// to MaxAttempts times with linear backoff (attempt*AttemptBackoff). An
// unsupported/unknown type returns {solved:false, type, attempts:1}
// immediately with no retry (spec.md §8 scenario 6).
func (o *Orchestrator) Solve(ctx context.Context, page *rod.Page) (*SolveResult, error) {
	d, err := DetectTiered(ctx, page, o.Vision)
	if err != nil {
		return nil, err
	}
	if !d.Detected {
		return &SolveResult{Solved: false}, nil
	}

	solver, ok := solvers[d.Type]
	if !ok {
		return &SolveResult{Solved: false, Type: d.Type, Attempts: 1, Detail: "unsupported captcha type"}, nil
	}

	var lastResult *SolveResult
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		result, err := solver(ctx, page, o.Vision, d, o.Rand)
		if err != nil {
			slog.Warn("captcha: solve attempt errored", "type", d.Type, "attempt", attempt, "error", err)
			if attempt == o.MaxAttempts {
				return nil, ccerrors.New(ccerrors.CodeVisionBackendError, fmt.Sprintf("captcha solve attempt %d errored", attempt), err)
			}
			lastResult = &SolveResult{Solved: false, Type: d.Type, Detail: err.Error()}
		} else if result.Solved {
			result.Attempts = attempt
			return result, nil
		} else {
			slog.Warn("captcha: solve attempt failed", "type", d.Type, "attempt", attempt, "detail", result.Detail)
			lastResult = result
		}

		if attempt < o.MaxAttempts {
			time.Sleep(time.Duration(attempt) * o.AttemptBackoff)

			// Re-probe in case the page state changed between attempts
			// (e.g. the widget re-rendered after a failed click).
			if redetected, err := Detect(ctx, page); err == nil && redetected.Detected {
				d = redetected
			}
		}
	}

	lastResult.Attempts = o.MaxAttempts
	return lastResult, nil
}
