// Package replayer implements the Replayer (spec.md §4.9): it walks a
// recorded step list, resolving each step's locator against the live page
// and performing the action, halting on a fatal navigation mismatch.
//
// Grounded on the teacher's scraper/actions.go dispatch-per-action-type
// shape, generalized from "one action" to "an ordered list of actions with
// a fatal-abort condition," since the teacher never replays a script.
package replayer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/models"
	"github.com/use-agent/ccbrowser/pagestate"
)

const (
	defaultLocatorTimeout = 8 * time.Second
	navigateTimeout       = 30 * time.Second
	networkIdleTimeout    = 5 * time.Second
	domContentTimeout     = 5 * time.Second
	fastStepDelay         = 100 * time.Millisecond
)

// keypressKeys is the small named-key set recorded steps use (spec.md
// §4.8: keydown capture is limited to Enter/Escape/Tab).
var keypressKeys = map[string]input.Key{
	"Enter":  input.Enter,
	"Escape": input.Escape,
	"Tab":    input.Tab,
}

// fatalNavigateError marks a navigate step that must abort the replay
// (spec.md §4.9: goto error or actual-vs-expected pathname mismatch).
type fatalNavigateError struct{ err error }

func (e *fatalNavigateError) Error() string { return e.err.Error() }
func (e *fatalNavigateError) Unwrap() error { return e.err }

// Replayer replays recordings against a live page. daemon.New builds one
// Replayer that serves every replay call; it holds nothing but the RNG used
// for human-mode inter-step delays.
type Replayer struct {
	Rand *rand.Rand
}

// New creates a Replayer. rng may be nil outside of tests.
func New(rng *rand.Rand) *Replayer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Replayer{Rand: rng}
}

// Replay walks rec.Steps in order against page, stopping immediately after
// a fatal step (spec.md §8 scenario 4).
func (rp *Replayer) Replay(ctx context.Context, page *rod.Page, rec *models.Recording, mode models.Mode) (*models.ReplaySummary, error) {
	summary := &models.ReplaySummary{}

	for i, step := range rec.Steps {
		select {
		case <-ctx.Done():
			summary.Aborted = true
			return summary, nil
		default:
		}

		_ = page.Context(ctx).Timeout(domContentTimeout).WaitDOMStable(300*time.Millisecond, 0.1)

		result := models.StepResult{Index: i, Type: step.Type}
		err := rp.replayStep(ctx, page, step)
		if err != nil {
			result.Passed = false
			result.Message = err.Error()
			var fatal *fatalNavigateError
			if errors.As(err, &fatal) {
				result.Fatal = true
				summary.Results = append(summary.Results, result)
				summary.Failed++
				summary.Aborted = true
				return summary, nil
			}
			summary.Failed++
		} else {
			result.Passed = true
			summary.Passed++
		}
		summary.Results = append(summary.Results, result)

		if i < len(rec.Steps)-1 {
			sleepStep(ctx, mode, rp.Rand)
		}
	}

	return summary, nil
}

func sleepStep(ctx context.Context, mode models.Mode, r *rand.Rand) {
	d := fastStepDelay
	if mode == models.ModeHuman || mode == models.ModeStealth {
		d = time.Duration(humanmode.ReplayStepDelay(r)) * time.Millisecond
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (rp *Replayer) replayStep(ctx context.Context, page *rod.Page, step models.Step) error {
	switch step.Type {
	case models.StepNavigate:
		return replayNavigate(ctx, page, step)
	case models.StepClick:
		el, err := resolveLocators(ctx, page, step.Locators, defaultLocatorTimeout)
		if err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	case models.StepTypeAction:
		el, err := resolveLocators(ctx, page, step.Locators, defaultLocatorTimeout)
		if err != nil {
			return err
		}
		return el.Input(step.Value)
	case models.StepSelect:
		el, err := resolveLocators(ctx, page, step.Locators, defaultLocatorTimeout)
		if err != nil {
			return err
		}
		return selectValue(el, step.Value)
	case models.StepKeypress:
		return replayKeypress(ctx, page, step)
	case models.StepScroll:
		_, err := page.Context(ctx).Eval(fmt.Sprintf(`() => window.scrollTo(%d, %d)`, step.ScrollX, step.ScrollY))
		return err
	default:
		return ccerrors.New(ccerrors.CodeInvalidInput, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}
}

// replayNavigate implements spec.md §4.9's navigate step exactly: goto,
// best-effort networkidle wait, actual-URL re-read with one retry, and a
// fatal pathname-mismatch check.
func replayNavigate(ctx context.Context, page *rod.Page, step models.Step) error {
	p := page.Context(ctx).Timeout(navigateTimeout)
	if err := p.Navigate(step.URL); err != nil {
		return &fatalNavigateError{err: fmt.Errorf("navigate to %q failed: %w", step.URL, err)}
	}
	_ = p.WaitLoad()

	idleDone := make(chan struct{})
	go func() {
		page.Context(ctx).WaitRequestIdle(300*time.Millisecond, nil, nil, nil)()
		close(idleDone)
	}()
	select {
	case <-idleDone:
	case <-time.After(networkIdleTimeout):
	}

	actualURL := evalString(page.Context(ctx), `() => window.location.href`)
	if actualURL == "" {
		time.Sleep(500 * time.Millisecond)
		actualURL = evalString(page.Context(ctx), `() => window.location.href`)
	}

	expected, eerr := url.Parse(step.URL)
	actual, aerr := url.Parse(actualURL)
	if eerr == nil && aerr == nil && expected.Path != actual.Path {
		return &fatalNavigateError{err: fmt.Errorf("navigated to %q (path %q), expected path %q", actualURL, actual.Path, expected.Path)}
	}
	return nil
}

func replayKeypress(ctx context.Context, page *rod.Page, step models.Step) error {
	key, ok := keypressKeys[step.Key]
	if !ok {
		return ccerrors.New(ccerrors.CodeInvalidInput, fmt.Sprintf("unsupported keypress %q", step.Key), nil)
	}
	if len(step.Locators) > 0 {
		if el, err := resolveLocators(ctx, page, step.Locators, defaultLocatorTimeout); err == nil {
			return el.Type(key)
		}
	}
	return page.Context(ctx).Keyboard.Type(key)
}

// selectValue picks the option matching value by visible text first (the
// common case where the recorded value and the option's label coincide),
// falling back to an attribute selector against the option's value.
func selectValue(el *rod.Element, value string) error {
	if err := el.Select([]string{value}, true, rod.SelectorTypeText); err == nil {
		return err
	}
	return el.Select([]string{fmt.Sprintf("option[value=%q]", value)}, true, rod.SelectorTypeCSSSector)
}

func evalString(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// resolveLocators tries each locator strategy in order, retrying the whole
// list until one resolves a visible element or the timeout elapses
// (spec.md §4.9 "the first that succeeds wins").
func resolveLocators(ctx context.Context, page *rod.Page, locators []models.Locator, timeout time.Duration) (*rod.Element, error) {
	if len(locators) == 0 {
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "step has no locators to resolve", nil)
	}

	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		for _, loc := range locators {
			el, err := tryLocator(ctx, page, loc)
			if err != nil {
				lastErr = err
				continue
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				remaining = time.Millisecond
			}
			if verr := el.Context(ctx).Timeout(remaining).WaitVisible(); verr != nil {
				lastErr = verr
				continue
			}
			return el, nil
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(150 * time.Millisecond)
	}
	return nil, ccerrors.New(ccerrors.CodeTimeout, "no locator resolved within the timeout", lastErr)
}

func tryLocator(ctx context.Context, page *rod.Page, loc models.Locator) (*rod.Element, error) {
	p := page.Context(ctx)
	switch loc.Strategy {
	case models.LocatorRole:
		return elementByRole(p, loc.Role, loc.Name)
	case models.LocatorText:
		return p.ElementR("*", loc.Text)
	case models.LocatorSelector:
		return p.Element(loc.Selector)
	case models.LocatorCSSPath:
		return p.Element(loc.Path)
	default:
		return nil, fmt.Errorf("unknown locator strategy %q", loc.Strategy)
	}
}

func elementByRole(p *rod.Page, role, name string) (*rod.Element, error) {
	els, err := p.Elements(pagestate.SelectorForRole(role))
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("no element matches role %q", role)
	}
	if name == "" {
		return els[0], nil
	}
	needle := strings.ToLower(name)
	for _, el := range els {
		text, _ := el.Text()
		if strings.Contains(strings.ToLower(text), needle) {
			return el, nil
		}
	}
	return nil, fmt.Errorf("no element with role %q matches name %q", role, name)
}
