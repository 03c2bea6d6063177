package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/vision"
)

// SolveResult is returned by every solver (spec.md §4.6).
type SolveResult struct {
	Solved   bool   `json:"solved"`
	Type     Type   `json:"type"`
	Attempts int    `json:"attempts,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Solver solves one detected CAPTCHA on page.
type Solver func(ctx context.Context, page *rod.Page, visionClient *vision.Client, d *Detection, rng *rand.Rand) (*SolveResult, error)

// solvers maps each supported Type to its solving strategy (spec.md §4.6).
var solvers = map[Type]Solver{
	TypeRecaptchaV2:           solveCheckboxFrame,
	TypeHCaptcha:               solveCheckboxFrame,
	TypeCloudflareTurnstile:    solveCheckboxFrame,
	TypeCloudflareInterstitial: solveWaitForInterstitial,
	TypeSlider:                 solveSlider,
	TypeImageGrid:              solveImageGrid,
	TypeRecaptchaImage:         solveImageGrid,
	TypeTextCaptcha:            solveTextCaptcha,
}

// responseTokenSelector names the hidden form field a checkbox-style widget
// fills once it issues a passing token (spec.md §4.6: "wait for the hidden
// response token to become non-empty").
func responseTokenSelector(t Type) string {
	switch t {
	case TypeRecaptchaV2:
		return "#g-recaptcha-response, textarea[name='g-recaptcha-response']"
	case TypeHCaptcha:
		return "textarea[name='h-captcha-response'], [name='h-captcha-response']"
	case TypeCloudflareTurnstile:
		return "input[name='cf-turnstile-response']"
	default:
		return ""
	}
}

// waitForTokenOrTitleChange polls up to timeout for either tokenSelector's
// value to become non-empty or the page title to change from what it was
// at call time (spec.md §4.6). Turnstile in particular may resolve with no
// observable DOM change besides the title flipping off "Just a moment…".
func waitForTokenOrTitleChange(ctx context.Context, page *rod.Page, tokenSelector string, timeout time.Duration) bool {
	initialTitle := ""
	if info, err := page.Info(); err == nil {
		initialTitle = info.Title
	}
	deadline := time.Now().Add(timeout)
	for {
		if tokenSelector != "" {
			if el, err := page.Context(ctx).Timeout(time.Second).Element(tokenSelector); err == nil {
				if val, err := el.Eval(`() => this.value`); err == nil && val.Value.Str() != "" {
					return true
				}
			}
		}
		if info, err := page.Info(); err == nil && info.Title != initialTitle {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(300 * time.Millisecond)
	}
}

// solveCheckboxFrame clicks the checkbox inside a recaptcha_v2/hcaptcha/
// turnstile iframe — the "I'm not a robot" style widgets, which usually
// only require a single human-like click (spec.md §4.6) — then waits for
// the hidden response token to fill in (or the title to change) before
// declaring success; a click with no confirming token is not a solve.
func solveCheckboxFrame(ctx context.Context, page *rod.Page, _ *vision.Client, d *Detection, rng *rand.Rand) (*SolveResult, error) {
	el, err := page.Context(ctx).Timeout(5 * time.Second).Element(d.Selector)
	if err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "widget iframe not found"}, nil
	}
	frame, err := el.Frame()
	if err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "could not enter widget frame"}, nil
	}
	checkbox, err := frame.Context(ctx).Timeout(5 * time.Second).Element("#recaptcha-anchor, .hcaptcha-box, [id*='checkbox']")
	if err != nil {
		if d.Type != TypeCloudflareTurnstile {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "checkbox not found inside widget"}, nil
		}
		// Turnstile frequently auto-resolves with no visible checkbox;
		// the click itself is best-effort per spec.md §4.6, so fall
		// through to the token/title wait instead of failing here.
	} else {
		// A ClickOffset is drawn from rng but not applied: Element.Click
		// lands on the checkbox's center.
		_, _ = humanmode.ClickOffset(rng)
		if err := checkbox.Click(proto.InputMouseButtonLeft, 1); err != nil && d.Type != TypeCloudflareTurnstile {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "click failed"}, nil
		}
	}

	if waitForTokenOrTitleChange(ctx, page, responseTokenSelector(d.Type), 10*time.Second) {
		return &SolveResult{Solved: true, Type: d.Type}, nil
	}
	return &SolveResult{Solved: false, Type: d.Type, Detail: "response token never became non-empty"}, nil
}

// solveWaitForInterstitial waits out a Cloudflare "checking your browser"
// interstitial, which self-dismisses once its own JS challenge completes:
// it polls until the challenge markup is gone and the title no longer
// reads "Just a moment".
func solveWaitForInterstitial(ctx context.Context, page *rod.Page, _ *vision.Client, d *Detection, _ *rand.Rand) (*SolveResult, error) {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		challenged := false
		if d.Selector != "title" {
			if _, err := page.Context(ctx).Timeout(time.Second).Element(d.Selector); err == nil {
				challenged = true
			}
		}
		if info, err := page.Info(); err == nil && strings.Contains(info.Title, "Just a moment") {
			challenged = true
		}
		if !challenged {
			return &SolveResult{Solved: true, Type: d.Type}, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return &SolveResult{Solved: false, Type: d.Type, Detail: "interstitial did not clear in time"}, nil
}

// sliderSuccessSelector is the marker a slider widget shows once it
// accepts the drop (spec.md §4.6: "verify via a success marker").
const sliderSuccessSelector = "[class*='success'], [class*='solved'], .verify-success, .slider-success"

// maxSliderAdjustments bounds the re-screenshot/adjust loop below; the
// orchestrator's own attempt/backoff loop (spec.md §4.6, §7) is the outer
// retry, this is just the inner fine-tuning a single attempt gets.
const maxSliderAdjustments = 2

// solveSlider asks the vision backend for handle and target pixel
// coordinates, then drags via humanmode.HumanDragPath (spec.md §4.6). If no
// success marker appears after the drag, it re-screenshots and asks the
// vision backend whether the puzzle solved and, if not, how many pixels to
// adjust by, repeating the nudge up to maxSliderAdjustments times.
func solveSlider(ctx context.Context, page *rod.Page, visionClient *vision.Client, d *Detection, rng *rand.Rand) (*SolveResult, error) {
	if visionClient == nil {
		return nil, ccerrors.New(ccerrors.CodeVisionBackendError, "no vision backend configured for slider solving", nil)
	}

	png, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, err
	}

	raw, err := visionClient.Analyze(ctx, png, sliderPrompt)
	if err != nil {
		return nil, err
	}

	var coords struct {
		HandleX, HandleY float64
		TargetX, TargetY float64
	}
	if err := json.Unmarshal([]byte(vision.StripJSONFence(raw)), &coords); err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "vision backend returned unparsable coordinates"}, nil
	}

	path := humanmode.HumanDragPath(rng, coords.HandleX, coords.HandleY, coords.TargetX, coords.TargetY)
	if err := dragAlong(page, path); err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "drag failed"}, nil
	}

	for attempt := 0; ; attempt++ {
		if _, err := page.Context(ctx).Timeout(2 * time.Second).Element(sliderSuccessSelector); err == nil {
			return &SolveResult{Solved: true, Type: d.Type}, nil
		}
		if attempt >= maxSliderAdjustments {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "no success marker after adjustment attempts"}, nil
		}

		shot, err := page.Context(ctx).Screenshot(false, nil)
		if err != nil {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "re-screenshot failed"}, nil
		}
		verdictRaw, err := visionClient.Analyze(ctx, shot, sliderVerifyPrompt)
		if err != nil {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "vision backend unavailable during verification"}, nil
		}
		var verdict struct {
			Solved   bool    `json:"solved"`
			AdjustPx float64 `json:"adjustPx"`
		}
		if err := json.Unmarshal([]byte(vision.StripJSONFence(verdictRaw)), &verdict); err != nil {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "vision backend returned unparsable verdict"}, nil
		}
		if verdict.Solved {
			return &SolveResult{Solved: true, Type: d.Type}, nil
		}
		if verdict.AdjustPx == 0 {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "vision backend reported unsolved with no adjustment"}, nil
		}

		newTargetX := coords.TargetX + verdict.AdjustPx
		adjustPath := humanmode.HumanDragPath(rng, coords.TargetX, coords.TargetY, newTargetX, coords.TargetY)
		if err := dragAlong(page, adjustPath); err != nil {
			return &SolveResult{Solved: false, Type: d.Type, Detail: "adjustment drag failed"}, nil
		}
		coords.TargetX = newTargetX
	}
}

const sliderPrompt = `You are looking at a slider CAPTCHA. Respond with ONLY JSON: {"HandleX":n,"HandleY":n,"TargetX":n,"TargetY":n} giving the pixel coordinates of the draggable handle and where it must be dropped.`

const sliderVerifyPrompt = `You are looking at a slider CAPTCHA after a drag attempt. Respond with ONLY JSON: {"solved":bool,"adjustPx":n} saying whether it succeeded, and if not, how many pixels (signed, positive means further right) the handle should move from its current position.`

func dragAlong(page *rod.Page, path []humanmode.PathPoint) error {
	if len(path) == 0 {
		return fmt.Errorf("empty drag path")
	}
	first := path[0]
	if err := page.Mouse.MoveTo(proto.Point{X: first.X, Y: first.Y}); err != nil {
		return err
	}
	if err := page.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	for _, p := range path[1:] {
		time.Sleep(time.Duration(p.Delay) * time.Millisecond)
		if err := page.Mouse.MoveTo(proto.Point{X: p.X, Y: p.Y}); err != nil {
			return err
		}
	}
	return page.Mouse.Up(proto.InputMouseButtonLeft, 1)
}

// solveImageGrid asks the vision backend which 0-indexed cells to click
// (spec.md §4.6), clicking each with a 200-500ms random gap.
func solveImageGrid(ctx context.Context, page *rod.Page, visionClient *vision.Client, d *Detection, rng *rand.Rand) (*SolveResult, error) {
	if visionClient == nil {
		return nil, ccerrors.New(ccerrors.CodeVisionBackendError, "no vision backend configured for image-grid solving", nil)
	}

	png, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, err
	}
	raw, err := visionClient.Analyze(ctx, png, gridPrompt)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Cells []int `json:"cells"`
	}
	if err := json.Unmarshal([]byte(vision.StripJSONFence(raw)), &resp); err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "vision backend returned unparsable cell list"}, nil
	}

	for _, idx := range resp.Cells {
		selector := fmt.Sprintf("%s [data-cell-index='%d'], %s .grid-cell:nth-child(%d)", d.Selector, idx, d.Selector, idx+1)
		if el, err := page.Context(ctx).Timeout(2 * time.Second).Element(selector); err == nil {
			_ = el.Click(proto.InputMouseButtonLeft, 1)
		}
		time.Sleep(time.Duration(200+rng.IntN(300)) * time.Millisecond)
	}

	if verify, err := page.Context(ctx).Timeout(time.Second).Element("[class*='verify-button'], button[type='submit']"); err == nil {
		_ = verify.Click(proto.InputMouseButtonLeft, 1)
	}

	return &SolveResult{Solved: true, Type: d.Type}, nil
}

const gridPrompt = `You are looking at an image-grid CAPTCHA. Respond with ONLY JSON: {"cells":[0,3,7]} listing the 0-indexed cells that should be clicked.`

// solveTextCaptcha asks the vision backend to read the distorted text, fills
// the input, and clicks verify (spec.md §4.6).
func solveTextCaptcha(ctx context.Context, page *rod.Page, visionClient *vision.Client, d *Detection, _ *rand.Rand) (*SolveResult, error) {
	if visionClient == nil {
		return nil, ccerrors.New(ccerrors.CodeVisionBackendError, "no vision backend configured for text-captcha solving", nil)
	}

	png, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, err
	}
	raw, err := visionClient.Analyze(ctx, png, textPrompt)
	if err != nil {
		return nil, err
	}

	text := vision.StripJSONFence(raw)
	input, err := page.Context(ctx).Timeout(5 * time.Second).Element("input[type='text'], input[name*='captcha' i]")
	if err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "input field not found"}, nil
	}
	if err := input.Input(text); err != nil {
		return &SolveResult{Solved: false, Type: d.Type, Detail: "fill failed"}, nil
	}
	if verify, err := page.Context(ctx).Timeout(time.Second).Element("button[type='submit'], [class*='verify']"); err == nil {
		_ = verify.Click(proto.InputMouseButtonLeft, 1)
	}
	return &SolveResult{Solved: true, Type: d.Type}, nil
}

const textPrompt = `You are looking at a distorted-text CAPTCHA image. Respond with ONLY the text you read, no explanation, no JSON, no markdown.`
