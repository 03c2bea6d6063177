package dispatcher

import (
	"context"
	"time"

	"github.com/go-rod/rod"

	"github.com/use-agent/ccbrowser/captcha"
	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/models"
)

const defaultNavigateTimeout = 30 * time.Second

// Navigate performs a main-frame load to a new URL (spec.md §4.4 navigate).
func (d *Dispatcher) Navigate(ctx context.Context, mode models.Mode, req *models.NavigateRequest) (*models.NavigateResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	if isHumanMode(mode) {
		sleep(ctx, humanmode.NavigationDelay(d.Rand))
	}

	timeout := defaultNavigateTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	p := page.Context(ctx).Timeout(timeout)

	if err := p.Navigate(req.URL); err != nil {
		return nil, ccerrors.New(ccerrors.CodeTimeout, "navigation failed or timed out", err)
	}
	waitForLoadState(p, req.WaitUntil)
	entry.ResetRefs()

	if isHumanMode(mode) {
		sleep(ctx, humanmode.PostLoadDelay(d.Rand))
	}

	var hit *models.CaptchaHit
	if isHumanMode(mode) && d.Captcha != nil {
		if det, derr := captcha.Detect(ctx, page); derr == nil && det.Detected {
			hit = &models.CaptchaHit{Detected: true, Type: string(det.Type)}
			if result, serr := d.Captcha.Solve(ctx, page); serr == nil && result != nil {
				hit.Solved = result.Solved
			}
		}
	}

	logVerb("navigate", "url", req.URL, "waitUntil", req.WaitUntil)
	return &models.NavigateResponse{
		URL:     evalString(p, `() => window.location.href`),
		Title:   evalString(p, `() => document.title`),
		Captcha: hit,
	}, nil
}

// waitForLoadState applies the requested wait strategy, best-effort
// (failures here never fail the verb — spec.md §4.4 only asks that the
// condition be awaited, not that its absence be fatal).
func waitForLoadState(p *rod.Page, waitUntil string) {
	switch waitUntil {
	case "networkidle":
		wait := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
		wait()
	case "domcontentloaded":
		_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	default: // "load"
		_ = p.WaitLoad()
	}
}

// evalString evaluates a JS expression and returns its string result,
// swallowing errors (mirrors the teacher's evalStringOrEmpty).
func evalString(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// Reload reloads the current page (spec.md §4.4 "reload/back/forward:
// straightforward pass-throughs with session tagging").
func (d *Dispatcher) Reload(ctx context.Context, req *models.ReloadRequest) (*models.NavigateResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	p := page.Context(ctx).Timeout(defaultNavigateTimeout)
	if err := p.Reload(); err != nil {
		return nil, ccerrors.New(ccerrors.CodeTimeout, "reload failed or timed out", err)
	}
	_ = p.WaitLoad()
	entry.ResetRefs()
	return &models.NavigateResponse{URL: evalString(p, `() => window.location.href`), Title: evalString(p, `() => document.title`)}, nil
}

// Back navigates to the previous history entry.
func (d *Dispatcher) Back(ctx context.Context, req *models.BackRequest) (*models.NavigateResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	p := page.Context(ctx).Timeout(defaultNavigateTimeout)
	if err := p.NavigateBack(); err != nil {
		return nil, ccerrors.New(ccerrors.CodeTimeout, "back navigation failed or timed out", err)
	}
	_ = p.WaitLoad()
	entry.ResetRefs()
	return &models.NavigateResponse{URL: evalString(p, `() => window.location.href`), Title: evalString(p, `() => document.title`)}, nil
}

// Forward navigates to the next history entry.
func (d *Dispatcher) Forward(ctx context.Context, req *models.ForwardRequest) (*models.NavigateResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	p := page.Context(ctx).Timeout(defaultNavigateTimeout)
	if err := p.NavigateForward(); err != nil {
		return nil, ccerrors.New(ccerrors.CodeTimeout, "forward navigation failed or timed out", err)
	}
	_ = p.WaitLoad()
	entry.ResetRefs()
	return &models.NavigateResponse{URL: evalString(p, `() => window.location.href`), Title: evalString(p, `() => document.title`)}, nil
}
