package dispatcher

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

const waitPollInterval = 100 * time.Millisecond

// Wait blocks until the first set condition is satisfied, or TimeoutMs
// elapses (spec.md §4.4 wait: conditions are checked in a fixed order, and
// exactly one of them is expected to be set per call).
func (d *Dispatcher) Wait(ctx context.Context, req *models.WaitRequest) (*models.WaitResponse, error) {
	req.Defaults()
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	if req.TimeMs > 0 {
		sleep(ctx, req.TimeMs)
		return &models.WaitResponse{Satisfied: "timeMs"}, nil
	}

	deadline := time.Duration(req.TimeoutMs) * time.Millisecond
	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	switch {
	case req.Text != "":
		if err := pollUntil(waitCtx, func() (bool, error) { return pageContainsText(page, req.Text) }); err != nil {
			return nil, err
		}
		return &models.WaitResponse{Satisfied: "text"}, nil
	case req.TextGone != "":
		if err := pollUntil(waitCtx, func() (bool, error) {
			present, err := pageContainsText(page, req.TextGone)
			return !present, err
		}); err != nil {
			return nil, err
		}
		return &models.WaitResponse{Satisfied: "textGone"}, nil
	case req.Selector != "":
		if err := pollUntil(waitCtx, func() (bool, error) {
			_, err := page.Timeout(waitPollInterval).Element(req.Selector)
			return err == nil, nil
		}); err != nil {
			return nil, err
		}
		return &models.WaitResponse{Satisfied: "selector"}, nil
	case req.URL != "":
		if err := pollUntil(waitCtx, func() (bool, error) {
			info, err := page.Info()
			if err != nil {
				return false, nil
			}
			return strings.Contains(info.URL, req.URL), nil
		}); err != nil {
			return nil, err
		}
		return &models.WaitResponse{Satisfied: "url"}, nil
	case req.LoadState != "":
		p := page.Context(waitCtx)
		waitForLoadState(p, req.LoadState)
		if waitCtx.Err() != nil {
			return nil, ccerrors.New(ccerrors.CodeTimeout, "load state not reached within the timeout", waitCtx.Err())
		}
		return &models.WaitResponse{Satisfied: "loadState"}, nil
	case req.Fn != "":
		if err := pollUntil(waitCtx, func() (bool, error) { return evalTruthy(page, req.Fn) }); err != nil {
			return nil, err
		}
		return &models.WaitResponse{Satisfied: "fn"}, nil
	default:
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "wait requires exactly one condition", nil)
	}
}

// pollUntil calls check every waitPollInterval until it reports satisfied,
// an error, or ctx's deadline passes.
func pollUntil(ctx context.Context, check func() (bool, error)) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ccerrors.New(ccerrors.CodeTimeout, "condition not satisfied within the timeout", ctx.Err())
		case <-ticker.C:
		}
	}
}

func pageContainsText(page *rod.Page, text string) (bool, error) {
	res, err := page.Timeout(waitPollInterval).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return false, nil
	}
	return strings.Contains(res.Value.Str(), text), nil
}

func evalTruthy(page *rod.Page, fn string) (bool, error) {
	res, err := page.Timeout(waitPollInterval).Eval(fn)
	if err != nil {
		return false, nil
	}
	return res.Value.Bool(), nil
}
