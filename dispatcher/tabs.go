package dispatcher

import (
	"context"

	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

func tabInfo(p interface {
	Info() (*proto.TargetTargetInfo, error)
}, targetID string) models.TabInfo {
	info, err := p.Info()
	if err != nil {
		return models.TabInfo{TargetID: targetID}
	}
	return models.TabInfo{TargetID: targetID, URL: info.URL, Title: info.Title}
}

// TabsList lists every open tab on the active session's browser (spec.md
// §4.4 tabs).
func (d *Dispatcher) TabsList(ctx context.Context) (*models.TabsListResponse, error) {
	controlURL := d.currentControlURL()
	if controlURL == "" {
		return nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	b, err := d.Browser.Connect(ctx, controlURL)
	if err != nil {
		return nil, err
	}
	pages, err := b.Pages()
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to list tabs", err)
	}
	tabs := make([]models.TabInfo, 0, len(pages))
	for _, p := range pages {
		tabs = append(tabs, tabInfo(p, string(p.TargetID)))
	}
	return &models.TabsListResponse{Tabs: tabs}, nil
}

// TabsOpen opens a new tab, optionally navigating it to url. In stealth
// mode the anti-automation patch set (github.com/go-rod/stealth) is
// injected on the new tab before it navigates anywhere (spec.md §4.5:
// "stealth applies the same timing as human mode, plus anti-detection
// patches applied at tab creation").
func (d *Dispatcher) TabsOpen(ctx context.Context, mode models.Mode, req *models.TabsOpenRequest) (*models.TabsOpenResponse, error) {
	controlURL := d.currentControlURL()
	if controlURL == "" {
		return nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	b, err := d.Browser.Connect(ctx, controlURL)
	if err != nil {
		return nil, err
	}

	target := req.URL
	if target == "" {
		target = "about:blank"
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to open tab", err)
	}

	if mode == models.ModeStealth {
		if _, err := page.Context(ctx).EvalOnNewDocument(stealth.JS); err != nil {
			return nil, ccerrors.New(ccerrors.CodeInternal, "failed to apply stealth patches to new tab", err)
		}
	}

	if target != "about:blank" {
		if err := page.Context(ctx).Navigate(target); err != nil {
			return nil, ccerrors.New(ccerrors.CodeInternal, "failed to navigate new tab", err)
		}
	}

	d.Pages.Entry(page.TargetID)
	logVerb("tabs.open", "url", target, "mode", mode)
	return &models.TabsOpenResponse{Tab: tabInfo(page, string(page.TargetID))}, nil
}

// TabsClose closes one tab.
func (d *Dispatcher) TabsClose(ctx context.Context, req *models.TabsCloseRequest) error {
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return err
	}
	d.Pages.Forget(page.TargetID)
	if err := page.Close(); err != nil {
		return ccerrors.New(ccerrors.CodeInternal, "failed to close tab", err)
	}
	logVerb("tabs.close", "target", req.TargetID)
	return nil
}

// TabsCloseAll closes every tab on the active session's browser except the
// one that remains open (Chrome requires at least one live target).
func (d *Dispatcher) TabsCloseAll(ctx context.Context) error {
	controlURL := d.currentControlURL()
	if controlURL == "" {
		return ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	b, err := d.Browser.Connect(ctx, controlURL)
	if err != nil {
		return err
	}
	pages, err := b.Pages()
	if err != nil {
		return ccerrors.New(ccerrors.CodeInternal, "failed to list tabs", err)
	}
	for i, p := range pages {
		if i == len(pages)-1 {
			_, _ = p.Context(ctx).Eval(`() => { window.location.href = "about:blank" }`)
			continue
		}
		d.Pages.Forget(p.TargetID)
		_ = p.Close()
	}
	logVerb("tabs.closeAll")
	return nil
}

// TabsFocus brings a tab to the front.
func (d *Dispatcher) TabsFocus(ctx context.Context, req *models.TabsFocusRequest) error {
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return err
	}
	if _, err := page.Activate(); err != nil {
		return ccerrors.New(ccerrors.CodeInternal, "failed to focus tab", err)
	}
	logVerb("tabs.focus", "target", req.TargetID)
	return nil
}
