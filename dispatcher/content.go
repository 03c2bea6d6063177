package dispatcher

import (
	"context"
	"fmt"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/content"
	"github.com/use-agent/ccbrowser/models"
)

// Info returns basic page identity (spec.md §4.4 info).
func (d *Dispatcher) Info(ctx context.Context, req *models.InfoRequest) (*models.InfoResponse, error) {
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	info, err := page.Context(ctx).Info()
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page info", err)
	}
	return &models.InfoResponse{TargetID: string(page.TargetID), URL: info.URL, Title: info.Title}, nil
}

// Text returns the page's (or, if Selector is set, a matched element's)
// plain text (spec.md §4.4 text). By default it reads
// document.body.innerText directly — cheap, and always available even on
// pages readability can't parse. Readability=true instead runs
// go-shiori/go-readability over the rendered HTML for article-quality
// extraction (SPEC_FULL.md §8.1).
func (d *Dispatcher) Text(ctx context.Context, req *models.TextRequest) (*models.TextResponse, error) {
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	if req.Readability {
		info, err := page.Context(ctx).Info()
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page info", err)
		}
		rawHTML, err := page.Context(ctx).HTML()
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page HTML", err)
		}
		if req.Selector != "" {
			rawHTML = content.ApplySelector(rawHTML, req.Selector)
		}
		return &models.TextResponse{Text: content.ExtractReadableText(rawHTML, info.URL)}, nil
	}

	script := `() => document.body.innerText`
	if req.Selector != "" {
		script = fmt.Sprintf(`() => { const el = document.querySelector(%q); return el ? el.innerText : ""; }`, req.Selector)
	}
	res, err := page.Context(ctx).Eval(script)
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page text", err)
	}
	return &models.TextResponse{Text: res.Value.Str()}, nil
}

// HTML returns raw page HTML, narrowed to Selector if set, plus the page's
// outbound links (spec.md §4.4 html).
func (d *Dispatcher) HTML(ctx context.Context, req *models.HTMLRequest) (*models.HTMLResponse, error) {
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	info, err := page.Context(ctx).Info()
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page info", err)
	}
	rawHTML, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read page HTML", err)
	}

	links := content.ExtractLinks(rawHTML, info.URL)
	if req.Selector != "" {
		rawHTML = content.ApplySelector(rawHTML, req.Selector)
	}

	modelLinks := make([]models.Link, 0, len(links))
	for _, l := range links {
		modelLinks = append(modelLinks, models.Link{Href: l.Href, Text: l.Text})
	}
	return &models.HTMLResponse{HTML: rawHTML, Links: modelLinks}, nil
}
