// Package dispatcher implements the Interaction Dispatcher (spec.md §4.4):
// the mapping from API verbs to CDP operations. Every verb resolves its
// target page, restores any cached ref map, applies human-mode pre-delays
// when the caller's mode warrants it, performs the CDP action, and
// translates errors into the AI-friendly forms spec.md §4.4 and §7 require.
//
// Grounded on the teacher's scraper/actions.go (one function per action
// type, each with its own bounded timeout via page.Context) and
// scraper/page.go's navigate/extract sequencing, generalized from "one
// scrape, one page, discard" to "many live pages, addressed by CDP target
// id, interacted with repeatedly."
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/browser"
	"github.com/use-agent/ccbrowser/captcha"
	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
	"github.com/use-agent/ccbrowser/pagestate"
)

// Dispatcher holds everything every verb needs to resolve a page and act
// on it. daemon.New constructs one Dispatcher for the daemon's lifetime;
// Bind re-points it at each session's control URL on start and clears it on
// stop.
type Dispatcher struct {
	Browser  *browser.Cache
	Pages    *pagestate.Registry
	RefCache *pagestate.RefCache
	Captcha  *captcha.Orchestrator
	Rand     *rand.Rand

	mu         sync.Mutex
	controlURL string
	lastCursor rod.Point // last known mouse position, for human-mode path origin
}

// New creates a Dispatcher. rng may be nil outside of tests.
func New(b *browser.Cache, pages *pagestate.Registry, refCache *pagestate.RefCache, orch *captcha.Orchestrator, rng *rand.Rand) *Dispatcher {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Dispatcher{Browser: b, Pages: pages, RefCache: refCache, Captcha: orch, Rand: rng}
}

// Bind points the dispatcher at the currently active session's CDP control
// URL (called by the daemon on `start`, and with "" on `stop`).
func (d *Dispatcher) Bind(controlURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controlURL = controlURL
}

func (d *Dispatcher) currentControlURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.controlURL
}

// resolvePage finds the target page (by target id, or, if targetID is empty,
// the last page in the browser's page list), ensures its PageEntry exists and its
// listeners are installed, and restores any cached ref map for it
// (spec.md §4.2, §4.3, §9).
func (d *Dispatcher) resolvePage(ctx context.Context, targetID string) (*rod.Page, *pagestate.PageEntry, error) {
	controlURL := d.currentControlURL()
	if controlURL == "" {
		return nil, nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}

	b, err := d.Browser.Connect(ctx, controlURL)
	if err != nil {
		return nil, nil, err
	}

	var page *rod.Page
	if targetID != "" {
		page, err = browser.FindPageByTargetID(b, controlURL, targetID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		pages, err := b.Pages()
		if err != nil || len(pages) == 0 {
			return nil, nil, ccerrors.New(ccerrors.CodeTabNotFound, "no open tabs", err)
		}
		page = pages[len(pages)-1]
	}

	entry := d.Pages.Entry(page.TargetID)
	d.installListenersOnce(page, entry)
	d.restoreRefCache(page, entry)
	return page, entry, nil
}

// ResolveTargetPage exposes resolvePage to callers outside the dispatcher
// (daemon/'s recorder, replayer, and captcha wiring all need a concrete
// *rod.Page to hand to those packages directly).
func (d *Dispatcher) ResolveTargetPage(ctx context.Context, targetID string) (*rod.Page, error) {
	page, _, err := d.resolvePage(ctx, targetID)
	return page, err
}

// installListenersOnce wires console/error/network ring-buffer capture for
// a page exactly once (spec.md §4.3: "installed exactly once per page
// object; reinstallation is prevented by a weak set of observed pages" —
// here, a plain bool guard on the PageEntry, per spec.md §9 DESIGN NOTES).
func (d *Dispatcher) installListenersOnce(page *rod.Page, entry *pagestate.PageEntry) {
	if d.Pages.MarkSeen(page.TargetID) {
		return
	}

	go page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		var text strings.Builder
		for i, arg := range e.Args {
			if i > 0 {
				text.WriteByte(' ')
			}
			if arg.Value.Val() != nil {
				text.WriteString(arg.Value.Str())
			}
		}
		entry.PushConsole(models.ConsoleMessage{
			Level:     string(e.Type),
			Text:      text.String(),
			Timestamp: time.Now().UnixMilli(),
		})
	}, func(e *proto.RuntimeExceptionThrown) {
		msg := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil {
			msg = e.ExceptionDetails.Exception.Description
		}
		entry.PushError(models.PageError{
			Message:   msg,
			Timestamp: time.Now().UnixMilli(),
		})
	}, func(e *proto.NetworkRequestWillBeSent) {
		entry.PushNetwork(models.NetworkRecord{
			RequestID: string(e.RequestID),
			URL:       e.Request.URL,
			Method:    e.Request.Method,
			Timestamp: time.Now().UnixMilli(),
		})
	}, func(e *proto.NetworkResponseReceived) {
		entry.PushNetwork(models.NetworkRecord{
			RequestID:  string(e.RequestID),
			URL:        e.Response.URL,
			StatusCode: e.Response.Status,
			Timestamp:  time.Now().UnixMilli(),
		})
	}, func(e *proto.NetworkLoadingFailed) {
		entry.PushNetwork(models.NetworkRecord{
			RequestID:  string(e.RequestID),
			Failed:     true,
			FailureMsg: e.ErrorText,
			Timestamp:  time.Now().UnixMilli(),
		})
	})()
}

// restoreRefCache repopulates entry's ref map from the global LRU cache if
// the page's own entry was just created empty (e.g. its PageEntry was
// evicted and recreated, per spec.md §3's "survives internal page objects
// being recreated").
func (d *Dispatcher) restoreRefCache(page *rod.Page, entry *pagestate.PageEntry) {
	info, err := page.Info()
	if err != nil {
		return
	}
	key := pagestate.RefCacheKey{NormalizedURL: normalizeURL(info.URL), TargetID: string(page.TargetID)}
	if refs, ok := d.RefCache.Get(key); ok {
		entry.ReplaceRefs(refs)
	}
}

func normalizeURL(u string) string {
	u = strings.TrimSuffix(u, "/")
	if idx := strings.Index(u, "#"); idx != -1 {
		u = u[:idx]
	}
	return u
}

// resolveElement finds the element named by exactly one of ref, text, or
// selector, honoring timeout (spec.md §4.4's "exactly one of {ref, text,
// selector}" contract shared by click/hover/type/select).
func (d *Dispatcher) resolveElement(ctx context.Context, page *rod.Page, entry *pagestate.PageEntry, ref, text, selector string, timeoutMs int) (*rod.Element, error) {
	timeout := time.Duration(timeoutMs) * time.Millisecond
	p := page.Context(ctx).Timeout(timeout)

	switch {
	case ref != "":
		desc, err := entry.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		return d.resolveByDescriptor(p, ref, desc)
	case text != "":
		el, err := p.ElementR("*", text)
		if err != nil {
			return nil, translateLocatorError(err)
		}
		return el, nil
	case selector != "":
		el, err := p.Element(selector)
		if err != nil {
			return nil, translateLocatorError(err)
		}
		return el, nil
	default:
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "exactly one of ref, text, or selector is required", nil)
	}
}

func (d *Dispatcher) resolveByDescriptor(p *rod.Page, ref string, desc models.ElementDescriptor) (*rod.Element, error) {
	loc := pagestate.ResolveDescriptor(ref, desc)

	scope := p
	if loc.FrameSelector != "" {
		frameEl, err := p.Element(loc.FrameSelector)
		if err != nil {
			return nil, translateLocatorError(err)
		}
		frame, err := frameEl.Frame()
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeDetachedElement, "ref's frame is no longer attached; re-snapshot", err)
		}
		scope = frame.Context(p.GetContext())
	}

	// go-rod has no native `aria-ref=eN` query engine, so even in aria
	// mode resolution falls through to the same role/name/nth-scoped
	// lookup a role-mode ref uses below; loc.AriaRef only documents that
	// the ref was allocated in aria mode, it never relaxes the scoping.
	els, err := scope.Elements(loc.Selector)
	if err != nil || len(els) == 0 {
		return nil, ccerrors.New(ccerrors.CodeUnknownRef, fmt.Sprintf("ref %q no longer resolves; re-snapshot", ref), err)
	}

	if loc.Name != "" {
		filtered := make(rod.Elements, 0, len(els))
		for _, el := range els {
			t, _ := el.Text()
			if strings.Contains(strings.ToLower(t), strings.ToLower(loc.Name)) {
				filtered = append(filtered, el)
			}
		}
		if len(filtered) > 0 {
			els = filtered
		}
	}

	if loc.Nth >= len(els) {
		return nil, ccerrors.New(ccerrors.CodeDetachedElement, fmt.Sprintf("ref %q no longer resolves at its recorded position; re-snapshot", ref), nil)
	}
	return els[loc.Nth], nil
}

// translateLocatorError converts a raw rod/CDP error into one of the
// AI-friendly forms spec.md §4.4 mandates: timeouts read as "not found or
// not visible", ambiguous matches as "re-snapshot", detached elements as
// "re-snapshot".
func translateLocatorError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return ccerrors.New(ccerrors.CodeTimeout, "element not found or not visible within the timeout", err)
	case strings.Contains(msg, "could not find") || strings.Contains(msg, "no such element"):
		return ccerrors.New(ccerrors.CodeTimeout, "element not found or not visible within the timeout", err)
	case strings.Contains(msg, "detached"):
		return ccerrors.New(ccerrors.CodeDetachedElement, "element detached from the document; re-snapshot", err)
	case strings.Contains(msg, "multiple"):
		return ccerrors.New(ccerrors.CodeMultipleMatches, "locator matched more than one element; re-snapshot with a more specific locator", err)
	default:
		return ccerrors.New(ccerrors.CodeTimeout, "element not found or not visible within the timeout", err)
	}
}

// sleep respects ctx cancellation instead of blocking the goroutine
// regardless of the caller giving up (spec.md §5 cancellation).
func sleep(ctx context.Context, ms int) {
	if ms <= 0 {
		return
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
	}
}

// isHumanMode reports whether mode enables the human-mode timing engine
// (spec.md §4.5: "human and stealth enable the above").
func isHumanMode(mode models.Mode) bool {
	return mode == models.ModeHuman || mode == models.ModeStealth
}

func logVerb(verb string, kv ...any) {
	slog.Info("dispatch", append([]any{"verb", verb}, kv...)...)
}
