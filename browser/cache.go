// Package browser implements the CDP Connection Cache & page resolution
// (spec.md §4.2): a single cached *rod.Browser per control URL, coalesced
// concurrent connects, bounded-backoff reconnection, and target-id-to-page
// resolution with fallbacks.
//
// Grounded on the teacher's scraper.Scraper, which owns a single *rod.Browser
// for the process lifetime (scraper/scraper.go NewScraper/Close), and on
// engine.Dispatcher's goroutine/channel coordination style (engine/
// dispatcher.go) for the coalesced-connect shape, generalized here from "one
// browser for the process" to "one browser per active workspace connection,
// swapped on Start/Stop."
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
)

// backoffStep is one entry in the bounded reconnect schedule (spec.md §3:
// 3 attempts, 5s/7s/9s dial timeouts, 250ms/500ms delay between attempts).
type backoffStep struct {
	timeout time.Duration
	delay   time.Duration
}

var reconnectSchedule = []backoffStep{
	{timeout: 5 * time.Second, delay: 0},
	{timeout: 7 * time.Second, delay: 250 * time.Millisecond},
	{timeout: 9 * time.Second, delay: 500 * time.Millisecond},
}

// Cache holds at most one live *rod.Browser, keyed by its control URL.
// Concurrent calls to Connect for the same URL are coalesced onto a single
// dial attempt.
type Cache struct {
	mu         sync.Mutex
	controlURL string
	browser    *rod.Browser
	connecting chan struct{} // non-nil while a dial is in flight
	connectErr error
}

// NewCache creates an empty connection cache.
func NewCache() *Cache {
	return &Cache{}
}

// Connect returns the cached browser for controlURL, dialing it (with
// bounded backoff) if not already connected. Concurrent callers for the same
// URL share a single dial attempt.
func (c *Cache) Connect(ctx context.Context, controlURL string) (*rod.Browser, error) {
	c.mu.Lock()
	if c.browser != nil && c.controlURL == controlURL {
		b := c.browser
		c.mu.Unlock()
		return b, nil
	}
	if c.connecting != nil && c.controlURL == controlURL {
		ch := c.connecting
		c.mu.Unlock()
		<-ch
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.browser != nil {
			return c.browser, nil
		}
		return nil, c.connectErr
	}

	ch := make(chan struct{})
	c.connecting = ch
	c.controlURL = controlURL
	c.mu.Unlock()

	b, err := dialWithBackoff(ctx, controlURL)

	c.mu.Lock()
	c.connecting = nil
	if err != nil {
		c.connectErr = err
		c.browser = nil
	} else {
		c.browser = b
		c.connectErr = nil
	}
	c.mu.Unlock()
	close(ch)

	if err != nil {
		return nil, err
	}
	return b, nil
}

func dialWithBackoff(ctx context.Context, controlURL string) (*rod.Browser, error) {
	var lastErr error
	for i, step := range reconnectSchedule {
		if step.delay > 0 {
			time.Sleep(step.delay)
		}
		dialCtx, cancel := context.WithTimeout(ctx, step.timeout)
		b := rod.New().ControlURL(controlURL).Context(dialCtx)
		err := b.Connect()
		cancel()
		if err == nil {
			slog.Info("browser: connected", "controlURL", controlURL, "attempt", i+1)
			return b, nil
		}
		lastErr = err
		slog.Warn("browser: connect attempt failed", "attempt", i+1, "error", err)
	}
	return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "failed to connect to browser over CDP", lastErr)
}

// Forget drops the cached browser without closing it (used after the
// launcher has already stopped the underlying process).
func (c *Cache) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.browser = nil
	c.controlURL = ""
}

// Close closes the cached browser connection, if any, and forgets it.
func (c *Cache) Close() {
	c.mu.Lock()
	b := c.browser
	c.browser = nil
	c.controlURL = ""
	c.mu.Unlock()
	if b != nil {
		_ = b.Close()
	}
}

// FindPageByTargetID resolves a CDP target id to a *rod.Page (spec.md
// §4.2): iterate live pages via the browser's own Pages() list; if that
// fails to turn up a match, fall back to /json/list URL matching (with
// positional disambiguation among pages sharing that URL); if that
// also fails and there is exactly one page open, use it as a courtesy
// fallback; otherwise ccerrors.CodeTabNotFound.
func FindPageByTargetID(browser *rod.Browser, controlURL, targetID string) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err == nil {
		for _, p := range pages {
			info, err := proto.TargetGetTargetInfo{TargetID: p.TargetID}.Call(p)
			if err != nil {
				continue
			}
			if string(info.TargetInfo.TargetID) == targetID {
				return p, nil
			}
		}
	}

	if url, pos, ok := lookupTargetURL(controlURL, targetID); ok {
		seen := 0
		for _, p := range pages {
			if pageURL, err := p.Info(); err == nil && pageURL.URL == url {
				if seen == pos {
					return p, nil
				}
				seen++
			}
		}
	}

	if len(pages) == 1 {
		slog.Warn("browser: target id not matched, falling back to sole open page", "targetID", targetID)
		return pages[0], nil
	}

	return nil, ccerrors.New(ccerrors.CodeTabNotFound, fmt.Sprintf("no tab found for target %q", targetID), nil)
}

// lookupTargetURL asks the browser's HTTP endpoint for /json/list and
// returns the URL recorded for targetID, if present, plus its position
// among the page targets sharing that URL (0 for the first such page), so
// the caller can tell same-URL tabs apart.
func lookupTargetURL(controlURL, targetID string) (string, int, bool) {
	base := strings.Replace(controlURL, "ws://", "http://", 1)
	if idx := strings.Index(base, "/devtools"); idx != -1 {
		base = base[:idx]
	}
	resp, err := http.Get(base + "/json/list")
	if err != nil {
		return "", 0, false
	}
	defer resp.Body.Close()

	var targets []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", 0, false
	}
	for i, t := range targets {
		if t.ID == targetID {
			pos := 0
			for _, prev := range targets[:i] {
				if prev.Type == "page" && prev.URL == t.URL {
					pos++
				}
			}
			return t.URL, pos, true
		}
	}
	return "", 0, false
}
