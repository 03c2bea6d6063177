// Package recorder implements the Recorder (spec.md §3 Recording, §4.8):
// in-page event capture that survives navigation, drained on a timer and
// merged with a beforeunload beacon fallback, normalized into a step list
// on stop.
//
// Grounded on the teacher's webhook.DeliverAsync (webhook/webhook.go) for
// the shape of "fire off background work, merge results back into shared
// state, log and move on" — generalized here from an outbound HTTP retry
// loop into an in-process drain-and-merge poll, since the recorder has
// nothing to retry against (the browser is local).
package recorder

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

const drainInterval = 250 * time.Millisecond

// navSuppressWindow is how long after a drained click a framenavigated
// event is assumed to be an SPA routing artifact rather than a real
// navigation, and so is not recorded (spec.md §4.8 step 4).
const navSuppressWindow = 2 * time.Second

type rawEvent struct {
	Type     string           `json:"type"`
	Locators []models.Locator `json:"locators"`
	Value    string           `json:"value"`
	Key      string           `json:"key"`
	ScrollX  int              `json:"scrollX"`
	ScrollY  int              `json:"scrollY"`
}

// Recorder owns the single active recording (spec.md §5: "the recording
// state" is one of the daemon's serialized, single-threaded-from-the-
// application's-perspective resources).
type Recorder struct {
	mu             sync.Mutex
	active         bool
	name           string
	recordedAt     time.Time
	steps          []models.Step
	page           *rod.Page
	lastClickDrain time.Time

	stopDrain chan struct{}
	stopNav   func()
	drainDone chan struct{}
}

// New creates an idle Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Start begins recording on page (spec.md §4.8 steps 1-4).
func (r *Recorder) Start(ctx context.Context, page *rod.Page, name string, beaconPort int) error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ccerrors.New(ccerrors.CodeInvalidInput, "a recording is already active", nil)
	}
	r.active = true
	r.name = name
	r.recordedAt = time.Now()
	r.steps = nil
	r.page = page
	r.lastClickDrain = time.Time{}
	r.mu.Unlock()

	if info, err := page.Context(ctx).Info(); err == nil && info.URL != "about:blank" {
		r.appendStep(models.Step{Type: models.StepNavigate, URL: info.URL})
	}

	if _, err := page.Context(ctx).Eval(captureScript(beaconPort)); err != nil {
		return ccerrors.New(ccerrors.CodeInternal, "failed to inject capture script", err)
	}

	if _, err := proto.PageAddScriptToEvaluateOnNewDocument{Source: captureScript(beaconPort)}.Call(page.Context(ctx)); err != nil {
		slog.Warn("recorder: failed to register init script for future navigations", "error", err)
	}

	stopDrain := make(chan struct{})
	drainDone := make(chan struct{})
	r.mu.Lock()
	r.stopDrain = stopDrain
	r.drainDone = drainDone
	r.mu.Unlock()
	go r.drainLoop(page, stopDrain, drainDone)

	r.stopNav = page.EachEvent(func(e *proto.PageFrameNavigated) {
		if e.Frame.ParentID != "" {
			return // main-frame navigations only
		}
		url := e.Frame.URL
		if url == "about:blank" {
			return
		}
		r.mu.Lock()
		suppress := !r.lastClickDrain.IsZero() && time.Since(r.lastClickDrain) < navSuppressWindow
		r.mu.Unlock()
		if suppress {
			return
		}
		r.appendStep(models.Step{Type: models.StepNavigate, URL: url})
	})()

	return nil
}

// drainLoop polls the in-page event buffer every drainInterval and merges
// whatever it finds into the step list (spec.md §4.8 step 5).
func (r *Recorder) drainLoop(page *rod.Page, stop chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			events, err := drainPage(page)
			if err != nil {
				continue // the recorder never fails its host verb on a drain error
			}
			r.merge(events)
		}
	}
}

// drainPage calls the in-page drain function and decodes its result.
func drainPage(page *rod.Page) ([]rawEvent, error) {
	res, err := page.Timeout(drainInterval).Eval(`() => window.__ccRecorderDrain ? window.__ccRecorderDrain() : []`)
	if err != nil {
		return nil, err
	}
	var events []rawEvent
	if err := res.Value.Unmarshal(&events); err != nil {
		return nil, err
	}
	return events, nil
}

// merge appends drained raw events as normalized steps, tracking the most
// recent click for the navigation-suppression heuristic.
func (r *Recorder) merge(events []rawEvent) {
	if len(events) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		step, ok := stepFromRaw(e)
		if !ok {
			continue
		}
		r.steps = append(r.steps, step)
		if e.Type == "click" {
			r.lastClickDrain = time.Now()
		}
	}
}

func stepFromRaw(e rawEvent) (models.Step, bool) {
	switch e.Type {
	case "click":
		return models.Step{Type: models.StepClick, Locators: e.Locators}, true
	case "type":
		return models.Step{Type: models.StepTypeAction, Locators: e.Locators, Value: e.Value}, true
	case "select":
		return models.Step{Type: models.StepSelect, Locators: e.Locators, Value: e.Value}, true
	case "keypress":
		return models.Step{Type: models.StepKeypress, Key: e.Key, Locators: e.Locators}, true
	case "scroll":
		return models.Step{Type: models.StepScroll, ScrollX: e.ScrollX, ScrollY: e.ScrollY}, true
	default:
		return models.Step{}, false
	}
}

// appendStep is used for navigation steps recorded outside the drain loop
// (the initial step, and framenavigated-triggered steps).
func (r *Recorder) appendStep(step models.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// MergeBeacon merges events delivered via the beforeunload beacon (spec.md
// §4.8: "whose handler merges those events into the recording").
func (r *Recorder) MergeBeacon(events []rawEvent) {
	r.merge(events)
}

// Stop ends the recording, performs a final drain, and returns the
// normalized result (spec.md §4.8 "Normalization").
func (r *Recorder) Stop(ctx context.Context) (*models.Recording, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "no recording is active", nil)
	}
	page := r.page
	stopDrain := r.stopDrain
	drainDone := r.drainDone
	r.mu.Unlock()

	if r.stopNav != nil {
		r.stopNav()
	}
	close(stopDrain)
	<-drainDone

	if page != nil {
		if events, err := drainPage(page); err == nil {
			r.merge(events)
		}
		_, _ = page.Context(ctx).Eval(`() => { window.__ccRecorderActive = false; window.__ccRecorderEvents = []; }`)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.steps = normalizeSteps(r.steps)
	rec := &models.Recording{Name: r.name, RecordedAt: r.recordedAt, Steps: r.steps}
	r.page = nil
	return rec, nil
}

// normalizeSteps deduplicates consecutive navigate steps to the same URL
// (spec.md §4.8 "Normalization").
func normalizeSteps(steps []models.Step) []models.Step {
	out := make([]models.Step, 0, len(steps))
	for _, s := range steps {
		if s.Type == models.StepNavigate && len(out) > 0 {
			last := out[len(out)-1]
			if last.Type == models.StepNavigate && sameURL(last.URL, s.URL) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// Status reports whether a recording is active and how many steps it holds
// so far (spec.md §6 /record/status).
type Status struct {
	Active bool `json:"active"`
	Steps  int  `json:"steps"`
}

// Status returns the current recording status.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Active: r.active, Steps: len(r.steps)}
}
