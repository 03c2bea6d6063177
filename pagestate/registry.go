// Package pagestate implements the Page State Tracker (spec.md §3 Page,
// §4.3): per-tab ring-buffered console/error/network logs, the ref map that
// lets interaction verbs address elements by opaque "eN" handles, and the
// cross-navigation ref cache.
//
// Grounded on the teacher's event-listener wiring in scraper/page.go and
// scraper/hijack.go (proto.NetworkResourceType hijack routing,
// page.EachEvent-style CDP event subscriptions), generalized here from
// "discard everything once the scrape response is built" to "keep a bounded
// history alive for the lifetime of the tab."
package pagestate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

const (
	consoleCap = 500
	errorCap   = 200
	networkCap = 500
)

// ringBuffer is a fixed-capacity FIFO: once full, the oldest entry is
// dropped to make room for the newest.
type ringBuffer[T any] struct {
	items []T
	cap   int
}

func newRing[T any](capacity int) *ringBuffer[T] {
	return &ringBuffer[T]{cap: capacity}
}

func (r *ringBuffer[T]) push(item T) {
	r.items = append(r.items, item)
	if len(r.items) > r.cap {
		r.items = r.items[len(r.items)-r.cap:]
	}
}

func (r *ringBuffer[T]) all() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// PageEntry holds everything tracked for one live tab.
type PageEntry struct {
	TargetID string

	mu       sync.Mutex
	console  *ringBuffer[models.ConsoleMessage]
	errors   *ringBuffer[models.PageError]
	network  *ringBuffer[models.NetworkRecord]
	refs     map[string]models.ElementDescriptor
	nextRef  int
	seen     bool // listeners already installed for this target
}

func newPageEntry(targetID string) *PageEntry {
	return &PageEntry{
		TargetID: targetID,
		console:  newRing[models.ConsoleMessage](consoleCap),
		errors:   newRing[models.PageError](errorCap),
		network:  newRing[models.NetworkRecord](networkCap),
		refs:     make(map[string]models.ElementDescriptor),
	}
}

// PushConsole records a console message.
func (p *PageEntry) PushConsole(msg models.ConsoleMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console.push(msg)
}

// PushError records an uncaught page exception.
func (p *PageEntry) PushError(e models.PageError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors.push(e)
}

// PushNetwork records (or updates, by RequestID) a network record.
func (p *PageEntry) PushNetwork(rec models.NetworkRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.network.items {
		if existing.RequestID == rec.RequestID {
			p.network.items[i] = rec
			return
		}
	}
	p.network.push(rec)
}

// Console returns a snapshot of buffered console messages.
func (p *PageEntry) Console() []models.ConsoleMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.console.all()
}

// Errors returns a snapshot of buffered page errors.
func (p *PageEntry) Errors() []models.PageError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors.all()
}

// Network returns a snapshot of buffered network records.
func (p *PageEntry) Network() []models.NetworkRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.network.all()
}

// AllocRef assigns a fresh "eN" handle to desc and stores it in the ref map.
func (p *PageEntry) AllocRef(desc models.ElementDescriptor) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextRef++
	ref := fmt.Sprintf("e%d", p.nextRef)
	p.refs[ref] = desc
	return ref
}

// ResolveRef looks up a previously allocated ref (case-insensitively, per
// spec.md §4.3).
func (p *PageEntry) ResolveRef(ref string) (models.ElementDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(ref)
	for r, d := range p.refs {
		if strings.ToLower(r) == key {
			return d, nil
		}
	}
	return models.ElementDescriptor{}, ccerrors.New(ccerrors.CodeUnknownRef,
		fmt.Sprintf("ref %q is not known on this page", ref), nil)
}

// ResetRefs clears the ref map (called after a navigation, before the next
// snapshot/interaction repopulates it).
func (p *PageEntry) ResetRefs() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs = make(map[string]models.ElementDescriptor)
	p.nextRef = 0
}

// ReplaceRefs wholesale-replaces the ref map, as every snapshot does
// (spec.md §3: "the ref map is replaced wholesale by each snapshot of that
// page"), and as the cross-navigation ref cache does when restoring a
// previously saved map onto a freshly (re)created PageEntry.
func (p *PageEntry) ReplaceRefs(refs map[string]models.ElementDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs = make(map[string]models.ElementDescriptor, len(refs))
	for k, v := range refs {
		p.refs[k] = v
	}
	p.nextRef = len(refs)
}

// AllRefs returns a copy of the current ref map, for saving into the
// cross-navigation ref cache.
func (p *PageEntry) AllRefs() map[string]models.ElementDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]models.ElementDescriptor, len(p.refs))
	for k, v := range p.refs {
		out[k] = v
	}
	return out
}

// Registry tracks one PageEntry per live CDP target id.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*PageEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*PageEntry)}
}

// Entry returns the PageEntry for targetID, creating it (and marking
// listeners not-yet-installed) if this is the first time the target is seen.
func (r *Registry) Entry(targetID proto.TargetID) *PageEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(targetID)
	if e, ok := r.entries[key]; ok {
		return e
	}
	e := newPageEntry(key)
	r.entries[key] = e
	return e
}

// MarkSeen reports whether listeners have already been installed for
// targetID, installing the marker if not (replaces the weak-map idiom the
// teacher-language original would use — DESIGN NOTES §9 — with a plain
// bool guard on the entry itself).
func (r *Registry) MarkSeen(targetID proto.TargetID) (alreadySeen bool) {
	e := r.Entry(targetID)
	e.mu.Lock()
	defer e.mu.Unlock()
	alreadySeen = e.seen
	e.seen = true
	return alreadySeen
}

// Forget removes a target's entry, e.g. once its tab is closed.
func (r *Registry) Forget(targetID proto.TargetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, string(targetID))
}
