package pagestate

import (
	"fmt"
	"testing"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/models"
)

func TestPageEntry_RingBufferCapsAtCapacity(t *testing.T) {
	e := newPageEntry("t1")
	for i := 0; i < consoleCap+50; i++ {
		e.PushConsole(models.ConsoleMessage{Text: fmt.Sprintf("msg-%d", i)})
	}
	got := e.Console()
	if len(got) != consoleCap {
		t.Fatalf("got %d console entries, want %d", len(got), consoleCap)
	}
	if got[len(got)-1].Text != fmt.Sprintf("msg-%d", consoleCap+49) {
		t.Errorf("expected the buffer to keep the newest entries, got last=%q", got[len(got)-1].Text)
	}
}

func TestPageEntry_RefResolutionIsCaseInsensitive(t *testing.T) {
	e := newPageEntry("t1")
	ref := e.AllocRef(models.ElementDescriptor{Role: "button", Name: "Submit"})

	d, err := e.ResolveRef(strUpper(ref))
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if d.Role != "button" || d.Name != "Submit" {
		t.Errorf("got %+v, want role=button name=Submit", d)
	}

	if _, err := e.ResolveRef("e999"); err == nil {
		t.Fatal("expected error for unknown ref")
	}
}

func strUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestRegistry_MarkSeenOnlyTrueAfterFirstCall(t *testing.T) {
	r := NewRegistry()
	target := proto.TargetID("target-1")

	if r.MarkSeen(target) {
		t.Fatal("expected first MarkSeen to report not-already-seen")
	}
	if !r.MarkSeen(target) {
		t.Fatal("expected second MarkSeen to report already-seen")
	}
}

func TestRefCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewRefCache()
	for i := 0; i < refCacheCap+10; i++ {
		key := RefCacheKey{NormalizedURL: "https://example.com", TargetID: fmt.Sprintf("t%d", i)}
		c.Put(key, map[string]models.ElementDescriptor{"e1": {Role: "button"}})
	}
	if _, ok := c.Get(RefCacheKey{NormalizedURL: "https://example.com", TargetID: "t0"}); ok {
		t.Error("expected the oldest entry to have been evicted")
	}
	if _, ok := c.Get(RefCacheKey{NormalizedURL: "https://example.com", TargetID: fmt.Sprintf("t%d", refCacheCap+9)}); !ok {
		t.Error("expected the most recently inserted entry to still be present")
	}
}
