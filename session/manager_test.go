package session

import (
	"path/filepath"
	"testing"
	"time"
)

func TestManager_CreateAssignsPrefixedID(t *testing.T) {
	m := New(30*time.Minute, time.Minute, "")
	s := m.Create("research", -1)
	if len(s.ID) != len("sess_")+8 || s.ID[:5] != "sess_" {
		t.Errorf("got id %q, want sess_ followed by 8 chars", s.ID)
	}
	if s.TTLMs != (30 * time.Minute).Milliseconds() {
		t.Errorf("expected default TTL to be applied when ttlMs<0, got %d", s.TTLMs)
	}
}

func TestManager_ZeroTTLNeverExpires(t *testing.T) {
	m := New(30*time.Minute, time.Minute, "")
	s := m.Create("forever", 0)
	s.LastActivity = time.Now().Add(-1000 * time.Hour)
	if s.Expired(time.Now()) {
		t.Fatal("expected ttlMs=0 to mean never-expires")
	}
}

func TestManager_PruneRemovesExpiredSessions(t *testing.T) {
	m := New(30*time.Minute, time.Minute, "")
	s := m.Create("short", 10)
	s.LastActivity = time.Now().Add(-time.Second)

	pruned := m.Prune(time.Now())
	if len(pruned) != 1 || pruned[0].SessionID != s.ID {
		t.Fatalf("expected session %s pruned, got %+v", s.ID, pruned)
	}
	if _, err := m.Get(s.ID); err == nil {
		t.Fatal("expected pruned session to be gone")
	}
}

func TestManager_TouchResetsHeartbeat(t *testing.T) {
	m := New(30*time.Minute, time.Minute, "")
	s := m.Create("x", 50)
	s.LastActivity = time.Now().Add(-40 * time.Millisecond)

	if err := m.Touch(s.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if m.Prune(time.Now()); len(m.List()) != 1 {
		t.Fatal("expected Touch to keep the session alive past its original deadline")
	}
}

func TestManager_PersistAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	m1 := New(30*time.Minute, time.Minute, path)
	s := m1.Create("research", -1)
	if err := m1.AddTab(s.ID, "tab-1"); err != nil {
		t.Fatalf("AddTab: %v", err)
	}
	if err := m1.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	m2 := New(30*time.Minute, time.Minute, path)
	if err := m2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := m2.Get(s.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.Name != "research" || len(got.TabIDs) != 1 || got.TabIDs[0] != "tab-1" {
		t.Errorf("got %+v after reload, want Name=research TabIDs=[tab-1]", got)
	}
}

func TestManager_ReconcileDropsDeadTabs(t *testing.T) {
	m := New(30*time.Minute, time.Minute, "")
	s := m.Create("x", -1)
	_ = m.AddTab(s.ID, "tab-1")
	_ = m.AddTab(s.ID, "tab-2")

	m.Reconcile(map[string]struct{}{"tab-1": {}})

	got, _ := m.Get(s.ID)
	if len(got.TabIDs) != 1 || got.TabIDs[0] != "tab-1" {
		t.Errorf("got %+v, want only tab-1 to survive reconciliation", got.TabIDs)
	}
}
