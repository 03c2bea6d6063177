package workspace

import (
	"testing"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

func TestStore_SaveAndGet(t *testing.T) {
	s := New(t.TempDir())

	d := &models.WorkspaceDescriptor{
		DisplayName: "Research",
		Browser:     models.BrowserChrome,
		Slug:        "research",
		CDPPort:     9222,
		DaemonPort:  9876,
		Aliases:     []string{"r"},
	}
	if err := s.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(models.BrowserChrome, "research")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DisplayName != "Research" || got.CDPPort != 9222 {
		t.Errorf("got %+v, want DisplayName=Research CDPPort=9222", got)
	}
}

func TestStore_AliasUniqueness(t *testing.T) {
	s := New(t.TempDir())

	a := &models.WorkspaceDescriptor{Browser: models.BrowserChrome, Slug: "a", CDPPort: 9222, DaemonPort: 9001, Aliases: []string{"work"}}
	if err := s.Save(a); err != nil {
		t.Fatalf("Save a: %v", err)
	}

	b := &models.WorkspaceDescriptor{Browser: models.BrowserChrome, Slug: "b", CDPPort: 9223, DaemonPort: 9002, Aliases: []string{"work"}}
	err := s.Save(b)
	if err == nil {
		t.Fatal("expected alias conflict error, got nil")
	}
	de, ok := ccerrors.As(err)
	if !ok || de.Code != ccerrors.CodeAliasConflict {
		t.Errorf("expected CodeAliasConflict, got %v", err)
	}
}

func TestStore_ResolveAlias(t *testing.T) {
	s := New(t.TempDir())
	d := &models.WorkspaceDescriptor{Browser: models.BrowserBrave, Slug: "scratch", CDPPort: 9300, DaemonPort: 9877, Aliases: []string{"sc", "scratchpad"}}
	if err := s.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.ResolveAlias("scratchpad")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if got.Slug != "scratch" {
		t.Errorf("got slug %q, want scratch", got.Slug)
	}

	if _, err := s.ResolveAlias("nope"); err == nil {
		t.Fatal("expected error for unknown alias")
	}
}

func TestStore_ResolveFallsBackToAlias(t *testing.T) {
	s := New(t.TempDir())
	d := &models.WorkspaceDescriptor{Browser: models.BrowserChrome, Slug: "research", CDPPort: 9222, DaemonPort: 9876, Aliases: []string{"r"}}
	if err := s.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Resolve(models.BrowserChrome, "r")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != "research" {
		t.Errorf("got slug %q, want research", got.Slug)
	}
}

func TestLockfile_WriteReadRemoveOverwritesStale(t *testing.T) {
	root := t.TempDir()

	l1 := NewLockfile(9876, "chrome", "research")
	if err := WriteLockfile(root, l1); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}

	// A second daemon starting must be able to overwrite the stale lockfile
	// unconditionally (spec.md §3, §9 Open Questions).
	l2 := NewLockfile(9877, "edge", "other")
	if err := WriteLockfile(root, l2); err != nil {
		t.Fatalf("WriteLockfile (overwrite): %v", err)
	}

	got, err := ReadLockfile(root)
	if err != nil {
		t.Fatalf("ReadLockfile: %v", err)
	}
	if got.Port != 9877 || got.Browser != "edge" {
		t.Errorf("got %+v, want the second lockfile's contents", got)
	}

	if err := RemoveLockfile(root); err != nil {
		t.Fatalf("RemoveLockfile: %v", err)
	}
	if _, err := ReadLockfile(root); err == nil {
		t.Fatal("expected error reading removed lockfile")
	}
}
