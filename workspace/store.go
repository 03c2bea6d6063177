// Package workspace implements the Workspace Config Store (spec.md §4
// "Workspace Config Store"): it resolves an alias or (browser, name) pair
// to a persisted workspace.json descriptor, and owns the daemon's
// process-wide lockfile. Grounded on the teacher's config.Load() style:
// small, direct functions reading/writing plain files, no premature
// caching (DESIGN NOTES §9 accepts a linear directory scan at this scale).
package workspace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

// Store reads and writes workspace descriptors under Root.
type Store struct {
	Root string

	mu sync.Mutex
}

// New creates a Store rooted at root (typically config.PathConfig.Root).
func New(root string) *Store {
	return &Store{Root: root}
}

// dirFor returns <Root>/<browser>-<slug>.
func (s *Store) dirFor(browser models.BrowserKind, slug string) string {
	return filepath.Join(s.Root, fmt.Sprintf("%s-%s", browser, slug))
}

// descriptorPath returns <Root>/<browser>-<slug>/workspace.json.
func (s *Store) descriptorPath(browser models.BrowserKind, slug string) string {
	return filepath.Join(s.dirFor(browser, slug), "workspace.json")
}

// Get loads the descriptor for an exact (browser, name) pair.
func (s *Store) Get(browser models.BrowserKind, slug string) (*models.WorkspaceDescriptor, error) {
	path := s.descriptorPath(browser, slug)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeConfigNotFound, fmt.Sprintf("workspace %s/%s not found", browser, slug), err)
	}
	var d models.WorkspaceDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, ccerrors.New(ccerrors.CodeConfigNotFound, "workspace descriptor is corrupt", err)
	}
	return &d, nil
}

// All returns every workspace descriptor found under Root by scanning
// sibling directories for a workspace.json file. Acceptable at current
// scale (dozens of workspaces); see DESIGN NOTES §9 on caching if this
// changes.
func (s *Store) All() ([]*models.WorkspaceDescriptor, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*models.WorkspaceDescriptor
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(s.Root, e.Name(), "workspace.json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var d models.WorkspaceDescriptor
		if err := json.Unmarshal(data, &d); err != nil {
			slog.Warn("workspace: skipping corrupt descriptor", "path", path, "error", err)
			continue
		}
		out = append(out, &d)
	}
	return out, nil
}

// ResolveAlias returns the first workspace whose Aliases contains query
// (spec.md §6: "the alias resolver scans all sibling directories and
// returns the first workspace whose aliases contains the queried name").
func (s *Store) ResolveAlias(query string) (*models.WorkspaceDescriptor, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	for _, d := range all {
		for _, a := range d.Aliases {
			if a == query {
				return d, nil
			}
		}
	}
	return nil, ccerrors.New(ccerrors.CodeConfigNotFound, fmt.Sprintf("no workspace has alias %q", query), nil)
}

// Resolve resolves either an exact (browser, name) pair or, if name looks
// like an alias (no matching descriptor under that exact slug), falls back
// to ResolveAlias.
func (s *Store) Resolve(browser models.BrowserKind, nameOrAlias string) (*models.WorkspaceDescriptor, error) {
	if d, err := s.Get(browser, nameOrAlias); err == nil {
		return d, nil
	}
	return s.ResolveAlias(nameOrAlias)
}

// Save writes the descriptor atomically (write to a temp file, then
// rename), after checking that every alias it declares is still globally
// unique (spec.md §3 Workspace invariant: "aliases are globally unique
// across workspaces").
func (s *Store) Save(d *models.WorkspaceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.All()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.Slug == d.Slug && existing.Browser == d.Browser {
			continue // overwriting ourselves is fine
		}
		for _, a := range d.Aliases {
			for _, ea := range existing.Aliases {
				if a == ea {
					return ccerrors.New(ccerrors.CodeAliasConflict,
						fmt.Sprintf("alias %q already used by workspace %s/%s", a, existing.Browser, existing.Slug), nil)
				}
			}
		}
	}

	dir := s.dirFor(d.Browser, d.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	final := s.descriptorPath(d.Browser, d.Slug)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// WorkspaceDir returns the directory a workspace's persistent user-data and
// sessions.json live under (used by launcher and session).
func (s *Store) WorkspaceDir(browser models.BrowserKind, slug string) string {
	return s.dirFor(browser, slug)
}
