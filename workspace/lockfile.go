package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/ccbrowser/models"
)

// LockfilePath returns <root>/daemon.lock.
func LockfilePath(root string) string {
	return filepath.Join(root, "daemon.lock")
}

// WriteLockfile writes the daemon lockfile atomically. It tolerates (and
// overwrites) an existing lockfile unconditionally — spec.md §3 and §9
// Open Questions both note that stale lockfiles are not cleaned up
// automatically; the client CLI may read stale data, but the daemon's own
// start path must never fail just because a lockfile already exists.
func WriteLockfile(root string, l models.Lockfile) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	path := LockfilePath(root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadLockfile reads the daemon lockfile, if present.
func ReadLockfile(root string) (*models.Lockfile, error) {
	data, err := os.ReadFile(LockfilePath(root))
	if err != nil {
		return nil, err
	}
	var l models.Lockfile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// RemoveLockfile deletes the lockfile on graceful shutdown. Missing file is
// not an error.
func RemoveLockfile(root string) error {
	err := os.Remove(LockfilePath(root))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// NewLockfile builds a Lockfile record for the current process.
func NewLockfile(port int, browser, workspaceName string) models.Lockfile {
	return models.Lockfile{
		Port:      port,
		Browser:   browser,
		Workspace: workspaceName,
		PID:       os.Getpid(),
		Nonce:     uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
