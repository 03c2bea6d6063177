// Package session implements the Session Manager (spec.md §3 Tab Session,
// §4.7): named groups of tabs with a TTL, a heartbeat that resets it,
// persistence to a JSON file, and a background expiry sweep.
//
// Grounded on the teacher's engine.DomainMemory (engine/domain_memory.go):
// the same "map guarded by a mutex, TTL per entry, background
// time.Ticker-driven cleanup loop stopped via a done channel" shape, scaled
// up from a single remembered string per domain to a full Session record
// with its own tab-id list and metadata.
package session

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newSessionID returns "sess_" followed by 8 random lowercase-alphanumeric
// characters (spec.md §3), sourced from crypto/rand the way the teacher
// sources its webhook HMAC secrets, not math/rand.
func newSessionID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	out := make([]byte, 8)
	for i, v := range b {
		out[i] = idAlphabet[int(v)%len(idAlphabet)]
	}
	return "sess_" + string(out)
}

// Manager holds every active session for one workspace, in memory, behind a
// single mutex (spec.md §5's single-lock concurrency model).
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*models.Session
	defaultTTL   time.Duration
	sweepEvery   time.Duration
	persistPath  string
	done         chan struct{}
	stopOnce     sync.Once
}

// New creates a Manager. persistPath is the sessions.json file this
// manager's Persist/Load calls read and write; it is typically
// <workspaceDir>/sessions.json.
func New(defaultTTL, sweepEvery time.Duration, persistPath string) *Manager {
	return &Manager{
		sessions:    make(map[string]*models.Session),
		defaultTTL:  defaultTTL,
		sweepEvery:  sweepEvery,
		persistPath: persistPath,
		done:        make(chan struct{}),
	}
}

// StartSweep launches the background expiry sweep goroutine. Call once per
// Manager lifetime; Stop terminates it.
func (m *Manager) StartSweep() {
	go m.sweepLoop()
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			pruned := m.Prune(time.Now())
			if len(pruned) > 0 {
				slog.Info("session: pruned expired sessions", "count", len(pruned))
			}
		}
	}
}

// Stop terminates the background sweep goroutine. Safe to call multiple
// times and safe to call even if StartSweep was never called.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

// Create starts a new named session. If ttlMs is 0, the session never
// expires (spec.md §3); if ttlMs is negative, defaultTTL is used.
func (m *Manager) Create(name string, ttlMs int64) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttlMs < 0 {
		ttlMs = m.defaultTTL.Milliseconds()
	}

	now := time.Now()
	s := &models.Session{
		ID:           newSessionID(),
		Name:         name,
		CreatedAt:    now,
		LastActivity: now,
		TTLMs:        ttlMs,
		TabIDs:       []string{},
	}
	m.sessions[s.ID] = s
	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ccerrors.New(ccerrors.CodeSessionMismatch, fmt.Sprintf("no session %q", id), nil)
	}
	return s, nil
}

// AddTab associates a tab id with a session and refreshes its heartbeat.
func (m *Manager) AddTab(id, tabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ccerrors.New(ccerrors.CodeSessionMismatch, fmt.Sprintf("no session %q", id), nil)
	}
	for _, t := range s.TabIDs {
		if t == tabID {
			s.LastActivity = time.Now()
			return nil
		}
	}
	s.TabIDs = append(s.TabIDs, tabID)
	s.LastActivity = time.Now()
	return nil
}

// Touch resets a session's TTL clock (heartbeat).
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ccerrors.New(ccerrors.CodeSessionMismatch, fmt.Sprintf("no session %q", id), nil)
	}
	s.LastActivity = time.Now()
	return nil
}

// List returns a snapshot of all current sessions.
func (m *Manager) List() []*models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Delete removes a session by id regardless of its TTL (spec.md §4.7
// POST /sessions/close: an explicit close ends the session immediately,
// independent of whether its TTL has actually elapsed).
func (m *Manager) Delete(id string) (models.PrunedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.PrunedSession{}, ccerrors.New(ccerrors.CodeSessionMismatch, fmt.Sprintf("no session %q", id), nil)
	}
	delete(m.sessions, id)
	return models.PrunedSession{SessionID: id, TabIDs: s.TabIDs}, nil
}

// Prune removes every session expired as of now and returns what was
// removed (with their tab ids) so the caller can close those tabs.
func (m *Manager) Prune(now time.Time) []models.PrunedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned []models.PrunedSession
	for id, s := range m.sessions {
		if s.Expired(now) {
			pruned = append(pruned, models.PrunedSession{SessionID: id, TabIDs: s.TabIDs})
			delete(m.sessions, id)
		}
	}
	return pruned
}

// Reconcile removes tabIDs that no longer correspond to a live tab (e.g.
// because the user closed it manually) from every session's TabIDs list.
func (m *Manager) Reconcile(liveTabIDs map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		filtered := s.TabIDs[:0]
		for _, t := range s.TabIDs {
			if _, ok := liveTabIDs[t]; ok {
				filtered = append(filtered, t)
			}
		}
		s.TabIDs = filtered
	}
}

// Persist writes every session to persistPath as JSON (called on graceful
// shutdown).
func (m *Manager) Persist() error {
	m.mu.Lock()
	sessions := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	if m.persistPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.persistPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.persistPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.persistPath)
}

// Load reads sessions from persistPath (called on startup), skipping any
// already expired at load time.
func (m *Manager) Load() error {
	if m.persistPath == "" {
		return nil
	}
	data, err := os.ReadFile(m.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var sessions []*models.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range sessions {
		if s.Expired(now) {
			continue
		}
		m.sessions[s.ID] = s
	}
	return nil
}
