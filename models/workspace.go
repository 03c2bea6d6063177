// Package models holds the DTOs shared across the daemon: workspace
// descriptors, active-session state, recordings, and the HTTP request/
// response envelopes. Keeping them in one package (mirroring the teacher's
// flat models/ package) avoids import cycles between workspace/, session/,
// recorder/, and api/.
package models

// BrowserKind enumerates the supported Chromium-family browsers.
type BrowserKind string

const (
	BrowserChrome BrowserKind = "chrome"
	BrowserEdge   BrowserKind = "edge"
	BrowserBrave  BrowserKind = "brave"
)

// Mode is the interaction timing mode (spec.md §4.5).
type Mode string

const (
	ModeFast    Mode = "fast"
	ModeHuman   Mode = "human"
	ModeStealth Mode = "stealth"
)

// WorkspaceDescriptor is the persistent JSON descriptor for a workspace
// (spec.md §3 Workspace, §6 workspace.json).
type WorkspaceDescriptor struct {
	DisplayName string      `json:"displayName"`
	Browser     BrowserKind `json:"browser"`
	Slug        string      `json:"slug"`
	CDPPort     int         `json:"cdpPort"`
	DaemonPort  int         `json:"daemonPort"`
	Purpose     string      `json:"purpose,omitempty"`
	Aliases     []string    `json:"aliases,omitempty"`
	Favorites   []string    `json:"favorites,omitempty"`
	DefaultMode Mode        `json:"defaultMode,omitempty"`
	Indicator   bool        `json:"indicator"`
}

// Key returns the (browser, name) identity used to address this workspace.
func (d *WorkspaceDescriptor) Key() WorkspaceKey {
	return WorkspaceKey{Browser: d.Browser, Name: d.Slug}
}

// WorkspaceKey identifies a workspace by (browser, name).
type WorkspaceKey struct {
	Browser BrowserKind
	Name    string
}

// Lockfile is the process-wide daemon lockfile (spec.md §3, §6). Nonce is a
// random identifier distinct from PID, so a client polling the lockfile can
// tell "the same daemon process is still running" apart from "a new daemon
// reused this PID" on platforms that recycle PIDs quickly.
type Lockfile struct {
	Port      int    `json:"port"`
	Browser   string `json:"browser"`
	Workspace string `json:"workspace"`
	PID       int    `json:"pid"`
	Nonce     string `json:"nonce"`
	StartedAt string `json:"startedAt"`
}

// ActiveSession is the process-wide active-session record (spec.md §3).
// Invariant: Incognito == true implies WorkspaceName == "".
type ActiveSession struct {
	BrowserKind   BrowserKind
	WorkspaceName string
	CDPPort       int
	Incognito     bool
}

// Valid reports whether the active session satisfies its invariant.
func (s ActiveSession) Valid() bool {
	if s.Incognito && s.WorkspaceName != "" {
		return false
	}
	return true
}

// IsActive reports whether a session has been started (zero value means
// "none").
func (s ActiveSession) IsActive() bool {
	return s.CDPPort != 0
}
