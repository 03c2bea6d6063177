package models

// StartRequest is the payload for POST /start (spec.md §4.1).
type StartRequest struct {
	Browser       BrowserKind `json:"browser" binding:"required,oneof=chrome edge brave"`
	Workspace     string      `json:"workspace,omitempty"`
	Incognito     bool        `json:"incognito,omitempty"`
	Headless      bool        `json:"headless,omitempty"`
	SystemProfile bool        `json:"systemProfile,omitempty"`
}

// StartResponse is returned by /start.
type StartResponse struct {
	Started bool      `json:"started"`
	CDPPort int       `json:"cdpPort"`
	Tabs    []TabInfo `json:"tabs"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Active        bool        `json:"active"`
	Browser       BrowserKind `json:"browser,omitempty"`
	WorkspaceName string      `json:"workspace,omitempty"`
	CDPPort       int         `json:"cdpPort,omitempty"`
	Incognito     bool        `json:"incognito,omitempty"`
	Mode          Mode        `json:"mode"`
}

// BrowserInfo describes one supported browser kind's availability on the host.
type BrowserInfo struct {
	Kind      BrowserKind `json:"kind"`
	Installed bool        `json:"installed"`
	Path      string      `json:"path,omitempty"`
}

// BrowsersResponse is returned by GET /browsers.
type BrowsersResponse struct {
	Browsers []BrowserInfo `json:"browsers"`
}

// ProfilesResponse is returned by GET /profiles (spec.md §6 workspace.json listing).
type ProfilesResponse struct {
	Workspaces []*WorkspaceDescriptor `json:"workspaces"`
}

// ModeRequest is the payload for POST /mode.
type ModeRequest struct {
	Mode Mode `json:"mode" binding:"required,oneof=fast human stealth"`
}

// ModeResponse is returned by GET and POST /mode.
type ModeResponse struct {
	Mode Mode `json:"mode"`
}

// SessionCreateRequest is the payload for POST /sessions/create (spec.md §4.7).
type SessionCreateRequest struct {
	Name     string                 `json:"name" binding:"required"`
	TTLMs    int64                  `json:"ttlMs,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session *Session `json:"session"`
}

// SessionsListResponse is returned by GET /sessions.
type SessionsListResponse struct {
	Sessions []*Session `json:"sessions"`
}

// SessionIDRequest addresses a session by id, for heartbeat/close.
type SessionIDRequest struct {
	ID string `json:"id" binding:"required"`
}

// SessionsPruneResponse is returned by POST /sessions/prune.
type SessionsPruneResponse struct {
	Pruned []PrunedSession `json:"pruned"`
}

// RecordStartRequest is the payload for POST /record/start (spec.md §4.8).
type RecordStartRequest struct {
	Name string `json:"name" binding:"required"`
}

// RecordStopResponse is returned by POST /record/stop.
type RecordStopResponse struct {
	Recording *Recording `json:"recording"`
	SavedPath string     `json:"savedPath,omitempty"`
}

// RecordStatusResponse is returned by GET /record/status.
type RecordStatusResponse struct {
	Active bool `json:"active"`
	Steps  int  `json:"steps"`
}

// ReplayRequest is the payload for POST /replay. Exactly one of Name
// (look up a saved recording by fuzzy slug match) or Steps (an inline
// recording) is expected.
type ReplayRequest struct {
	Name  string `json:"name,omitempty"`
	Steps []Step `json:"steps,omitempty"`
	Mode  Mode   `json:"mode,omitempty"`
}

// ReplayResponse is returned by /replay.
type ReplayResponse struct {
	Summary *ReplaySummary `json:"summary"`
}

// CaptchaDetectResponse is returned by POST /captcha/detect.
type CaptchaDetectResponse struct {
	Detected bool   `json:"detected"`
	Type     string `json:"type,omitempty"`
	Selector string `json:"selector,omitempty"`
}

// CaptchaSolveResponse is returned by POST /captcha/solve.
type CaptchaSolveResponse struct {
	Solved   bool   `json:"solved"`
	Type     string `json:"type,omitempty"`
	Attempts int    `json:"attempts"`
}
