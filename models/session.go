package models

import "time"

// Session is a named group of tabs with TTL (spec.md §3 Tab Session).
type Session struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	CreatedAt    time.Time              `json:"createdAt"`
	LastActivity time.Time              `json:"lastActivity"`
	TTLMs        int64                  `json:"ttlMs"`
	TabIDs       []string               `json:"tabIds"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Expired reports whether the session has exceeded its TTL as of now.
// A TTLMs of 0 means "never expires".
func (s *Session) Expired(now time.Time) bool {
	if s.TTLMs <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) >= time.Duration(s.TTLMs)*time.Millisecond
}

// PrunedSession is returned by a prune sweep so the caller can close the
// tabs that belonged to an expired session.
type PrunedSession struct {
	SessionID string   `json:"sessionId"`
	TabIDs    []string `json:"tabIds"`
}
