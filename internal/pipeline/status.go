// Package pipeline runs the six-agent newsletter generation pipeline:
// sequential execution with per-step retries, persisted outputs, and a
// transient in-process status map for live polling.
package pipeline

import "sync"

// Status is the live state of an in-flight pipeline run.
type Status struct {
	Status       string  `json:"status"`
	CurrentAgent *string `json:"current_agent"`
}

// Tracker holds per-newsletter pipeline status in memory. It is transient:
// a restart clears it, and persisted newsletter status takes over.
type Tracker struct {
	mu     sync.RWMutex
	active map[string]Status
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]Status)}
}

// Set records the live status for a newsletter. currentAgent may be empty
// when no agent is executing.
func (t *Tracker) Set(newsletterID, status, currentAgent string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Status{Status: status}
	if currentAgent != "" {
		s.CurrentAgent = &currentAgent
	}
	t.active[newsletterID] = s
}

// Get returns the live status for a newsletter, if any.
func (t *Tracker) Get(newsletterID string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.active[newsletterID]
	return s, ok
}

// Clear drops the live status for a newsletter.
func (t *Tracker) Clear(newsletterID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, newsletterID)
}
