package history

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bobmcallan/egxtrends/internal/models"
)

// RunTracker discards results of superseded runs. Each Begin issues a new
// generation token for a key; Commit stores a result only while its token is
// still the newest, so a slow earlier run never overwrites a later one.
type RunTracker struct {
	mu     sync.Mutex
	tokens map[string]string
	latest map[string]*models.Analysis
}

// NewRunTracker creates an empty tracker
func NewRunTracker() *RunTracker {
	return &RunTracker{
		tokens: make(map[string]string),
		latest: make(map[string]*models.Analysis),
	}
}

// Begin starts a new run for key and returns its token
func (t *RunTracker) Begin(key string) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.tokens[key] = token
	t.mu.Unlock()
	return token
}

// Commit stores analysis for key if token is current. It reports whether the
// result was accepted.
func (t *RunTracker) Commit(key, token string, analysis *models.Analysis) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token == "" || t.tokens[key] != token {
		return false
	}
	analysis.RunID = token
	t.latest[key] = analysis
	return true
}

// Latest returns the newest committed analysis for key
func (t *RunTracker) Latest(key string) (*models.Analysis, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.latest[key]
	return a, ok
}

// Current returns the newest token issued for key
func (t *RunTracker) Current(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokens[key]
}
