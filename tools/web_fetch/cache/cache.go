// Package cache keeps extracted page text keyed by URL so repeated runs do
// not re-render the same pages.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"github.com/mohammad-safakhou/stockscout/internal/helpers"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
)

// Cache stores fetch outcomes. Get reports ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, url string) (models.Outcome, bool, error)
	Set(ctx context.Context, url string, outcome models.Outcome) error
}

const keyPrefix = "page:"

// Key is the storage key for url. Links differing only in tracking
// parameters or fragments share a key.
func Key(url string) string {
	sum := sha1.Sum([]byte(helpers.CanonicalURL(url)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

type entry struct {
	outcome models.Outcome
	expires time.Time
}

// Memory is a process-local cache with per-entry expiry.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewMemory returns a cache whose entries live for ttl; ttl <= 0 never expires.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, url string) (models.Outcome, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[Key(url)]
	if !ok {
		return models.Outcome{}, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, Key(url))
		return models.Outcome{}, false, nil
	}
	return e.outcome, true, nil
}

func (m *Memory) Set(_ context.Context, url string, outcome models.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{outcome: outcome}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[Key(url)] = e
	return nil
}
