// Package cache holds short-lived shared state: idempotency claims and the
// analytics summary.
package cache

import (
	"context"
	"sync"
	"time"

	"kudos-cafe/internal/model"
)

// IdempotencyStore records request keys so a repeated submission is
// detected.
type IdempotencyStore interface {
	// Claim records key under scope. It returns false when the key was
	// already claimed and has not expired.
	Claim(ctx context.Context, scope, key string) (bool, error)

	// Release forgets a claim so the request can be retried.
	Release(ctx context.Context, scope, key string) error
}

// AnalyticsCache stores the most recent analytics summary.
type AnalyticsCache interface {
	Get(ctx context.Context) (*model.AnalyticsSummary, bool, error)
	Set(ctx context.Context, summary *model.AnalyticsSummary) error
	Invalidate(ctx context.Context) error
}

// MemoryStore implements both interfaces in process memory. It is used when
// Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	claims  map[string]time.Time
	summary *model.AnalyticsSummary
	expires time.Time

	idemTTL      time.Duration
	analyticsTTL time.Duration
	now          func() time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(idemTTL, analyticsTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		claims:       make(map[string]time.Time),
		idemTTL:      idemTTL,
		analyticsTTL: analyticsTTL,
		now:          time.Now,
	}
}

func (m *MemoryStore) Claim(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := scope + ":" + key
	if exp, ok := m.claims[k]; ok && now.Before(exp) {
		return false, nil
	}

	// Sweep lazily so the map does not grow without bound.
	for ck, exp := range m.claims {
		if !now.Before(exp) {
			delete(m.claims, ck)
		}
	}

	m.claims[k] = now.Add(m.idemTTL)
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, scope+":"+key)
	return nil
}

func (m *MemoryStore) Get(context.Context) (*model.AnalyticsSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.summary == nil || !m.now().Before(m.expires) {
		return nil, false, nil
	}
	s := *m.summary
	return &s, true, nil
}

func (m *MemoryStore) Set(_ context.Context, summary *model.AnalyticsSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *summary
	m.summary = &s
	m.expires = m.now().Add(m.analyticsTTL)
	return nil
}

func (m *MemoryStore) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = nil
	return nil
}
