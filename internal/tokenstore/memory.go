package tokenstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is a non-persistent Store
type MemoryStore struct {
	mu      sync.RWMutex
	tokens  Tokens
	logger  *slog.Logger
	metrics *instruments
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) (*MemoryStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &MemoryStore{
		tokens: Tokens{},
		logger: o.logger.With(slog.String("component", "token_store"), slog.String("driver", "memory")),
	}
	metrics, err := newInstruments(o.meter, "memory", s.count)
	if err != nil {
		return nil, err
	}
	s.metrics = metrics

	return s, nil
}

// Load returns a copy of the current mapping
func (s *MemoryStore) Load(ctx context.Context) Tokens {
	return s.Snapshot(ctx)
}

// Save replaces the mapping with a copy of tokens
func (s *MemoryStore) Save(ctx context.Context, tokens Tokens) error {
	start := time.Now()
	s.mu.Lock()
	s.tokens = tokens.Clone()
	s.mu.Unlock()
	s.metrics.recordSave(ctx, time.Since(start), nil)
	return nil
}

// Get returns the record for token
func (s *MemoryStore) Get(_ context.Context, token string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[token]
	return rec, ok
}

// Contains reports whether token is stored
func (s *MemoryStore) Contains(ctx context.Context, token string) bool {
	_, ok := s.Get(ctx, token)
	return ok
}

// Put stores rec under token
func (s *MemoryStore) Put(ctx context.Context, token string, rec Record) error {
	return s.Update(ctx, func(t Tokens) error {
		t[token] = rec
		return nil
	})
}

// Remove deletes token; a missing token is not an error
func (s *MemoryStore) Remove(ctx context.Context, token string) error {
	return s.Update(ctx, func(t Tokens) error {
		delete(t, token)
		return nil
	})
}

// Update applies fn to a copy and commits it only when fn succeeds
func (s *MemoryStore) Update(ctx context.Context, fn func(Tokens) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	next := s.tokens.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.tokens = next
	s.metrics.recordSave(ctx, time.Since(start), nil)
	return nil
}

// Snapshot returns a copy of the current mapping
func (s *MemoryStore) Snapshot(_ context.Context) Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Clone()
}

// Reload has nothing to re-read; it reports the record count
func (s *MemoryStore) Reload(ctx context.Context) (int, error) {
	n := s.count()
	s.logger.InfoContext(ctx, "token store reloaded", slog.Int("records", n))
	return n, nil
}

func (s *MemoryStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
