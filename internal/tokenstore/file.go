package tokenstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "tokenauth/internal/errors"
)

// FileStore keeps tokens in a JSON file
type FileStore struct {
	path         string
	reloadOnRead bool
	logger       *slog.Logger
	metrics      *instruments

	// mu serializes every save and every read-modify-write window
	mu sync.Mutex

	viewMu sync.RWMutex
	view   Tokens

	// writeFile writes and syncs the temporary file; replaced in tests
	writeFile func(f *os.File, data []byte) error
}

// NewFileStore creates a store backed by path. Nothing is read until the
// first Load.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("token store path is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &FileStore{
		path:         path,
		reloadOnRead: o.reloadOnRead,
		logger:       o.logger.With(slog.String("component", "token_store"), slog.String("path", path)),
		view:         Tokens{},
		writeFile:    writeAndSync,
	}
	metrics, err := newInstruments(o.meter, "file", s.viewLen)
	if err != nil {
		return nil, err
	}
	s.metrics = metrics

	return s, nil
}

// Path returns the primary file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file is initialized to an empty mapping; an
// unreadable one is logged and reported as empty.
func (s *FileStore) Load(ctx context.Context) Tokens {
	tokens, exists, err := s.readStrict()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load token store, serving empty mapping",
			slog.String("error", err.Error()))
		return Tokens{}
	}

	if !exists {
		s.initialize(ctx)
	}

	s.setView(tokens)
	return tokens
}

// initialize persists an empty mapping unless a writer created the file meanwhile
func (s *FileStore) initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return
	}

	s.logger.InfoContext(ctx, "token store file not found, creating empty store")
	if err := s.saveLocked(ctx, Tokens{}); err != nil {
		s.logger.ErrorContext(ctx, "failed to create token store file", slog.String("error", err.Error()))
	}
}

// Save persists tokens atomically
func (s *FileStore) Save(ctx context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(ctx, tokens)
}

// Update reads the file strictly, applies fn and saves the result, all under
// the write lock. A file that exists but cannot be parsed is never overwritten.
func (s *FileStore) Update(ctx context.Context, fn func(Tokens) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tokens, _, err := s.readStrict()
	if err != nil {
		s.logger.ErrorContext(ctx, "refusing mutation, token store is unreadable",
			slog.String("error", err.Error()))
		return apperrors.PersistenceError(apperrors.CodeStoreRead, "Token store could not be read", err)
	}

	if err := fn(tokens); err != nil {
		return err
	}

	return s.saveLocked(ctx, tokens)
}

// Get returns the record for token
func (s *FileStore) Get(ctx context.Context, token string) (Record, bool) {
	rec, ok := s.read(ctx)[token]
	return rec, ok
}

// Contains reports whether token has a record
func (s *FileStore) Contains(ctx context.Context, token string) bool {
	_, ok := s.Get(ctx, token)
	return ok
}

// Put stores rec under token and persists
func (s *FileStore) Put(ctx context.Context, token string, rec Record) error {
	return s.Update(ctx, func(t Tokens) error {
		t[token] = rec
		return nil
	})
}

// Remove deletes token and persists; removing an absent token is not an error
func (s *FileStore) Remove(ctx context.Context, token string) error {
	return s.Update(ctx, func(t Tokens) error {
		delete(t, token)
		return nil
	})
}

// Snapshot returns a copy of the current state
func (s *FileStore) Snapshot(ctx context.Context) Tokens {
	return s.read(ctx)
}

// Reload strictly re-reads the file into the view
func (s *FileStore) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, _, err := s.readStrict()
	if err != nil {
		s.logger.ErrorContext(ctx, "token store reload failed", slog.String("error", err.Error()))
		return 0, apperrors.PersistenceError(apperrors.CodeStoreRead, "Token store could not be read", err)
	}

	s.setView(tokens)
	s.logger.InfoContext(ctx, "token store reloaded", slog.Int("records", len(tokens)))
	return len(tokens), nil
}

func (s *FileStore) read(ctx context.Context) Tokens {
	if s.reloadOnRead {
		return s.Load(ctx)
	}

	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.Clone()
}

// readStrict decodes the file. exists is false when there is no file, in
// which case tokens is empty and err is nil. Blank files decode as empty.
func (s *FileStore) readStrict() (tokens Tokens, exists bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Tokens{}, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", s.path, err)
	}

	tokens = Tokens{}
	if len(bytes.TrimSpace(data)) == 0 {
		return tokens, true, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if tokens == nil {
		tokens = Tokens{}
	}
	return tokens, true, nil
}

// saveLocked writes tokens to a temporary sibling, syncs it and renames it
// over the primary path. On any failure the temporary file is removed and the
// primary file is untouched. Callers hold s.mu.
func (s *FileStore) saveLocked(ctx context.Context, tokens Tokens) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.recordSave(ctx, time.Since(start), err)
	}()

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return apperrors.PersistenceError(apperrors.CodeStoreWrite, "Token store could not be encoded", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.saveFailed(ctx, "create directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return s.saveFailed(ctx, "create temp file", err)
	}
	tmpName := tmp.Name()

	if err := s.writeFile(tmp, data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return s.saveFailed(ctx, "write temp file", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return s.saveFailed(ctx, "close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return s.saveFailed(ctx, "rename temp file", err)
	}

	if err := syncDir(dir); err != nil {
		s.logger.DebugContext(ctx, "directory sync skipped", slog.String("error", err.Error()))
	}

	s.setView(tokens)

	s.logger.DebugContext(ctx, "token store saved",
		slog.Int("records", len(tokens)),
		slog.Int("size_bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *FileStore) saveFailed(ctx context.Context, step string, err error) error {
	s.logger.ErrorContext(ctx, "failed to save token store",
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	return apperrors.PersistenceError(apperrors.CodeStoreWrite, "Token store could not be saved",
		fmt.Errorf("%s: %w", step, err))
}

func (s *FileStore) setView(tokens Tokens) {
	s.viewMu.Lock()
	s.view = tokens.Clone()
	s.viewMu.Unlock()
}

func (s *FileStore) viewLen() int {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return len(s.view)
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// syncDir makes the rename durable where the platform supports it
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
