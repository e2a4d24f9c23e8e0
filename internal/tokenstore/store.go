package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"tokenauth/internal/config"
)

// DateLayout is the calendar-day format of Record.Expires
const DateLayout = "2006-01-02"

// Record is the persisted state of one token
type Record struct {
	Expires string `json:"expires"`
}

// ParseExpiry parses a YYYY-MM-DD date as midnight in loc
func ParseExpiry(expires string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, expires, loc)
}

// Tokens maps a token to its record
type Tokens map[string]Record

// Clone returns an independent copy
func (t Tokens) Clone() Tokens {
	out := make(Tokens, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Store is the token persistence contract. Reads never fail: a store that
// cannot be read looks empty. Mutations are persisted before they return.
type Store interface {
	// Load reads the durable state, creating an empty one when absent
	Load(ctx context.Context) Tokens
	// Save replaces the durable state with tokens
	Save(ctx context.Context, tokens Tokens) error
	Get(ctx context.Context, token string) (Record, bool)
	Put(ctx context.Context, token string, rec Record) error
	Remove(ctx context.Context, token string) error
	Contains(ctx context.Context, token string) bool
	// Update runs fn on the current state under the write lock and saves
	// the result. Nothing is saved when fn returns an error.
	Update(ctx context.Context, fn func(Tokens) error) error
	// Snapshot returns a copy of the current state for read-only use
	Snapshot(ctx context.Context) Tokens
	// Reload re-reads the durable state and returns the record count
	Reload(ctx context.Context) (int, error)
}

// Option configures a store
type Option func(*options)

type options struct {
	logger       *slog.Logger
	meter        metric.Meter
	reloadOnRead bool
}

func defaultOptions() options {
	return options{
		logger:       slog.Default(),
		reloadOnRead: true,
	}
}

// WithLogger sets the store logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeter records store metrics on meter
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithReloadOnRead makes every read go back to durable storage when true;
// when false reads use the state of the last load, save or reload
func WithReloadOnRead(reload bool) Option {
	return func(o *options) {
		o.reloadOnRead = reload
	}
}

// Open builds the store selected by cfg and performs the startup load
func Open(ctx context.Context, cfg config.StoreConfig, opts ...Option) (Store, error) {
	opts = append([]Option{WithReloadOnRead(cfg.ReloadOnRead)}, opts...)

	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case config.StoreDriverFile:
		store, err = NewFileStore(cfg.Path, opts...)
	case config.StoreDriverMemory:
		store, err = NewMemoryStore(opts...)
	default:
		err = fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	store.Load(ctx)
	return store, nil
}
