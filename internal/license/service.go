package license

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "tokenauth/internal/errors"
	"tokenauth/internal/tokenstore"
)

// ExpiringSoonDays is the window counted as expiring soon in Status
const ExpiringSoonDays = 7

const secondsPerDay = 24 * 60 * 60

// Mutation operation names used in logs and metrics
const (
	OpRegister = "register"
	OpExtend   = "extend"
	OpDelete   = "delete"
	OpReload   = "reload"
)

// Config holds the service dependencies and policy
type Config struct {
	// Location decides which calendar day "today" is; UTC when nil
	Location *time.Location
	// DefaultValidityDays is used by Register when no date is given
	DefaultValidityDays int
	// Now is the clock; time.Now when nil
	Now    func() time.Time
	Logger *slog.Logger
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Service verifies tokens and manages their lifecycle
type Service struct {
	store    tokenstore.Store
	loc      *time.Location
	validity int
	now      func() time.Time
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// RegisterResult describes a stored registration
type RegisterResult struct {
	Token   string
	Expires string
}

// ExtendResult describes an applied extension
type ExtendResult struct {
	Token      string
	OldExpires string
	NewExpires string
}

// StatusReport aggregates the store
type StatusReport struct {
	Total        int
	Active       int
	Expired      int
	ExpiringSoon int
	ServerTime   time.Time
}

// TokenEntry is one row of the masked listing
type TokenEntry struct {
	MaskedToken   string
	Expires       string
	Expired       bool
	DaysRemaining int
}

// NewService creates a verification service over store
func NewService(store tokenstore.Store, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if cfg.DefaultValidityDays <= 0 {
		return nil, fmt.Errorf("default validity must be positive, got %d", cfg.DefaultValidityDays)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer(TracerName)
	}

	metrics, err := NewMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    store,
		loc:      cfg.Location,
		validity: cfg.DefaultValidityDays,
		now:      cfg.Now,
		logger:   cfg.Logger.With(slog.String("component", "license_service")),
		metrics:  metrics,
		tracer:   cfg.Tracer,
	}, nil
}

// Verify checks token against the store
func (s *Service) Verify(ctx context.Context, channel Channel, token string) Verdict {
	ctx, span := s.tracer.Start(ctx, "license.verify",
		trace.WithAttributes(attribute.String("channel", string(channel))))
	defer span.End()

	verdict := s.verify(ctx, token)

	span.SetAttributes(attribute.String("outcome", string(verdict.Outcome)))
	s.metrics.recordVerification(ctx, channel, verdict.Outcome)

	level := slog.LevelInfo
	switch {
	case verdict.Outcome == OutcomeInvalidDate:
		level = slog.LevelError
	case !verdict.Valid():
		level = slog.LevelWarn
	}
	s.audit(ctx, level, "verify", token,
		slog.String("endpoint", string(channel)),
		slog.String("outcome", string(verdict.Outcome)),
		slog.String("reason", verdictReason(verdict)),
	)

	return verdict
}

func (s *Service) verify(ctx context.Context, token string) Verdict {
	if token == "" {
		return Verdict{Outcome: OutcomeMissingToken}
	}

	rec, ok := s.store.Get(ctx, token)
	if !ok {
		return Verdict{Outcome: OutcomeNotFound}
	}

	return s.classify(rec, s.today())
}

// classify applies the date checks of the verification flow to rec
func (s *Service) classify(rec tokenstore.Record, today time.Time) Verdict {
	expires, err := tokenstore.ParseExpiry(rec.Expires, time.UTC)
	if err != nil {
		return Verdict{Outcome: OutcomeInvalidDate, Expires: rec.Expires}
	}

	if expires.Before(today) {
		return Verdict{Outcome: OutcomeExpired, Expires: rec.Expires}
	}

	return Verdict{
		Outcome:       OutcomeValid,
		Expires:       rec.Expires,
		DaysRemaining: daysBetween(today, expires),
	}
}

// daysBetween counts whole days from one UTC midnight to a later one.
// time.Duration saturates near 292 years, so the count is taken from Unix seconds.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

// Register stores a new token. An empty expires means today plus the
// default validity.
func (s *Service) Register(ctx context.Context, token, expires string) (RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "license.register")
	defer span.End()

	if token == "" {
		return RegisterResult{}, s.mutationFailed(ctx, span, OpRegister, token,
			apperrors.InputError(apperrors.CodeMissingToken, "No token provided"))
	}

	if expires == "" {
		expires = s.today().AddDate(0, 0, s.validity).Format(tokenstore.DateLayout)
	}

	err := s.store.Update(ctx, func(t tokenstore.Tokens) error {
		if _, exists := t[token]; exists {
			return apperrors.Conflict(apperrors.CodeTokenExists, "Token already registered")
		}
		if _, err := tokenstore.ParseExpiry(expires, time.UTC); err != nil {
			return badDate(err)
		}
		t[token] = tokenstore.Record{Expires: expires}
		return nil
	})
	if err != nil {
		return RegisterResult{}, s.mutationFailed(ctx, span, OpRegister, token, err)
	}

	s.mutationSucceeded(ctx, OpRegister, token, slog.String("expires", expires))
	return RegisterResult{Token: token, Expires: expires}, nil
}

// Extend replaces the expiration date of an existing token
func (s *Service) Extend(ctx context.Context, token, expires string) (ExtendResult, error) {
	ctx, span := s.tracer.Start(ctx, "license.extend")
	defer span.End()

	if token == "" || expires == "" {
		code := apperrors.CodeMissingToken
		if token != "" {
			code = apperrors.CodeMissingDate
		}
		return ExtendResult{}, s.mutationFailed(ctx, span, OpExtend, token,
			apperrors.InputError(code, "Token and new expiration date required"))
	}

	var old string
	err := s.store.Update(ctx, func(t tokenstore.Tokens) error {
		rec, ok := t[token]
		if !ok {
			return apperrors.NotFound(apperrors.CodeTokenNotFound, "Token not found")
		}
		if _, err := tokenstore.ParseExpiry(expires, time.UTC); err != nil {
			return badDate(err)
		}
		old = rec.Expires
		t[token] = tokenstore.Record{Expires: expires}
		return nil
	})
	if err != nil {
		return ExtendResult{}, s.mutationFailed(ctx, span, OpExtend, token, err)
	}

	s.mutationSucceeded(ctx, OpExtend, token,
		slog.String("old_expires", old),
		slog.String("new_expires", expires))
	return ExtendResult{Token: token, OldExpires: old, NewExpires: expires}, nil
}

// Delete removes a token
func (s *Service) Delete(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "license.delete")
	defer span.End()

	if token == "" {
		return s.mutationFailed(ctx, span, OpDelete, token,
			apperrors.InputError(apperrors.CodeMissingToken, "No token provided"))
	}

	err := s.store.Update(ctx, func(t tokenstore.Tokens) error {
		if _, ok := t[token]; !ok {
			return apperrors.NotFound(apperrors.CodeTokenNotFound, "Token not found")
		}
		delete(t, token)
		return nil
	})
	if err != nil {
		return s.mutationFailed(ctx, span, OpDelete, token, err)
	}

	s.mutationSucceeded(ctx, OpDelete, token)
	return nil
}

// Status counts active, expired and soon-expiring tokens. Records with an
// unreadable date count as expired.
func (s *Service) Status(ctx context.Context) StatusReport {
	now := s.now()
	today := s.dayOf(now)
	report := StatusReport{ServerTime: now.In(s.loc)}

	for _, rec := range s.store.Snapshot(ctx) {
		report.Total++
		v := s.classify(rec, today)
		if !v.Valid() {
			report.Expired++
			continue
		}
		report.Active++
		if v.DaysRemaining <= ExpiringSoonDays {
			report.ExpiringSoon++
		}
	}

	return report
}

// List returns every record with a masked token, ordered by token
func (s *Service) List(ctx context.Context) []TokenEntry {
	today := s.today()
	tokens := s.store.Snapshot(ctx)

	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]TokenEntry, 0, len(keys))
	for _, k := range keys {
		rec := tokens[k]
		v := s.classify(rec, today)
		entry := TokenEntry{
			MaskedToken: MaskToken(k),
			Expires:     rec.Expires,
			Expired:     !v.Valid(),
		}
		if v.Valid() {
			entry.DaysRemaining = v.DaysRemaining
		}
		entries = append(entries, entry)
	}

	return entries
}

// Reload re-reads the store from durable storage
func (s *Service) Reload(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "license.reload")
	defer span.End()

	count, err := s.store.Reload(ctx)
	if err != nil {
		return 0, s.mutationFailed(ctx, span, OpReload, "", err)
	}

	s.mutationSucceeded(ctx, OpReload, "", slog.Int("records", count))
	return count, nil
}

// today is the current calendar day in the service location, as UTC midnight
func (s *Service) today() time.Time {
	return s.dayOf(s.now())
}

func (s *Service) dayOf(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) mutationSucceeded(ctx context.Context, op, token string, attrs ...slog.Attr) {
	s.metrics.recordMutation(ctx, op, "ok")
	attrs = append(attrs, slog.String("outcome", "ok"))
	s.audit(ctx, slog.LevelInfo, op, token, attrs...)
}

func (s *Service) mutationFailed(ctx context.Context, span trace.Span, op, token string, err error) error {
	kind := apperrors.KindOf(err)
	s.metrics.recordMutation(ctx, op, string(kind))

	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))

	level := slog.LevelWarn
	if kind == apperrors.KindPersistence || kind == apperrors.KindInternal {
		level = slog.LevelError
	}
	s.audit(ctx, level, op, token,
		slog.String("outcome", string(kind)),
		slog.String("reason", err.Error()),
	)
	return err
}

// audit writes the per-operation record. Tokens are always masked.
func (s *Service) audit(ctx context.Context, level slog.Level, op, token string, attrs ...slog.Attr) {
	masked := "unknown"
	if token != "" {
		masked = MaskToken(token)
	}
	attrs = append([]slog.Attr{
		slog.String("operation", op),
		slog.String("token", masked),
	}, attrs...)
	s.logger.LogAttrs(ctx, level, "token audit", attrs...)
}

func verdictReason(v Verdict) string {
	switch v.Outcome {
	case OutcomeValid:
		return fmt.Sprintf("verification successful, %d days remaining", v.DaysRemaining)
	case OutcomeMissingToken:
		return "no token provided"
	case OutcomeNotFound:
		return "token not found"
	case OutcomeExpired:
		return fmt.Sprintf("token expired on %s", v.Expires)
	default:
		return fmt.Sprintf("invalid expiration date %q", v.Expires)
	}
}

func badDate(err error) error {
	return apperrors.Wrap(apperrors.KindInput, apperrors.CodeBadDate, "Invalid date format. Use YYYY-MM-DD", err)
}
