package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tokenauth/internal/errors"
	"tokenauth/internal/shared/testutil"
	"tokenauth/internal/tokenstore"
)

type fixture struct {
	svc   *Service
	store tokenstore.Store
	logs  *testutil.BufferedSlogHandler
}

// newFixture builds a service over a memory store seeded with records, on 2024-06-15
func newFixture(t *testing.T, records map[string]string) fixture {
	t.Helper()

	store, err := tokenstore.NewMemoryStore()
	require.NoError(t, err)
	for token, expires := range records {
		require.NoError(t, store.Put(context.Background(), token, tokenstore.Record{Expires: expires}))
	}

	logger, logs := testutil.NewTestLogger(t)
	svc, err := NewService(store, Config{
		DefaultValidityDays: 365,
		Now:                 testutil.FixedClock(2024, time.June, 15),
		Logger:              logger,
	})
	require.NoError(t, err)

	return fixture{svc: svc, store: store, logs: logs}
}

func TestNewServiceValidation(t *testing.T) {
	store, err := tokenstore.NewMemoryStore()
	require.NoError(t, err)

	_, err = NewService(nil, Config{DefaultValidityDays: 1})
	assert.Error(t, err)

	_, err = NewService(store, Config{})
	assert.Error(t, err)

	svc, err := NewService(store, Config{DefaultValidityDays: 30})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, svc.loc)
}

func TestVerify(t *testing.T) {
	f := newFixture(t, map[string]string{
		"future":    "2024-07-15",
		"today":     "2024-06-15",
		"yesterday": "2024-06-14",
		"broken":    "15/06/2024",
		"far":       "2500-06-15",
		"perpetual": "9999-12-31",
	})

	tests := []struct {
		name     string
		token    string
		expected Verdict
	}{
		{name: "missing", token: "", expected: Verdict{Outcome: OutcomeMissingToken}},
		{name: "unknown", token: "nope", expected: Verdict{Outcome: OutcomeNotFound}},
		{name: "invalid date", token: "broken", expected: Verdict{Outcome: OutcomeInvalidDate, Expires: "15/06/2024"}},
		{name: "expired", token: "yesterday", expected: Verdict{Outcome: OutcomeExpired, Expires: "2024-06-14"}},
		{name: "valid on expiration day", token: "today", expected: Verdict{Outcome: OutcomeValid, Expires: "2024-06-15", DaysRemaining: 0}},
		{name: "valid", token: "future", expected: Verdict{Outcome: OutcomeValid, Expires: "2024-07-15", DaysRemaining: 30}},
		{name: "valid beyond duration range", token: "far", expected: Verdict{Outcome: OutcomeValid, Expires: "2500-06-15", DaysRemaining: 173855}},
		{name: "perpetual date", token: "perpetual", expected: Verdict{Outcome: OutcomeValid, Expires: "9999-12-31", DaysRemaining: 2913007}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.svc.Verify(context.Background(), ChannelDesktop, tt.token)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected.Outcome == OutcomeValid, got.Valid())
		})
	}
}

func TestVerifyUsesConfiguredTimeZone(t *testing.T) {
	store, err := tokenstore.NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "t", tokenstore.Record{Expires: "2024-06-15"}))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-06-15 20:00 UTC is already 2024-06-16 in Tokyo
	at := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time { return at }

	utcSvc, err := NewService(store, Config{DefaultValidityDays: 1, Now: clock})
	require.NoError(t, err)
	tokyoSvc, err := NewService(store, Config{DefaultValidityDays: 1, Now: clock, Location: tokyo})
	require.NoError(t, err)

	assert.Equal(t, OutcomeValid, utcSvc.Verify(context.Background(), ChannelDesktop, "t").Outcome)
	assert.Equal(t, OutcomeExpired, tokyoSvc.Verify(context.Background(), ChannelDesktop, "t").Outcome)
}

func TestVerifyAuditLogMasksToken(t *testing.T) {
	token := "AST_288E88324EDE87BF_13_04DB2EDC"
	f := newFixture(t, map[string]string{token: "2024-06-10"})

	f.svc.Verify(context.Background(), ChannelExtension, token)

	records := f.logs.FindRecords("token audit")
	require.Len(t, records, 1)
	attrs := records[0].Attrs
	assert.Equal(t, "AST_288E88324EDE87BF...", attrs["token"])
	assert.Equal(t, "extension", attrs["endpoint"])
	assert.Equal(t, "token_expired", attrs["outcome"])
	assert.Equal(t, "token expired on 2024-06-10", attrs["reason"])
	assert.Equal(t, slog.LevelWarn, records[0].Level)

	for _, r := range f.logs.GetRecords() {
		for _, v := range r.Attrs {
			assert.NotEqual(t, token, v, "full token must never be logged")
		}
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name          string
		seed          map[string]string
		token         string
		expires       string
		expectedKind  apperrors.Kind
		expectedCode  string
		expectedStore map[string]string
	}{
		{
			name:          "explicit date",
			token:         "T1",
			expires:       "2099-01-01",
			expectedStore: map[string]string{"T1": "2099-01-01"},
		},
		{
			name:          "default validity",
			token:         "T1",
			expectedStore: map[string]string{"T1": "2025-06-15"},
		},
		{
			name:         "missing token",
			token:        "",
			expires:      "2099-01-01",
			expectedKind: apperrors.KindInput,
			expectedCode: apperrors.CodeMissingToken,
		},
		{
			name:          "bad date",
			token:         "T1",
			expires:       "2099-13-01",
			expectedKind:  apperrors.KindInput,
			expectedCode:  apperrors.CodeBadDate,
			expectedStore: map[string]string{},
		},
		{
			name:          "duplicate keeps the first record",
			seed:          map[string]string{"T1": "2030-01-01"},
			token:         "T1",
			expires:       "2099-01-01",
			expectedKind:  apperrors.KindConflict,
			expectedCode:  apperrors.CodeTokenExists,
			expectedStore: map[string]string{"T1": "2030-01-01"},
		},
		{
			name:          "duplicate is reported before a bad date",
			seed:          map[string]string{"T1": "2030-01-01"},
			token:         "T1",
			expires:       "garbage",
			expectedKind:  apperrors.KindConflict,
			expectedCode:  apperrors.CodeTokenExists,
			expectedStore: map[string]string{"T1": "2030-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.seed)

			res, err := f.svc.Register(context.Background(), tt.token, tt.expires)

			if tt.expectedKind != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedKind)
				e, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, e.Code)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.token, res.Token)
				assert.Equal(t, tt.expectedStore[tt.token], res.Expires)
			}

			if tt.expectedStore != nil {
				assert.Equal(t, tt.expectedStore, flatten(f.store.Snapshot(context.Background())))
			}
		})
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		expires      string
		expectedKind apperrors.Kind
		expectedCode string
		expectedOld  string
	}{
		{name: "extends", token: "T1", expires: "2031-01-01", expectedOld: "2030-01-01"},
		{name: "shortening is allowed", token: "T1", expires: "2000-01-01", expectedOld: "2030-01-01"},
		{name: "missing token", token: "", expires: "2031-01-01", expectedKind: apperrors.KindInput, expectedCode: apperrors.CodeMissingToken},
		{name: "missing date", token: "T1", expires: "", expectedKind: apperrors.KindInput, expectedCode: apperrors.CodeMissingDate},
		{name: "unknown token", token: "T2", expires: "2031-01-01", expectedKind: apperrors.KindNotFound, expectedCode: apperrors.CodeTokenNotFound},
		{name: "unknown token before bad date", token: "T2", expires: "bad", expectedKind: apperrors.KindNotFound, expectedCode: apperrors.CodeTokenNotFound},
		{name: "bad date", token: "T1", expires: "2031/01/01", expectedKind: apperrors.KindInput, expectedCode: apperrors.CodeBadDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"T1": "2030-01-01"})

			res, err := f.svc.Extend(context.Background(), tt.token, tt.expires)

			if tt.expectedKind != "" {
				assert.ErrorIs(t, err, tt.expectedKind)
				e, _ := apperrors.As(err)
				assert.Equal(t, tt.expectedCode, e.Code)
				assert.Equal(t, map[string]string{"T1": "2030-01-01"}, flatten(f.store.Snapshot(context.Background())))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, ExtendResult{Token: tt.token, OldExpires: tt.expectedOld, NewExpires: tt.expires}, res)
			assert.Equal(t, tt.expires, f.svc.Verify(context.Background(), ChannelDesktop, tt.token).Expires)
		})
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, map[string]string{"T1": "2030-01-01"})
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Delete(ctx, ""), apperrors.KindInput)
	assert.ErrorIs(t, f.svc.Delete(ctx, "T2"), apperrors.KindNotFound)

	require.NoError(t, f.svc.Delete(ctx, "T1"))
	assert.Equal(t, OutcomeNotFound, f.svc.Verify(ctx, ChannelDesktop, "T1").Outcome)
	assert.ErrorIs(t, f.svc.Delete(ctx, "T1"), apperrors.KindNotFound)
}

func TestLifecycleScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := tokenstore.NewFileStore(path)
	require.NoError(t, err)

	svc, err := NewService(store, Config{
		DefaultValidityDays: 365,
		Now:                 testutil.FixedClock(2024, time.June, 15),
	})
	require.NoError(t, err)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "T1", "2099-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2099-01-01", reg.Expires)

	v := svc.Verify(ctx, ChannelDesktop, "T1")
	require.True(t, v.Valid())
	assert.Equal(t, "2099-01-01", v.Expires)
	assert.Greater(t, v.DaysRemaining, 0)

	ext, err := svc.Extend(ctx, "T1", "2000-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2099-01-01", ext.OldExpires)

	v = svc.Verify(ctx, ChannelDesktop, "T1")
	assert.Equal(t, OutcomeExpired, v.Outcome)
	status, _ := DesktopEncoding(v)
	assert.Equal(t, 403, status)

	assert.Equal(t, map[string]string{"T1": "2000-01-01"}, testutil.ReadTokenFile(t, path))
}

func TestStatus(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a": "2024-06-15", // today, expiring soon
		"b": "2024-06-22", // 7 days, expiring soon
		"c": "2024-06-23", // 8 days
		"d": "2024-06-14", // expired
		"e": "not-a-date", // counts as expired
	})

	report := f.svc.Status(context.Background())

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Active)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 2, report.ExpiringSoon)
	assert.Equal(t, "2024-06-15 12:00:00", report.ServerTime.Format("2006-01-02 15:04:05"))
}

func TestList(t *testing.T) {
	f := newFixture(t, map[string]string{
		"e8f365275122603ef9ddca50c12018e6902e2c7e21cc369f1b4cfda53c6da1d8": "2024-07-15",
		"att123": "2024-06-01",
		"zz":     "bogus",
	})

	entries := f.svc.List(context.Background())

	assert.Equal(t, []TokenEntry{
		{MaskedToken: "att...", Expires: "2024-06-01", Expired: true, DaysRemaining: 0},
		{MaskedToken: "e8f365275122603ef9dd...", Expires: "2024-07-15", Expired: false, DaysRemaining: 30},
		{MaskedToken: "z...", Expires: "bogus", Expired: true, DaysRemaining: 0},
	}, entries)
}

func TestReload(t *testing.T) {
	path := testutil.WriteTokenFile(t, map[string]string{"a": "2030-01-01", "b": "2030-01-01"})
	store, err := tokenstore.NewFileStore(path)
	require.NoError(t, err)

	svc, err := NewService(store, Config{DefaultValidityDays: 1})
	require.NoError(t, err)

	count, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestConcurrentRegistrationsSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := tokenstore.NewFileStore(path)
	require.NoError(t, err)
	svc, err := NewService(store, Config{DefaultValidityDays: 30})
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), fmt.Sprintf("tok-%d", i), "2030-01-01")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, testutil.ReadTokenFile(t, path), n)
}

func TestPersistenceFailureIsReported(t *testing.T) {
	f := newFixture(t, nil)
	failing := &failingStore{Store: f.store, err: apperrors.PersistenceError(apperrors.CodeStoreWrite, "Token store could not be saved", errors.New("disk full"))}

	svc, err := NewService(failing, Config{DefaultValidityDays: 1, Logger: slog.New(f.logs)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "T1", "2030-01-01")
	assert.ErrorIs(t, err, apperrors.KindPersistence)

	errorsLogged := f.logs.GetRecordsByLevel(slog.LevelError)
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, "persistence_error", errorsLogged[0].Attrs["outcome"])
}

type failingStore struct {
	tokenstore.Store
	err error
}

func (s *failingStore) Update(context.Context, func(tokenstore.Tokens) error) error {
	return s.err
}

func flatten(t tokenstore.Tokens) map[string]string {
	out := make(map[string]string, len(t))
	for k, v := range t {
		out[k] = v.Expires
	}
	return out
}
