package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// FixedClock returns a clock function pinned to the given calendar day at noon UTC
func FixedClock(year int, month time.Month, day int) func() time.Time {
	at := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

type fileRecord struct {
	Expires string `json:"expires"`
}

// WriteTokenFile writes token -> expires pairs to a fresh tokens.json under a
// temp directory, in the store's on-disk layout, and returns its path
func WriteTokenFile(t *testing.T, records map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tokens.json")
	WriteTokenFileAt(t, path, records)
	return path
}

// WriteTokenFileAt replaces the file at path with records, as an operator
// editing the store by hand would
func WriteTokenFileAt(t *testing.T, path string, records map[string]string) {
	t.Helper()

	doc := make(map[string]fileRecord, len(records))
	for token, expires := range records {
		doc[token] = fileRecord{Expires: expires}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal token fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write token fixture: %v", err)
	}
}

// ReadTokenFile decodes a token file written by the store into token -> expires pairs
func ReadTokenFile(t *testing.T, path string) map[string]string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	doc := map[string]fileRecord{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode token file: %v", err)
	}

	records := make(map[string]string, len(doc))
	for token, rec := range doc {
		records[token] = rec.Expires
	}
	return records
}
