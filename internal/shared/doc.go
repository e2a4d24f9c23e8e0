// Package shared holds code used across the tokenauth packages that does not
// belong to any one layer.
//
// testutil provides the test helpers: a buffered slog handler for asserting
// audit and request logs, a fixed clock and token file fixtures.
package shared
