// Package shared holds helpers used by more than one Flow Pulse package.
//
// testutil provides a capturing slog handler and equipment fixtures for tests.
// Nothing here carries domain logic.
package shared
