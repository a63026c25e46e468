package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRNG returns a seeded generator so map layouts and move scripts repeat.
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger discards everything.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// BufferLogger logs JSON lines into the returned buffer.
func BufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

// PanicValue runs f and returns what it panicked with, or nil.
func PanicValue(f func()) (v any) {
	defer func() { v = recover() }()
	f()
	return nil
}

// RequirePanicError fails the test unless f panics with an error matching target.
func RequirePanicError(t *testing.T, target error, f func()) {
	t.Helper()
	v := PanicValue(f)
	require.NotNil(t, v, "expected a panic wrapping %v", target)
	err, ok := v.(error)
	require.True(t, ok, "panic value should be an error, got %T: %v", v, v)
	require.True(t, errors.Is(err, target), "panic %v does not wrap %v", err, target)
}

// AssertPanicContains checks that f panics and that the panic message
// contains substr.
func AssertPanicContains(t *testing.T, substr string, f func()) bool {
	t.Helper()
	v := PanicValue(f)
	if !assert.NotNil(t, v, "expected a panic containing %q", substr) {
		return false
	}
	return assert.Contains(t, fmt.Sprint(v), substr)
}
