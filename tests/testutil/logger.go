package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/smpull/internal/logging"
)

// TestLogger is a logging.Logger whose output is captured in memory.
//
// Example usage:
//
//	logger := NewTestLogger(t, false)
//	fetcher := fetch.New(store, "p", fetch.WithLogger(logger.Logger))
//
//	logger.AssertContains(t, "Could not connect")
//	logger.AssertNotContains(t, "password123")
type TestLogger struct {
	*logging.Logger
	buffer *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger creates a logger writing uncoloured output to a buffer.
// With debug set, Debug messages are captured too.
func NewTestLogger(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	buffer := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buffer, debug, true),
		buffer: buffer,
	}
}

// GetOutput returns everything logged so far.
func (l *TestLogger) GetOutput() string {
	return l.buffer.String()
}

// AssertContains fails the test if the output does not contain substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr)
}

// AssertNotContains fails the test if the output contains substr.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr)
}
