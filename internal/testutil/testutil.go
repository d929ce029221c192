// Package testutil provides testing utilities for servloc tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/servloc/internal/logging"
)

// WriteFile writes content to dir/rel, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", rel, err)
	}
	return path
}

// Eventually polls cond every 10ms until it returns true or timeout elapses,
// failing the test with msg in the latter case.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v: %s", timeout, msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// LogBuffer collects JSON log lines written by a captured logger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every complete log line. Lines that are not JSON are
// skipped.
func (b *LogBuffer) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Messages returns the msg field of every entry in order.
func (b *LogBuffer) Messages() []string {
	var msgs []string
	for _, e := range b.Entries() {
		if msg, ok := e["msg"].(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// HasMessage reports whether any entry was logged with msg.
func (b *LogBuffer) HasMessage(msg string) bool {
	for _, m := range b.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}

// CaptureLogger returns a DEBUG level logger whose output is collected in the
// returned buffer.
func CaptureLogger(t *testing.T) (*logging.Logger, *LogBuffer) {
	t.Helper()

	buf := &LogBuffer{}
	return logging.NewWriterLogger(buf, logging.LevelDebug), buf
}
