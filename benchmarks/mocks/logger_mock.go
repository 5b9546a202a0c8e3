package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// MockLogger implements domain.Logger and counts entries per level. Entries
// are only kept when Record is set so hot benchmark loops do not allocate.
type MockLogger struct {
	Record bool

	DebugCount atomic.Int64
	InfoCount  atomic.Int64
	WarnCount  atomic.Int64
	ErrorCount atomic.Int64

	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// NewMockLogger creates a silent counting logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Debug(ctx context.Context, msg string, fields ...any) {
	m.DebugCount.Add(1)
	m.add("DEBUG", msg, fields)
}

func (m *MockLogger) Info(ctx context.Context, msg string, fields ...any) {
	m.InfoCount.Add(1)
	m.add("INFO", msg, fields)
}

func (m *MockLogger) Warn(ctx context.Context, msg string, fields ...any) {
	m.WarnCount.Add(1)
	m.add("WARN", msg, fields)
}

func (m *MockLogger) Error(ctx context.Context, msg string, fields ...any) {
	m.ErrorCount.Add(1)
	m.add("ERROR", msg, fields)
}

// Fatal records like Error; it never exits.
func (m *MockLogger) Fatal(ctx context.Context, msg string, fields ...any) {
	m.ErrorCount.Add(1)
	m.add("FATAL", msg, fields)
}

// With returns the same logger; bound fields are not tracked.
func (m *MockLogger) With(fields ...any) domain.Logger {
	return m
}

func (m *MockLogger) add(level, msg string, fields []any) {
	if !m.Record {
		return
	}
	fieldMap := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			fieldMap[key] = fields[i+1]
		}
	}
	m.mu.Lock()
	m.entries = append(m.entries, LogEntry{Level: level, Message: msg, Fields: fieldMap})
	m.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
