package testutil

import (
	"listkeeper/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements backup.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// HasLog reports whether any recorded call at level has exactly this format string.
func (m *MockLogger) HasLog(level, format string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Logs {
		if l.Level == level && l.Format == format {
			return true
		}
	}
	return false
}

// CountLevel returns how many calls were recorded at level.
func (m *MockLogger) CountLevel(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface and records domain counters.
type MockMetrics struct {
	mu               sync.Mutex
	Snapshots        map[string]int
	Pruned           int
	CatalogRequests  map[string]int
	SchedulerRunning bool
	Subscribers      int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Snapshots: make(map[string]int), CatalogRequests: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObserveCommitDuration(_ time.Duration)            {}

func (m *MockMetrics) IncSnapshotsTotal(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots[result]++
}

func (m *MockMetrics) IncSnapshotsPruned(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pruned += count
}

func (m *MockMetrics) IncCatalogRequests(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CatalogRequests[result]++
}

func (m *MockMetrics) SetSchedulerRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchedulerRunning = running
}

func (m *MockMetrics) SetSubscribers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribers = count
}

func (m *MockMetrics) SnapshotCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Snapshots[result]
}

func (m *MockMetrics) IsSchedulerRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SchedulerRunning
}
