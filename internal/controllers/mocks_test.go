package controllers

import (
	"context"
	"listkeeper/internal/models"
	"os"
	"sync"
	"time"
)

// --- local mocks (scoped to controller tests) ---

type mockService struct {
	mu          sync.Mutex
	createMeta  *models.SnapshotMeta
	createErr   error
	createDelay time.Duration
	created     []string
	list        []models.SnapshotSummary
	listErr     error
	listFilter  string
	stats       *models.SnapshotStats
	statsErr    error
	latest      *models.SnapshotMeta
	latestErr   error
	openPath    string
	openErr     error
	removed     bool
	deleteErr   error
	logs        []models.LogEntry
}

func (m *mockService) CreateBackup(_ context.Context, identity string) (*models.SnapshotMeta, error) {
	time.Sleep(m.createDelay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, identity)
	return m.createMeta, m.createErr
}

func (m *mockService) RunCycle(_ context.Context, _ models.SchedulerConfig) error { return nil }

func (m *mockService) List(identity string) ([]models.SnapshotSummary, error) {
	m.listFilter = identity
	return m.list, m.listErr
}

func (m *mockService) Stats(_ string) (*models.SnapshotStats, error) { return m.stats, m.statsErr }

func (m *mockService) Latest(_ string) (*models.SnapshotMeta, error) { return m.latest, m.latestErr }

func (m *mockService) Open(_ string) (*os.File, os.FileInfo, error) {
	if m.openErr != nil {
		return nil, nil, m.openErr
	}
	f, err := os.Open(m.openPath)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

func (m *mockService) Delete(_ string) (bool, error) { return m.removed, m.deleteErr }

func (m *mockService) Logs() []models.LogEntry { return m.logs }

func (m *mockService) SaveLog(message string, success bool) models.LogEntry {
	entry := models.LogEntry{Message: message, IsSuccess: success}
	m.logs = append(m.logs, entry)
	return entry
}

type mockScheduler struct {
	started  []models.SchedulerConfig
	startErr error
	stops    int
	stopErr  error
	status   models.SchedulerStatus
}

func (m *mockScheduler) Start(cfg models.SchedulerConfig) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, cfg)
	m.status = models.SchedulerStatus{Running: true, Config: &cfg}
	return nil
}

func (m *mockScheduler) Stop() error {
	m.stops++
	if m.stopErr != nil {
		return m.stopErr
	}
	m.status = models.SchedulerStatus{}
	return nil
}

func (m *mockScheduler) Status() models.SchedulerStatus { return m.status }
func (m *mockScheduler) Restore() error                 { return nil }
func (m *mockScheduler) Shutdown()                      {}
