package backup

import (
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/serializer"
	"listkeeper/internal/structures"
	"listkeeper/internal/testutil"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// stubSerializer wraps the real serializer and lets a test tamper with its output.
type stubSerializer struct {
	mutate func([]serializer.Artifact) ([]serializer.Artifact, error)
}

func (s *stubSerializer) Render(raw *models.RawListData, meta *models.SnapshotMeta) ([]serializer.Artifact, error) {
	artifacts, err := serializer.NewSerializer().Render(raw, meta)
	if err != nil {
		return nil, err
	}
	if s.mutate == nil {
		return artifacts, nil
	}
	return s.mutate(artifacts)
}

type storeFixture struct {
	store     *SnapshotStore
	dir       string
	cache     *testutil.MockCache
	publisher *recordingPublisher
	logger    *testutil.MockLogger
	metrics   *testutil.MockMetrics
}

func testConfig(dir string) *structures.Config {
	return &structures.Config{
		Backup: structures.BackupConfig{
			Dir:         dir,
			ConfigFile:  "config.json",
			JournalFile: "logs.zst",
			JournalSize: 100,
			Checkpoint:  10 * time.Millisecond,
			StopTimeout: time.Second,
		},
	}
}

func newStoreFixture(t *testing.T, ser serializer.SerializerInterface) *storeFixture {
	t.Helper()
	if ser == nil {
		ser = serializer.NewSerializer()
	}
	dir := t.TempDir()
	f := &storeFixture{
		dir:       dir,
		cache:     testutil.NewMockCache(),
		publisher: &recordingPublisher{},
		logger:    &testutil.MockLogger{},
		metrics:   testutil.NewMockMetrics(),
	}
	f.store = NewSnapshotStore(testConfig(dir), ser, f.cache, f.publisher, f.logger, f.metrics).(*SnapshotStore)
	return f
}

// tickingClock returns successive stamps one second apart starting at base.
func tickingClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	next := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func intPtr(v int) *int { return &v }

func sampleRaw() *models.RawListData {
	return &models.RawListData{
		Anime: &models.MediaListCollection{Lists: []models.ListGroup{{
			Name: "Watching",
			Entries: []models.Entry{
				{MediaID: 1, Status: models.StatusCurrent, Score: 80, Progress: intPtr(12),
					Media: models.Media{ID: 1, Title: models.MediaTitle{Romaji: "Cowboy Bebop"}, Episodes: intPtr(26)}},
				{MediaID: 2, Status: models.StatusCompleted, Score: 0, Progress: intPtr(24),
					Media: models.Media{ID: 2, Title: models.MediaTitle{English: "Trigun"}, Episodes: intPtr(24)}},
			},
		}}},
		Manga: &models.MediaListCollection{Lists: []models.ListGroup{{
			Name: "Reading",
			Entries: []models.Entry{
				{MediaID: 3, Status: models.StatusCurrent, Score: 9, Progress: intPtr(50), ProgressVolumes: intPtr(5),
					Media: models.Media{ID: 3, Title: models.MediaTitle{Romaji: "Berserk"}}},
			},
		}}},
	}
}
