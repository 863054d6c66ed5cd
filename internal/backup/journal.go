package backup

import (
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"listkeeper/internal/structures"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const defaultJournalSize = 100

type JournalInterface interface {
	Append(message string, success bool) models.LogEntry
	Entries() []models.LogEntry
	Restore() error
	Persist() error
}

// Journal keeps the most recent operation messages, oldest first.
type Journal struct {
	mu         sync.Mutex
	entries    []models.LogEntry
	capacity   int
	path       string
	compressor interfaces.CompressorInterface
	publisher  events.PublisherInterface
	logger     providers.Logger
	now        func() time.Time
}

func NewJournal(conf *structures.Config, compressor interfaces.CompressorInterface, publisher events.PublisherInterface, logger providers.Logger) JournalInterface {
	capacity := conf.Backup.JournalSize
	if capacity <= 0 {
		capacity = defaultJournalSize
	}
	return &Journal{
		entries:    make([]models.LogEntry, 0, capacity),
		capacity:   capacity,
		path:       resolvePath(conf.Backup.Dir, conf.Backup.JournalFile),
		compressor: compressor,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Append records a message, evicting the oldest entry once full, and persists the ring.
func (j *Journal) Append(message string, success bool) models.LogEntry {
	entry := models.LogEntry{Timestamp: j.now().UTC(), Message: message, IsSuccess: success}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	if over := len(j.entries) - j.capacity; over > 0 {
		j.entries = append(j.entries[:0], j.entries[over:]...)
	}
	err := j.persistLocked()
	j.mu.Unlock()

	if err != nil {
		j.logger.Warnf(providers.TypeBackup, "Unable to persist journal: %s", err)
	}
	j.publisher.Publish(events.New(events.LogAppended, entry))
	return entry
}

func (j *Journal) Entries() []models.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.LogEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *Journal) Persist() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.persistLocked()
}

func (j *Journal) persistLocked() error {
	if j.path == "" {
		return nil
	}
	jsonData, err := json.Marshal(j.entries)
	if err != nil {
		return err
	}
	data, err := j.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return writeFileAtomic(j.path, data, 0644)
}

// Restore loads a persisted ring. A missing file is not an error.
func (j *Journal) Restore() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressed, err := j.compressor.Decompress(data)
	if err != nil {
		return err
	}
	var entries []models.LogEntry
	if err := json.Unmarshal(decompressed, &entries); err != nil {
		return err
	}
	if over := len(entries) - j.capacity; over > 0 {
		entries = entries[over:]
	}

	j.mu.Lock()
	j.entries = append(j.entries[:0], entries...)
	j.mu.Unlock()

	j.logger.Infof(providers.TypeApp, "Restored %d journal entries from %s", len(entries), j.path)
	return nil
}
