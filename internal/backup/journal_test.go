package backup

import (
	"fmt"
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/testutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T, dir string, size int) (*Journal, *recordingPublisher) {
	t.Helper()
	compressor, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(compressor.Close)

	conf := testConfig(dir)
	conf.Backup.JournalSize = size
	publisher := &recordingPublisher{}
	return NewJournal(conf, compressor, publisher, &testutil.MockLogger{}).(*Journal), publisher
}

func TestJournal_AppendPublishes(t *testing.T) {
	j, publisher := newTestJournal(t, t.TempDir(), 10)

	entry := j.Append("Backup created", true)
	assert.Equal(t, "Backup created", entry.Message)
	assert.True(t, entry.IsSuccess)
	assert.False(t, entry.Timestamp.IsZero())

	appended := publisher.ofType(events.LogAppended)
	require.Len(t, appended, 1)
	assert.Equal(t, entry, appended[0].Data)
}

func TestJournal_RingEvictsOldest(t *testing.T) {
	j, _ := newTestJournal(t, t.TempDir(), 3)

	for i := 0; i < 5; i++ {
		j.Append(fmt.Sprintf("msg %d", i), i%2 == 0)
	}

	entries := j.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg 2", entries[0].Message)
	assert.Equal(t, "msg 4", entries[2].Message)
}

func TestJournal_DefaultCapacity(t *testing.T) {
	j, _ := newTestJournal(t, t.TempDir(), 0)
	assert.Equal(t, defaultJournalSize, j.capacity)
}

func TestJournal_EntriesReturnsCopy(t *testing.T) {
	j, _ := newTestJournal(t, t.TempDir(), 5)
	j.Append("original", true)

	entries := j.Entries()
	entries[0].Message = "changed"
	assert.Equal(t, "original", j.Entries()[0].Message)
}

func TestJournal_PersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	j, _ := newTestJournal(t, dir, 5)
	j.Append("first", true)
	j.Append("second", false)

	_, err := os.Stat(filepath.Join(dir, "logs.zst"))
	require.NoError(t, err)

	restored, _ := newTestJournal(t, dir, 5)
	require.NoError(t, restored.Restore())

	entries := restored.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.True(t, entries[0].IsSuccess)
	assert.Equal(t, "second", entries[1].Message)
	assert.False(t, entries[1].IsSuccess)
}

func TestJournal_RestoreTrimsToCapacity(t *testing.T) {
	dir := t.TempDir()
	big, _ := newTestJournal(t, dir, 10)
	for i := 0; i < 6; i++ {
		big.Append(fmt.Sprintf("msg %d", i), true)
	}

	small, _ := newTestJournal(t, dir, 2)
	require.NoError(t, small.Restore())
	entries := small.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "msg 4", entries[0].Message)
}

func TestJournal_RestoreMissingFile(t *testing.T) {
	j, _ := newTestJournal(t, t.TempDir(), 5)
	require.NoError(t, j.Restore())
	assert.Empty(t, j.Entries())
}

func TestJournal_RestoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs.zst"), []byte("not zstd"), 0644))

	j, _ := newTestJournal(t, dir, 5)
	assert.Error(t, j.Restore())
	assert.Empty(t, j.Entries())
}

func TestJournal_PersistFailureStillRecords(t *testing.T) {
	dir := t.TempDir()
	conf := testConfig(dir)
	logger := &testutil.MockLogger{}
	compressor := &testutil.MockCompressor{CompressFn: func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("disk full")
	}}
	j := NewJournal(conf, compressor, &recordingPublisher{}, logger)

	j.Append("kept in memory", true)
	assert.Equal(t, []string{"kept in memory"}, messages(j.Entries()))
	assert.True(t, logger.HasLog("warn", "Unable to persist journal: %s"))
}

func messages(entries []models.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}
