package services

import (
	"context"
	"fmt"
	"listkeeper/internal/backup"
	"listkeeper/internal/catalog"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"os"
)

type BackupServiceInterface interface {
	CreateBackup(ctx context.Context, identity string) (*models.SnapshotMeta, error)
	RunCycle(ctx context.Context, cfg models.SchedulerConfig) error
	List(identity string) ([]models.SnapshotSummary, error)
	Stats(id string) (*models.SnapshotStats, error)
	Latest(identity string) (*models.SnapshotMeta, error)
	Open(id string) (*os.File, os.FileInfo, error)
	Delete(id string) (bool, error)
	Logs() []models.LogEntry
	SaveLog(message string, success bool) models.LogEntry
}

// BackupService glues the catalog to the snapshot store and journals every outcome.
// Fetching happens before the store lock is taken.
type BackupService struct {
	catalog catalog.ClientInterface
	store   backup.SnapshotStoreInterface
	journal backup.JournalInterface
	logger  providers.Logger
}

func NewBackupService(
	client catalog.ClientInterface,
	store backup.SnapshotStoreInterface,
	journal backup.JournalInterface,
	logger providers.Logger,
) BackupServiceInterface {
	return &BackupService{
		catalog: client,
		store:   store,
		journal: journal,
		logger:  logger,
	}
}

func (bs *BackupService) fetch(ctx context.Context, identity string) (*models.RawListData, error) {
	if err := backup.ValidateIdentity(identity); err != nil {
		return nil, err
	}
	return bs.catalog.Fetch(ctx, identity)
}

func (bs *BackupService) CreateBackup(ctx context.Context, identity string) (*models.SnapshotMeta, error) {
	raw, err := bs.fetch(ctx, identity)
	if err != nil {
		bs.journal.Append(fmt.Sprintf("Backup failed for %s: %s", identity, err), false)
		return nil, err
	}

	meta, err := bs.store.Commit(identity, raw)
	if err != nil {
		bs.journal.Append(fmt.Sprintf("Backup failed for %s: %s", identity, err), false)
		return nil, err
	}

	bs.journal.Append(fmt.Sprintf("Backup created: %s (%s)", meta.ID, meta.Content()), true)
	return meta, nil
}

// RunCycle is one scheduled run: fetch, commit and prune to cfg.KeepLast.
func (bs *BackupService) RunCycle(ctx context.Context, cfg models.SchedulerConfig) error {
	raw, err := bs.fetch(ctx, cfg.Username)
	if err != nil {
		bs.journal.Append(fmt.Sprintf("Auto-backup failed for %s: %s", cfg.Username, err), false)
		return err
	}
	// A schedule stopped or replaced during the fetch must not commit or prune.
	if err := ctx.Err(); err != nil {
		bs.journal.Append(fmt.Sprintf("Auto-backup cancelled for %s", cfg.Username), false)
		return err
	}

	meta, pruned, err := bs.store.CommitRetain(cfg.Username, raw, cfg.KeepLast)
	if meta == nil {
		bs.journal.Append(fmt.Sprintf("Auto-backup failed for %s: %s", cfg.Username, err), false)
		return err
	}

	msg := fmt.Sprintf("Auto-backup created: %s (%s)", meta.ID, meta.Content())
	if len(pruned) > 0 {
		msg = fmt.Sprintf("%s, removed %d old backups", msg, len(pruned))
	}
	bs.journal.Append(msg, true)

	if err != nil {
		bs.journal.Append(fmt.Sprintf("Cleanup of old backups for %s failed: %s", cfg.Username, err), false)
		return err
	}
	return nil
}

func (bs *BackupService) List(identity string) ([]models.SnapshotSummary, error) {
	metas, err := bs.store.List(identity)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.SnapshotSummary, 0, len(metas))
	for i := range metas {
		summaries = append(summaries, metas[i].Summary())
	}
	return summaries, nil
}

func (bs *BackupService) Stats(id string) (*models.SnapshotStats, error) {
	return bs.store.Stats(id)
}

func (bs *BackupService) Latest(identity string) (*models.SnapshotMeta, error) {
	return bs.store.LatestStats(identity)
}

func (bs *BackupService) Open(id string) (*os.File, os.FileInfo, error) {
	return bs.store.Open(id)
}

func (bs *BackupService) Delete(id string) (bool, error) {
	removed, err := bs.store.Delete(id)
	if err != nil {
		bs.journal.Append(fmt.Sprintf("Failed to delete backup %s: %s", id, err), false)
		return false, err
	}
	if removed {
		bs.journal.Append(fmt.Sprintf("Backup deleted: %s", id), true)
	}
	return removed, nil
}

func (bs *BackupService) Logs() []models.LogEntry {
	return bs.journal.Entries()
}

// SaveLog records a client-supplied message.
func (bs *BackupService) SaveLog(message string, success bool) models.LogEntry {
	return bs.journal.Append(message, success)
}
