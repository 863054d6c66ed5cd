// Package backup owns the archive directory: committing validated snapshots, listing, retention,
// the operation journal and the periodic backup scheduler.
package backup

import (
	"errors"
	"fmt"
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"listkeeper/internal/serializer"
	"listkeeper/internal/stats"
	"listkeeper/internal/structures"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	latestDir   = "latest"
	metaKeyPref = "meta:"
)

type SnapshotStoreInterface interface {
	Commit(identity string, raw *models.RawListData) (*models.SnapshotMeta, error)
	CommitRetain(identity string, raw *models.RawListData, keep int) (*models.SnapshotMeta, []string, error)
	List(identity string) ([]models.SnapshotMeta, error)
	Stats(id string) (*models.SnapshotStats, error)
	LatestStats(identity string) (*models.SnapshotMeta, error)
	Open(id string) (*os.File, os.FileInfo, error)
	Delete(id string) (bool, error)
	PruneRetain(identity string, keep int) ([]string, error)
	CleanupStale() (int, error)
}

// SnapshotStore is the only writer of the archive directory. mu serializes every mutation;
// readers only ever see archives that were validated and renamed into place.
type SnapshotStore struct {
	mu         sync.Mutex
	dir        string
	serializer serializer.SerializerInterface
	cache      providers.CacheProviderInterface
	publisher  events.PublisherInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	now        func() time.Time
	lastStamp  map[string]time.Time
}

func NewSnapshotStore(
	conf *structures.Config,
	ser serializer.SerializerInterface,
	cache providers.CacheProviderInterface,
	publisher events.PublisherInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) SnapshotStoreInterface {
	return &SnapshotStore{
		dir:        conf.Backup.Dir,
		serializer: ser,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		lastStamp:  make(map[string]time.Time),
	}
}

func (s *SnapshotStore) archivePath(id string) string {
	return filepath.Join(s.dir, id+archiveExt)
}

func (s *SnapshotStore) Commit(identity string, raw *models.RawListData) (*models.SnapshotMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(identity, raw)
}

// CommitRetain commits a snapshot and prunes the identity down to keep archives under one lock
// hold. A prune failure is returned together with the committed meta.
func (s *SnapshotStore) CommitRetain(identity string, raw *models.RawListData, keep int) (*models.SnapshotMeta, []string, error) {
	if keep < 1 {
		return nil, nil, fmt.Errorf("%w: keep must be at least 1", ErrConfigInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.commit(identity, raw)
	if err != nil {
		return nil, nil, err
	}
	pruned, err := s.prune(identity, keep)
	if err != nil {
		return meta, pruned, fmt.Errorf("prune after %s: %w", meta.ID, err)
	}
	return meta, pruned, nil
}

func (s *SnapshotStore) commit(identity string, raw *models.RawListData) (*models.SnapshotMeta, error) {
	start := time.Now()
	meta, err := s.writeSnapshot(identity, raw)
	if err != nil {
		s.metrics.IncSnapshotsTotal("failure")
		s.logger.Errorf(providers.TypeBackup, "Snapshot for %s failed: %s", identity, err)
		return nil, err
	}
	s.metrics.IncSnapshotsTotal("success")
	s.metrics.ObserveCommitDuration(time.Since(start))
	s.logger.Infof(providers.TypeBackup, "Snapshot %s committed", meta.ID)
	s.publisher.Publish(events.New(events.SnapshotCreated, meta))
	return meta, nil
}

func (s *SnapshotStore) writeSnapshot(identity string, raw *models.RawListData) (*models.SnapshotMeta, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &ValidationError{Member: "payload", Reason: "no list data"}
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}

	stamp := s.nextStamp(identity)
	meta := &models.SnapshotMeta{
		ID:       FormatID(identity, stamp),
		Date:     stamp,
		Username: identity,
		Stats:    stats.Compute(raw),
	}

	artifacts, err := s.serializer.Render(raw, meta)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", meta.ID, err)
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	staging := filepath.Join(s.dir, tmpPrefix+token)
	if err := os.Mkdir(staging, 0755); err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	for _, a := range artifacts {
		if err := os.WriteFile(filepath.Join(staging, a.Name), a.Data, 0644); err != nil {
			return nil, err
		}
	}
	if err := validateStaging(staging); err != nil {
		return nil, err
	}

	tmpZip := staging + archiveExt
	if err := writeArchive(tmpZip, staging, stamp); err != nil {
		os.Remove(tmpZip)
		return nil, err
	}
	if err := validateArchive(tmpZip); err != nil {
		os.Remove(tmpZip)
		return nil, err
	}
	if err := os.Rename(tmpZip, s.archivePath(meta.ID)); err != nil {
		os.Remove(tmpZip)
		return nil, err
	}

	s.cacheMeta(meta)
	if err := s.writeLatest(meta); err != nil {
		s.logger.Warnf(providers.TypeBackup, "Unable to update latest stats for %s: %s", identity, err)
	}
	return meta, nil
}

// nextStamp returns a millisecond stamp strictly after the identity's previous one and not
// already taken on disk. Must be called with mu held.
func (s *SnapshotStore) nextStamp(identity string) time.Time {
	stamp := s.now().UTC().Truncate(time.Millisecond)
	if last, ok := s.lastStamp[identity]; ok && !stamp.After(last) {
		stamp = last.Add(time.Millisecond)
	}
	for {
		if _, err := os.Stat(s.archivePath(FormatID(identity, stamp))); os.IsNotExist(err) {
			break
		}
		stamp = stamp.Add(time.Millisecond)
	}
	s.lastStamp[identity] = stamp
	return stamp
}

func (s *SnapshotStore) writeLatest(meta *models.SnapshotMeta) error {
	dir := filepath.Join(s.dir, latestDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, meta.Username+".json"), data, 0644)
}

func (s *SnapshotStore) cacheMeta(meta *models.SnapshotMeta) {
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	s.cache.Set(metaKeyPref+meta.ID, data)
}

func (s *SnapshotStore) readMeta(id string) (*models.SnapshotMeta, error) {
	var meta models.SnapshotMeta
	if data, ok := s.cache.Get(metaKeyPref + id); ok {
		if err := json.Unmarshal(data, &meta); err == nil {
			return &meta, nil
		}
	}

	members, err := readMembers(s.archivePath(id), serializer.MemberMeta)
	if err != nil {
		return nil, err
	}
	data, ok := members[serializer.MemberMeta]
	if !ok {
		return nil, &ValidationError{Member: serializer.MemberMeta, Reason: "missing"}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &ValidationError{Member: serializer.MemberMeta, Reason: err.Error()}
	}
	s.cacheMeta(&meta)
	return &meta, nil
}

// archiveIDs returns the ids of all published archives, optionally limited to one identity.
// Staging leftovers and foreign file names are skipped.
func (s *SnapshotStore) archiveIDs(identity string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		id := strings.TrimSuffix(name, archiveExt)
		owner, _, ok := ParseID(id)
		if !ok {
			s.logger.Debugf(providers.TypeBackup, "Skipping unrecognised archive %s", name)
			continue
		}
		if identity != "" && owner != identity {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// List returns snapshot metadata newest first. Unreadable archives are logged and skipped.
func (s *SnapshotStore) List(identity string) ([]models.SnapshotMeta, error) {
	if identity != "" {
		if err := ValidateIdentity(identity); err != nil {
			return nil, err
		}
	}

	ids, err := s.archiveIDs(identity)
	if err != nil {
		return nil, err
	}

	metas := make([]models.SnapshotMeta, 0, len(ids))
	for _, id := range ids {
		meta, err := s.readMeta(id)
		if err != nil {
			s.logger.Warnf(providers.TypeBackup, "Skipping unreadable archive %s: %s", id, err)
			continue
		}
		metas = append(metas, *meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].Date.Equal(metas[j].Date) {
			return metas[i].ID > metas[j].ID
		}
		return metas[i].Date.After(metas[j].Date)
	})
	return metas, nil
}

func (s *SnapshotStore) Stats(id string) (*models.SnapshotStats, error) {
	if err := ValidateIdentity(id); err != nil {
		return nil, ErrNotFound
	}
	if _, err := os.Stat(s.archivePath(id)); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	meta, err := s.readMeta(id)
	if err != nil {
		return nil, err
	}
	return &meta.Stats, nil
}

// LatestStats returns the meta of the identity's most recent successful commit.
func (s *SnapshotStore) LatestStats(identity string) (*models.SnapshotMeta, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, latestDir, identity+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var meta models.SnapshotMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Open returns the archive for streaming. The caller closes the file.
func (s *SnapshotStore) Open(id string) (*os.File, os.FileInfo, error) {
	if err := ValidateIdentity(id); err != nil {
		return nil, nil, ErrNotFound
	}
	file, err := os.Open(s.archivePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return file, info, nil
}

// Delete removes an archive. It reports false when there was nothing to remove.
func (s *SnapshotStore) Delete(id string) (bool, error) {
	if err := ValidateIdentity(id); err != nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.remove(id)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Infof(providers.TypeBackup, "Snapshot %s deleted", id)
	}
	return removed, nil
}

func (s *SnapshotStore) remove(id string) (bool, error) {
	err := os.Remove(s.archivePath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	s.cache.Del(metaKeyPref + id)
	if identity, _, ok := ParseID(id); ok {
		s.refreshLatest(identity, id)
	}
	s.publisher.Publish(events.New(events.SnapshotDeleted, events.DeletedPayload{ID: id}))
	return true, nil
}

// refreshLatest repoints the identity's latest record at its newest remaining archive
// when removedID was the one it referenced, and drops the record when none remain.
func (s *SnapshotStore) refreshLatest(identity, removedID string) {
	current, err := s.LatestStats(identity)
	if err != nil || current.ID != removedID {
		return
	}
	metas, err := s.List(identity)
	if err != nil {
		s.logger.Warnf(providers.TypeBackup, "Unable to update latest stats for %s: %s", identity, err)
		return
	}
	if len(metas) == 0 {
		err = os.Remove(filepath.Join(s.dir, latestDir, identity+".json"))
		if err != nil && !os.IsNotExist(err) {
			s.logger.Warnf(providers.TypeBackup, "Unable to update latest stats for %s: %s", identity, err)
		}
		return
	}
	if err := s.writeLatest(&metas[0]); err != nil {
		s.logger.Warnf(providers.TypeBackup, "Unable to update latest stats for %s: %s", identity, err)
	}
}

func (s *SnapshotStore) PruneRetain(identity string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("%w: keep must be at least 1", ErrConfigInvalid)
	}
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(identity, keep)
}

// prune deletes everything but the keep newest archives of identity, oldest first.
// Must be called with mu held.
func (s *SnapshotStore) prune(identity string, keep int) ([]string, error) {
	ids, err := s.archiveIDs(identity)
	if err != nil {
		return nil, err
	}
	if len(ids) <= keep {
		return []string{}, nil
	}

	stamps := make(map[string]time.Time, len(ids))
	for _, id := range ids {
		_, stamp, _ := ParseID(id)
		stamps[id] = stamp
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if stamps[ids[i]].Equal(stamps[ids[j]]) {
			return ids[i] < ids[j]
		}
		return stamps[ids[i]].Before(stamps[ids[j]])
	})

	excess := ids[:len(ids)-keep]
	pruned := make([]string, 0, len(excess))
	for _, id := range excess {
		removed, err := s.remove(id)
		if err != nil {
			s.metrics.IncSnapshotsPruned(len(pruned))
			return pruned, err
		}
		if removed {
			pruned = append(pruned, id)
		}
	}
	s.metrics.IncSnapshotsPruned(len(pruned))
	if len(pruned) > 0 {
		s.logger.Infof(providers.TypeBackup, "Pruned %d old snapshots of %s", len(pruned), identity)
	}
	return pruned, nil
}

// CleanupStale removes staging directories and temp archives left behind by an interrupted commit.
func (s *SnapshotStore) CleanupStale() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Warnf(providers.TypeBackup, "Unable to remove stale %s: %s", e.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Infof(providers.TypeBackup, "Removed %d stale staging entries", removed)
	}
	return removed, nil
}
