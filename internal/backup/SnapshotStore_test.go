package backup

import (
	"errors"
	"fmt"
	"io"
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/serializer"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func assertNoStaging(t *testing.T, dir string) {
	t.Helper()
	for _, name := range listDir(t, dir) {
		assert.False(t, strings.HasPrefix(name, tmpPrefix), "leftover %s", name)
	}
}

func TestSnapshotStore_CommitWritesValidArchive(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	assert.Equal(t, "alice_20240501_100000_000", meta.ID)
	assert.Equal(t, "alice", meta.Username)
	assert.True(t, baseTime.Equal(meta.Date))
	assert.Equal(t, 2, meta.Stats.Anime.TotalEntries)
	assert.Equal(t, 80.0, meta.Stats.Anime.MeanScore)
	assert.Equal(t, 5, meta.Stats.Manga.Volumes)

	path := filepath.Join(f.dir, meta.ID+".zip")
	require.NoError(t, validateArchive(path))

	members, err := readMembers(path, serializer.RequiredMembers...)
	require.NoError(t, err)
	assert.Len(t, members, len(serializer.RequiredMembers))

	var stored models.SnapshotMeta
	require.NoError(t, json.Unmarshal(members[serializer.MemberMeta], &stored))
	assert.Equal(t, meta.ID, stored.ID)
	assert.Equal(t, meta.Stats, stored.Stats)

	assertNoStaging(t, f.dir)
	assert.Len(t, f.publisher.ofType(events.SnapshotCreated), 1)
	assert.Equal(t, 1, f.metrics.SnapshotCount("success"))
}

func TestSnapshotStore_CommitWritesLatestPointer(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	_, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)
	second, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	latest, err := f.store.LatestStats("alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, second.Stats, latest.Stats)

	_, err = f.store.LatestStats("bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_CommitRejectsBadIdentity(t *testing.T) {
	f := newStoreFixture(t, nil)

	for _, identity := range []string{"", "../etc", "a b", "x/y"} {
		_, err := f.store.Commit(identity, sampleRaw())
		assert.ErrorIs(t, err, ErrInvalidIdentity, identity)
	}
	assert.Empty(t, listDir(t, f.dir))
}

func TestSnapshotStore_CommitNilPayload(t *testing.T) {
	f := newStoreFixture(t, nil)
	_, err := f.store.Commit("alice", nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, f.metrics.SnapshotCount("failure"))
}

func TestSnapshotStore_ValidationFailureLeavesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]serializer.Artifact) ([]serializer.Artifact, error)
		member string
		reason string
	}{
		{
			name: "null json member",
			mutate: func(a []serializer.Artifact) ([]serializer.Artifact, error) {
				a[0].Data = []byte("null")
				return a, nil
			},
			member: serializer.MemberAnimeJSON,
			reason: "empty",
		},
		{
			name: "empty report",
			mutate: func(a []serializer.Artifact) ([]serializer.Artifact, error) {
				a[2].Data = nil
				return a, nil
			},
			member: serializer.MemberStatsText,
			reason: "empty",
		},
		{
			name: "missing meta",
			mutate: func(a []serializer.Artifact) ([]serializer.Artifact, error) {
				return a[:5], nil
			},
			member: serializer.MemberMeta,
			reason: "missing",
		},
		{
			name: "corrupt meta",
			mutate: func(a []serializer.Artifact) ([]serializer.Artifact, error) {
				a[5].Data = []byte(`{"id":`)
				return a, nil
			},
			member: serializer.MemberMeta,
			reason: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStoreFixture(t, &stubSerializer{mutate: tt.mutate})

			meta, err := f.store.Commit("alice", sampleRaw())
			require.Error(t, err)
			assert.Nil(t, meta)
			assert.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.member, vErr.Member)
			assert.Equal(t, tt.reason, vErr.Reason)

			for _, name := range listDir(t, f.dir) {
				assert.False(t, strings.HasSuffix(name, ".zip"), "unexpected archive %s", name)
			}
			assertNoStaging(t, f.dir)
			assert.Empty(t, f.publisher.ofType(events.SnapshotCreated))

			list, err := f.store.List("alice")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestSnapshotStore_RenderErrorLeavesNothing(t *testing.T) {
	f := newStoreFixture(t, &stubSerializer{mutate: func([]serializer.Artifact) ([]serializer.Artifact, error) {
		return nil, fmt.Errorf("boom")
	}})

	_, err := f.store.Commit("alice", sampleRaw())
	require.Error(t, err)
	assert.Empty(t, listDir(t, f.dir))
}

func TestSnapshotStore_SameMillisecondGetsDistinctIDs(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = func() time.Time { return baseTime }

	first, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)
	second, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	assert.Equal(t, "alice_20240501_100000_000", first.ID)
	assert.Equal(t, "alice_20240501_100000_001", second.ID)

	// another identity is not pushed forward
	other, err := f.store.Commit("bob", sampleRaw())
	require.NoError(t, err)
	assert.Equal(t, "bob_20240501_100000_000", other.ID)
}

func TestSnapshotStore_StampSkipsExistingArchive(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = func() time.Time { return baseTime }
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "alice_20240501_100000_000.zip"), []byte("x"), 0644))

	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)
	assert.Equal(t, "alice_20240501_100000_001", meta.ID)
}

func TestSnapshotStore_ListNewestFirstAndFiltered(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	var aliceIDs []string
	for i := 0; i < 3; i++ {
		meta, err := f.store.Commit("alice", sampleRaw())
		require.NoError(t, err)
		aliceIDs = append(aliceIDs, meta.ID)
	}
	bob, err := f.store.Commit("bob", sampleRaw())
	require.NoError(t, err)

	all, err := f.store.List("")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, bob.ID, all[0].ID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.After(all[i-1].Date))
	}

	alice, err := f.store.List("alice")
	require.NoError(t, err)
	require.Len(t, alice, 3)
	assert.Equal(t, []string{aliceIDs[2], aliceIDs[1], aliceIDs[0]}, []string{alice[0].ID, alice[1].ID, alice[2].ID})

	_, err = f.store.List("../bob")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestSnapshotStore_ListSkipsCorruptAndForeignFiles(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "alice_20200101_000000_000.zip"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "notes.zip"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, ".tmp_abc.zip"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "readme.txt"), []byte("hi"), 0644))

	list, err := f.store.List("")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, meta.ID, list[0].ID)
	assert.True(t, f.logger.HasLog("warn", "Skipping unreadable archive %s: %s"))
}

func TestSnapshotStore_ListMissingDir(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.dir = filepath.Join(f.dir, "absent")

	list, err := f.store.List("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSnapshotStore_ListUsesCachedMeta(t *testing.T) {
	f := newStoreFixture(t, nil)
	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	_, ok := f.cache.Get(metaKeyPref + meta.ID)
	assert.True(t, ok)

	cached := *meta
	cached.Username = "from-cache"
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	f.cache.Set(metaKeyPref+meta.ID, data)

	list, err := f.store.List("alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "from-cache", list[0].Username)
}

func TestSnapshotStore_Stats(t *testing.T) {
	f := newStoreFixture(t, nil)
	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	st, err := f.store.Stats(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Stats, *st)

	_, err = f.store.Stats("alice_19990101_000000_000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.Stats("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_Open(t *testing.T) {
	f := newStoreFixture(t, nil)
	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	file, info, err := f.store.Open(meta.ID)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, meta.ID+".zip", info.Name())

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), int64(len(data)))

	_, _, err = f.store.Open("missing_20240101_000000_000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_Delete(t *testing.T) {
	f := newStoreFixture(t, nil)
	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	ok, err := f.store.Delete(meta.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, cached := f.cache.Get(metaKeyPref + meta.ID)
	assert.False(t, cached)

	deleted := f.publisher.ofType(events.SnapshotDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, events.DeletedPayload{ID: meta.ID}, deleted[0].Data)

	ok, err = f.store.Delete(meta.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.store.Delete("../escape")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.store.Stats(meta.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_DeleteRepointsLatest(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	first, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)
	second, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)
	third, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	ok, err := f.store.Delete(first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	latest, err := f.store.LatestStats("alice")
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)

	ok, err = f.store.Delete(third.ID)
	require.NoError(t, err)
	require.True(t, ok)
	latest, err = f.store.LatestStats("alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	ok, err = f.store.Delete(second.ID)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.store.LatestStats("alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.logger.CountLevel("warn"))
}

func TestSnapshotStore_PruneRetain(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	var ids []string
	for i := 0; i < 5; i++ {
		meta, err := f.store.Commit("alice", sampleRaw())
		require.NoError(t, err)
		ids = append(ids, meta.ID)
	}
	bob, err := f.store.Commit("bob", sampleRaw())
	require.NoError(t, err)

	pruned, err := f.store.PruneRetain("alice", 2)
	require.NoError(t, err)
	assert.Equal(t, ids[:3], pruned)
	assert.Equal(t, 3, f.metrics.Pruned)
	assert.Len(t, f.publisher.ofType(events.SnapshotDeleted), 3)

	alice, err := f.store.List("alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, ids[4], alice[0].ID)
	assert.Equal(t, ids[3], alice[1].ID)

	others, err := f.store.List("bob")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, bob.ID, others[0].ID)

	pruned, err = f.store.PruneRetain("alice", 2)
	require.NoError(t, err)
	assert.Empty(t, pruned)

	_, err = f.store.PruneRetain("alice", 0)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestSnapshotStore_CommitRetain(t *testing.T) {
	f := newStoreFixture(t, nil)
	f.store.now = tickingClock(baseTime)

	var last *models.SnapshotMeta
	for i := 0; i < 4; i++ {
		meta, _, err := f.store.CommitRetain("alice", sampleRaw(), 3)
		require.NoError(t, err)
		last = meta
	}

	list, err := f.store.List("alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, last.ID, list[0].ID)

	_, _, err = f.store.CommitRetain("alice", sampleRaw(), 0)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestSnapshotStore_CleanupStale(t *testing.T) {
	f := newStoreFixture(t, nil)
	meta, err := f.store.Commit("alice", sampleRaw())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, ".tmp_crashed", "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, ".tmp_crashed.zip"), []byte("partial"), 0644))

	removed, err := f.store.CleanupStale()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assertNoStaging(t, f.dir)

	_, err = os.Stat(filepath.Join(f.dir, meta.ID+".zip"))
	assert.NoError(t, err)
}

func TestSnapshotStore_ConcurrentCommitsNeverExposePartialArchives(t *testing.T) {
	f := newStoreFixture(t, nil)

	const writers = 8
	var wg sync.WaitGroup
	ids := make(chan string, writers)
	stop := make(chan struct{})
	readerErrs := make(chan error, 1)

	go func() {
		for {
			select {
			case <-stop:
				close(readerErrs)
				return
			default:
			}
			list, err := f.store.List("")
			if err != nil {
				readerErrs <- err
				close(readerErrs)
				return
			}
			for _, m := range list {
				if err := validateArchive(filepath.Join(f.dir, m.ID+".zip")); err != nil {
					readerErrs <- err
					close(readerErrs)
					return
				}
			}
		}
	}()

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meta, err := f.store.Commit("alice", sampleRaw())
			if err == nil {
				ids <- meta.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	close(stop)

	for err := range readerErrs {
		assert.NoError(t, err)
	}

	seen := make(map[string]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, writers)

	list, err := f.store.List("alice")
	require.NoError(t, err)
	assert.Len(t, list, writers)
	assertNoStaging(t, f.dir)
}
