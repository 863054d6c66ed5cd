// Package stats derives aggregate counters from a fetched list. Everything here is pure.
package stats

import (
	"listkeeper/internal/models"
	"math"
	"strings"
)

// MinutesPerEpisode is the nominal episode length used for time watched.
const MinutesPerEpisode = 24

// Canonical histogram buckets.
const (
	BucketWatching  = "watching"
	BucketReading   = "reading"
	BucketCompleted = "completed"
	BucketPlanning  = "planning"
	BucketDropped   = "dropped"
	BucketOnHold    = "on_hold"
)

// ActiveBucket is "watching" for anime and "reading" for manga.
func ActiveBucket(category models.Category) string {
	if category == models.CategoryManga {
		return BucketReading
	}
	return BucketWatching
}

// Buckets returns the closed bucket set of a category in display order.
func Buckets(category models.Category) []string {
	return []string{ActiveBucket(category), BucketCompleted, BucketOnHold, BucketDropped, BucketPlanning}
}

// Bucket maps a catalog status onto its histogram bucket. ok is false for statuses outside the set.
func Bucket(category models.Category, status string) (string, bool) {
	switch strings.ToUpper(status) {
	case models.StatusCurrent, models.StatusRepeating:
		return ActiveBucket(category), true
	case models.StatusPaused:
		return BucketOnHold, true
	case models.StatusCompleted:
		return BucketCompleted, true
	case models.StatusPlanning:
		return BucketPlanning, true
	case models.StatusDropped:
		return BucketDropped, true
	}
	return "", false
}

// RoundScore rounds to one decimal, half away from zero.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeCategory aggregates one category's entries.
func ComputeCategory(category models.Category, entries []models.Entry) models.Stats {
	st := models.Stats{
		TotalEntries: len(entries),
		Status:       make(map[string]int, 5),
	}
	for _, b := range Buckets(category) {
		st.Status[b] = 0
	}

	var scoreSum float64
	var scored int
	for i := range entries {
		e := &entries[i]
		st.TotalProgress += e.ProgressValue()
		st.Repeats += e.RepeatValue()
		if category == models.CategoryManga {
			st.Volumes += e.ProgressVolumesValue()
		}
		if e.Score > 0 {
			scoreSum += e.Score
			scored++
		}
		if b, ok := Bucket(category, e.Status); ok {
			st.Status[b]++
		}
	}

	if scored > 0 {
		st.MeanScore = RoundScore(scoreSum / float64(scored))
	}
	if category == models.CategoryAnime {
		st.MinutesWatched = st.TotalProgress * MinutesPerEpisode
	}
	return st
}

// Compute aggregates both categories of a fetched list.
func Compute(raw *models.RawListData) models.SnapshotStats {
	return models.SnapshotStats{
		Anime: ComputeCategory(models.CategoryAnime, raw.Collection(models.CategoryAnime).Flatten()),
		Manga: ComputeCategory(models.CategoryManga, raw.Collection(models.CategoryManga).Flatten()),
	}
}

// HistogramTotal sums all bucket counts.
func HistogramTotal(st models.Stats) int {
	total := 0
	for _, n := range st.Status {
		total += n
	}
	return total
}
