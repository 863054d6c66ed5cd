package serializer

import (
	"fmt"
	"listkeeper/internal/models"
	"listkeeper/internal/stats"
	"strings"
)

var bucketLabels = map[string]string{
	stats.BucketWatching:  "Watching",
	stats.BucketReading:   "Reading",
	stats.BucketCompleted: "Completed",
	stats.BucketOnHold:    "On Hold",
	stats.BucketDropped:   "Dropped",
}

func bucketLabel(category models.Category, bucket string) string {
	if bucket == stats.BucketPlanning {
		if category == models.CategoryManga {
			return "Plan to Read"
		}
		return "Plan to Watch"
	}
	return bucketLabels[bucket]
}

// formatWatchTime renders minutes as "Xd Yh".
func formatWatchTime(minutes int) string {
	hours := minutes / 60
	return fmt.Sprintf("%dd %dh", hours/24, hours%24)
}

// RenderReport builds the human-readable statistics report.
func RenderReport(meta *models.SnapshotMeta) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Anime & Manga Statistics for %s\n", meta.Username)
	fmt.Fprintf(&b, "Generated on: %s\n", meta.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Snapshot: %s\n\n", meta.ID)

	anime := meta.Stats.Anime
	b.WriteString("Anime Statistics:\n---------------\n")
	fmt.Fprintf(&b, "Total Entries: %d\n", anime.TotalEntries)
	fmt.Fprintf(&b, "Episodes Watched: %d\n", anime.TotalProgress)
	fmt.Fprintf(&b, "Time Watched: %s\n", formatWatchTime(anime.MinutesWatched))
	fmt.Fprintf(&b, "Mean Score: %.1f\n", anime.MeanScore)
	fmt.Fprintf(&b, "Rewatched: %d\n", anime.Repeats)
	writeDistribution(&b, models.CategoryAnime, anime)

	manga := meta.Stats.Manga
	b.WriteString("\nManga Statistics:\n---------------\n")
	fmt.Fprintf(&b, "Total Entries: %d\n", manga.TotalEntries)
	fmt.Fprintf(&b, "Chapters Read: %d\n", manga.TotalProgress)
	fmt.Fprintf(&b, "Volumes Read: %d\n", manga.Volumes)
	fmt.Fprintf(&b, "Mean Score: %.1f\n", manga.MeanScore)
	fmt.Fprintf(&b, "Reread: %d\n", manga.Repeats)
	writeDistribution(&b, models.CategoryManga, manga)

	return b.String()
}

func writeDistribution(b *strings.Builder, category models.Category, st models.Stats) {
	b.WriteString("\nStatus Distribution:\n")
	for _, bucket := range stats.Buckets(category) {
		fmt.Fprintf(b, "- %s: %d\n", bucketLabel(category, bucket), st.Status[bucket])
	}
}
