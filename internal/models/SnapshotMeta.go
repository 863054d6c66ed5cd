package models

import (
	"fmt"
	"time"
)

// SnapshotMeta is written into every archive as meta.json and mirrored into the latest-stats record.
type SnapshotMeta struct {
	ID       string        `json:"id"`
	Date     time.Time     `json:"date"`
	Username string        `json:"username"`
	Stats    SnapshotStats `json:"stats"`
}

// Content is the short human summary shown in listings.
func (m *SnapshotMeta) Content() string {
	return fmt.Sprintf("%d Anime, %d Manga", m.Stats.Anime.TotalEntries, m.Stats.Manga.TotalEntries)
}

// SnapshotSummary is the listing view of a snapshot.
type SnapshotSummary struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Username string    `json:"username"`
	Content  string    `json:"content"`
}

func (m *SnapshotMeta) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:       m.ID,
		Date:     m.Date,
		Username: m.Username,
		Content:  m.Content(),
	}
}
