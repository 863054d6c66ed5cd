package models

// Stats aggregates one category of a list. Status holds only the canonical buckets.
type Stats struct {
	TotalEntries   int            `json:"totalEntries"`
	TotalProgress  int            `json:"totalProgress"`
	MeanScore      float64        `json:"meanScore"`
	Status         map[string]int `json:"status"`
	Repeats        int            `json:"repeats"`
	Volumes        int            `json:"volumes,omitempty"`
	MinutesWatched int            `json:"minutesWatched,omitempty"`
}

type SnapshotStats struct {
	Anime Stats `json:"anime"`
	Manga Stats `json:"manga"`
}
