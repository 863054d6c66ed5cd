package models

// Category is one of the two list types the catalog exposes.
type Category string

const (
	CategoryAnime Category = "anime"
	CategoryManga Category = "manga"
)

// Catalog list statuses.
const (
	StatusCurrent   = "CURRENT"
	StatusCompleted = "COMPLETED"
	StatusPlanning  = "PLANNING"
	StatusDropped   = "DROPPED"
	StatusPaused    = "PAUSED"
	StatusRepeating = "REPEATING"
)

type MediaTitle struct {
	Romaji  string `json:"romaji,omitempty"`
	English string `json:"english,omitempty"`
	Native  string `json:"native,omitempty"`
}

type Media struct {
	ID       int        `json:"id"`
	Title    MediaTitle `json:"title"`
	Episodes *int       `json:"episodes,omitempty"`
	Chapters *int       `json:"chapters,omitempty"`
	Volumes  *int       `json:"volumes,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// Entry is a single list row as returned by the catalog. Nullable counters stay pointers so
// the raw dump keeps the distinction between 0 and absent.
type Entry struct {
	MediaID         int     `json:"mediaId"`
	Status          string  `json:"status"`
	Score           float64 `json:"score"`
	Progress        *int    `json:"progress"`
	ProgressVolumes *int    `json:"progressVolumes,omitempty"`
	Repeat          *int    `json:"repeat"`
	Media           Media   `json:"media"`
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func (e *Entry) ProgressValue() int        { return intValue(e.Progress) }
func (e *Entry) ProgressVolumesValue() int { return intValue(e.ProgressVolumes) }
func (e *Entry) RepeatValue() int          { return intValue(e.Repeat) }

// Title picks the first non-empty title variant.
func (e *Entry) Title() string {
	switch {
	case e.Media.Title.Romaji != "":
		return e.Media.Title.Romaji
	case e.Media.Title.English != "":
		return e.Media.Title.English
	case e.Media.Title.Native != "":
		return e.Media.Title.Native
	}
	return "Unknown"
}

// TotalUnits returns episodes for anime and chapters for manga, 0 when unknown.
func (e *Entry) TotalUnits(category Category) int {
	if category == CategoryManga {
		return intValue(e.Media.Chapters)
	}
	return intValue(e.Media.Episodes)
}

type ListGroup struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type MediaListCollection struct {
	Lists []ListGroup `json:"lists"`
}

// Flatten returns every entry of every list group in catalog order.
func (c *MediaListCollection) Flatten() []Entry {
	if c == nil {
		return []Entry{}
	}
	n := 0
	for _, g := range c.Lists {
		n += len(g.Entries)
	}
	entries := make([]Entry, 0, n)
	for _, g := range c.Lists {
		entries = append(entries, g.Entries...)
	}
	return entries
}

// RawListData is the as-fetched payload for one identity.
type RawListData struct {
	Anime *MediaListCollection `json:"anime"`
	Manga *MediaListCollection `json:"manga"`
}

func (r *RawListData) Collection(category Category) *MediaListCollection {
	if r == nil {
		return nil
	}
	if category == CategoryManga {
		return r.Manga
	}
	return r.Anime
}
