package serializer

import (
	"bytes"
	"encoding/xml"
	"listkeeper/internal/models"
	"math"
	"strings"
)

// MAL list status codes.
const (
	MALStatusActive    = 1
	MALStatusCompleted = 2
	MALStatusOnHold    = 3
	MALStatusDropped   = 4
	MALStatusPlanned   = 6
)

// MAL export types written into <myinfo>.
const (
	malExportAnime = 1
	malExportManga = 2
)

type cdata struct {
	Value string `xml:",cdata"`
}

type malInfo struct {
	UserName       string `xml:"user_name"`
	UserExportType int    `xml:"user_export_type"`
	UserTotalAnime int    `xml:"user_total_anime,omitempty"`
	UserTotalManga int    `xml:"user_total_manga,omitempty"`
}

type malAnime struct {
	SeriesAnimeDBID   int   `xml:"series_animedb_id"`
	SeriesTitle       cdata `xml:"series_title"`
	SeriesEpisodes    int   `xml:"series_episodes"`
	MyWatchedEpisodes int   `xml:"my_watched_episodes"`
	MyScore           int   `xml:"my_score"`
	MyStatus          int   `xml:"my_status"`
	MyTimesWatched    int   `xml:"my_times_watched"`
	UpdateOnImport    int   `xml:"update_on_import"`
}

type malManga struct {
	SeriesMangaDBID int   `xml:"series_mangadb_id"`
	SeriesTitle     cdata `xml:"series_title"`
	SeriesChapters  int   `xml:"series_chapters"`
	SeriesVolumes   int   `xml:"series_volumes"`
	MyReadChapters  int   `xml:"my_read_chapters"`
	MyReadVolumes   int   `xml:"my_read_volumes"`
	MyScore         int   `xml:"my_score"`
	MyStatus        int   `xml:"my_status"`
	MyTimesRead     int   `xml:"my_times_read"`
	UpdateOnImport  int   `xml:"update_on_import"`
}

type malDocument struct {
	XMLName xml.Name   `xml:"myanimelist"`
	MyInfo  malInfo    `xml:"myinfo"`
	Anime   []malAnime `xml:"anime"`
	Manga   []malManga `xml:"manga"`
}

// MALScore converts a catalog score to MAL's 0-10 integer scale.
// Scores above 10 are taken to be on a 100-point scale.
func MALScore(raw float64) int {
	score := raw
	if score > 10 {
		score = score / 10
	}
	score = math.Round(score)
	return int(math.Max(0, math.Min(10, score)))
}

// MALStatus maps a catalog status to a MAL status code; unknown statuses become "planned".
func MALStatus(status string) int {
	switch strings.ToUpper(status) {
	case models.StatusCurrent, models.StatusRepeating:
		return MALStatusActive
	case models.StatusCompleted:
		return MALStatusCompleted
	case models.StatusPaused:
		return MALStatusOnHold
	case models.StatusDropped:
		return MALStatusDropped
	}
	return MALStatusPlanned
}

// RenderMALXML builds a MAL import document for one category.
func RenderMALXML(category models.Category, username string, entries []models.Entry) ([]byte, error) {
	doc := malDocument{MyInfo: malInfo{UserName: username}}

	if category == models.CategoryManga {
		doc.MyInfo.UserExportType = malExportManga
		doc.MyInfo.UserTotalManga = len(entries)
		doc.Manga = make([]malManga, 0, len(entries))
		for i := range entries {
			e := &entries[i]
			doc.Manga = append(doc.Manga, malManga{
				SeriesMangaDBID: e.MediaID,
				SeriesTitle:     cdata{e.Title()},
				SeriesChapters:  e.TotalUnits(models.CategoryManga),
				SeriesVolumes:   valueOrZero(e.Media.Volumes),
				MyReadChapters:  e.ProgressValue(),
				MyReadVolumes:   e.ProgressVolumesValue(),
				MyScore:         MALScore(e.Score),
				MyStatus:        MALStatus(e.Status),
				MyTimesRead:     e.RepeatValue(),
				UpdateOnImport:  1,
			})
		}
	} else {
		doc.MyInfo.UserExportType = malExportAnime
		doc.MyInfo.UserTotalAnime = len(entries)
		doc.Anime = make([]malAnime, 0, len(entries))
		for i := range entries {
			e := &entries[i]
			doc.Anime = append(doc.Anime, malAnime{
				SeriesAnimeDBID:   e.MediaID,
				SeriesTitle:       cdata{e.Title()},
				SeriesEpisodes:    e.TotalUnits(models.CategoryAnime),
				MyWatchedEpisodes: e.ProgressValue(),
				MyScore:           MALScore(e.Score),
				MyStatus:          MALStatus(e.Status),
				MyTimesWatched:    e.RepeatValue(),
				UpdateOnImport:    1,
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
