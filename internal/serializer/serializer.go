package serializer

import (
	"fmt"
	"listkeeper/internal/models"

	json "github.com/goccy/go-json"
)

type SerializerInterface interface {
	Render(raw *models.RawListData, meta *models.SnapshotMeta) ([]Artifact, error)
}

type Serializer struct{}

func NewSerializer() SerializerInterface {
	return &Serializer{}
}

// Render produces all six members in RequiredMembers order.
func (s *Serializer) Render(raw *models.RawListData, meta *models.SnapshotMeta) ([]Artifact, error) {
	if raw == nil || meta == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	anime := raw.Collection(models.CategoryAnime).Flatten()
	manga := raw.Collection(models.CategoryManga).Flatten()

	animeJSON, err := json.MarshalIndent(anime, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MemberAnimeJSON, err)
	}
	mangaJSON, err := json.MarshalIndent(manga, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MemberMangaJSON, err)
	}
	animeXML, err := RenderMALXML(models.CategoryAnime, meta.Username, anime)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MemberAnimeXML, err)
	}
	mangaXML, err := RenderMALXML(models.CategoryManga, meta.Username, manga)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MemberMangaXML, err)
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MemberMeta, err)
	}

	return []Artifact{
		{Name: MemberAnimeJSON, Data: animeJSON},
		{Name: MemberMangaJSON, Data: mangaJSON},
		{Name: MemberStatsText, Data: []byte(RenderReport(meta))},
		{Name: MemberAnimeXML, Data: animeXML},
		{Name: MemberMangaXML, Data: mangaXML},
		{Name: MemberMeta, Data: metaJSON},
	}, nil
}
