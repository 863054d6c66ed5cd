// Package serializer renders a fetched list and its statistics into the snapshot member files.
package serializer

const (
	MemberAnimeJSON = "anime.json"
	MemberMangaJSON = "manga.json"
	MemberStatsText = "animemanga_stats.txt"
	MemberAnimeXML  = "anime.xml"
	MemberMangaXML  = "manga.xml"
	MemberMeta      = "meta.json"
)

// RequiredMembers lists every file a snapshot archive must contain.
var RequiredMembers = []string{
	MemberAnimeJSON,
	MemberMangaJSON,
	MemberStatsText,
	MemberAnimeXML,
	MemberMangaXML,
	MemberMeta,
}

// IsJSONMember reports whether a member has to parse as JSON.
func IsJSONMember(name string) bool {
	return name == MemberAnimeJSON || name == MemberMangaJSON || name == MemberMeta
}

// Artifact is one rendered member file.
type Artifact struct {
	Name string
	Data []byte
}
