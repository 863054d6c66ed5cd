package catalog

const animeQuery = `query ($username: String) {
  MediaListCollection(userName: $username, type: ANIME) {
    lists {
      name
      entries {
        mediaId
        status
        score
        progress
        repeat
        media {
          id
          title { romaji english native }
          episodes
          status
        }
      }
    }
  }
}`

const mangaQuery = `query ($username: String) {
  MediaListCollection(userName: $username, type: MANGA) {
    lists {
      name
      entries {
        mediaId
        status
        score
        progress
        progressVolumes
        repeat
        media {
          id
          title { romaji english native }
          chapters
          volumes
          status
        }
      }
    }
  }
}`
