package tidal

import "encoding/json"

type tidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tidalAlbum struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	NumberOfTracks int           `json:"numberOfTracks"`
	URL            string        `json:"url"`
	Artist         *tidalArtist  `json:"artist"`
	Artists        []tidalArtist `json:"artists"`
}

type tidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Version  string        `json:"version"`
	Duration int           `json:"duration"`
	URL      string        `json:"url"`
	ISRC     string        `json:"isrc"`
	Artist   *tidalArtist  `json:"artist"`
	Artists  []tidalArtist `json:"artists"`
	Album    *tidalAlbum   `json:"album"`
}

type tidalTrackPage struct {
	Limit              int          `json:"limit"`
	Offset             int          `json:"offset"`
	TotalNumberOfItems int          `json:"totalNumberOfItems"`
	Items              []tidalTrack `json:"items"`
}

type tidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	URL            string `json:"url"`
	Creator        struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"creator"`
}

type tidalSearchResult struct {
	Tracks tidalTrackPage `json:"tracks"`
	TopHit *struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"topHit"`
}

// tidalError is the body Tidal sends with 4xx responses.
type tidalError struct {
	Status      int    `json:"status"`
	SubStatus   int    `json:"subStatus"`
	UserMessage string `json:"userMessage"`
}
