package platform

import "time"

// Track is a catalog-native track record as returned by one catalog.
type Track struct {
	// ID is the catalog-specific track identifier.
	ID string `json:"id"`

	// Platform is the source catalog name (e.g., "spotify", "tidal").
	Platform string `json:"platform"`

	// Title is the track name.
	Title string `json:"title"`

	// Artists is the list of credited artists in catalog order.
	Artists []Artist `json:"artists"`

	// Album is the album this track belongs to (may be nil).
	Album *Album `json:"album,omitempty"`

	// Duration is the track length.
	Duration time.Duration `json:"duration"`

	// URL is the shareable link of the track.
	URL string `json:"url,omitempty"`

	// ISRC is the International Standard Recording Code (if available).
	ISRC string `json:"isrc,omitempty"`
}

// Artist is a catalog-native artist reference.
type Artist struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
}

// Album is a catalog-native album record.
type Album struct {
	ID       string   `json:"id"`
	Platform string   `json:"platform"`
	Title    string   `json:"title"`
	Artists  []Artist `json:"artists"`

	// Tracks holds the album tracks in catalog order when the catalog returns them inline.
	Tracks []Track `json:"tracks,omitempty"`

	TrackCount int    `json:"track_count,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Playlist is a catalog-native playlist record.
type Playlist struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Creator     string `json:"creator,omitempty"`
	TrackCount  int    `json:"track_count,omitempty"`

	// Tracks is the list of tracks in the playlist (may be empty if not loaded).
	Tracks []Track `json:"tracks,omitempty"`

	URL string `json:"url,omitempty"`

	// Revision is the catalog's version marker (snapshot id or ETag), if any.
	Revision string `json:"revision,omitempty"`
}

// PrimaryArtist returns the first credited artist name, or "".
func (t *Track) PrimaryArtist() string {
	if t == nil || len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}
