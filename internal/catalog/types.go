package catalog

// Image is a catalog artwork image.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ExternalURLs holds links back into the catalog.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Artist is a catalog artist. Genres is only populated on direct
// artist lookups, not on artists embedded in tracks.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Album is a catalog album.
type Album struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ReleaseDate  string       `json:"release_date"`
	Images       []Image      `json:"images"`
	Artists      []Artist     `json:"artists"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Track is a catalog track as returned by search and lookup endpoints.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	PreviewURL   string       `json:"preview_url"`
	Popularity   int          `json:"popularity"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// TrackPage is one page of track results.
type TrackPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ArtistPage is one page of artist results.
type ArtistPage struct {
	Items  []Artist `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// AlbumPage is one page of album results.
type AlbumPage struct {
	Items  []Album `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// SearchResult is the raw search envelope. Only the pages matching the
// requested types are populated.
type SearchResult struct {
	Tracks  TrackPage  `json:"tracks"`
	Artists ArtistPage `json:"artists"`
	Albums  AlbumPage  `json:"albums"`
}

// TrackMetadata is the flat projection of a catalog track used by the
// rest of the application. It is a value object; optional fields are
// nil rather than zero so callers can tell "absent" from "empty".
type TrackMetadata struct {
	CatalogID       string  `json:"catalogId"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	ReleaseYear     *int    `json:"releaseYear"`
	DurationSeconds int     `json:"durationSeconds"`
	PreviewURL      *string `json:"previewUrl"`
	CatalogURL      string  `json:"catalogUrl"`
	AlbumArtURL     *string `json:"albumArtUrl"`
	Popularity      int     `json:"popularity"`
}

// MetadataPage is one page of normalized track metadata.
type MetadataPage struct {
	Items  []TrackMetadata `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// PreviewResult is the envelope returned by SearchWithPreview. It
// mirrors the shape of the plain search envelope.
type PreviewResult struct {
	Tracks MetadataPage `json:"tracks"`
}
