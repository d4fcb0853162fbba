package catalog

import (
	"context"
	"strconv"
	"strings"
)

// ExtractTrackMetadata flattens a raw catalog track into the
// application's metadata shape. Every optional field has a null or
// zero fallback; it never fails on missing data.
func ExtractTrackMetadata(t Track) TrackMetadata {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}

	var year *int
	if len(t.Album.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(t.Album.ReleaseDate[:4]); err == nil {
			year = &y
		}
	}

	var preview *string
	if t.PreviewURL != "" {
		p := t.PreviewURL
		preview = &p
	}

	var art *string
	if len(t.Album.Images) > 0 {
		u := t.Album.Images[0].URL
		art = &u
	}

	return TrackMetadata{
		CatalogID:       t.ID,
		Title:           t.Name,
		Artist:          strings.Join(names, ", "),
		Album:           t.Album.Name,
		ReleaseYear:     year,
		DurationSeconds: t.DurationMS / 1000,
		PreviewURL:      preview,
		CatalogURL:      t.ExternalURLs.Spotify,
		AlbumArtURL:     art,
		Popularity:      t.Popularity,
	}
}

// GenreFromTrack looks up the first performer's detail record and
// returns their first genre tag, title-cased with hyphens replaced by
// spaces. Returns nil (never an error) when the track has no artists,
// the artist has no id, the lookup fails, or the artist has no genres.
func (c *Client) GenreFromTrack(ctx context.Context, t Track) *string {
	if len(t.Artists) == 0 || t.Artists[0].ID == "" {
		return nil
	}

	artist, err := c.GetArtist(ctx, t.Artists[0].ID)
	if err != nil {
		c.logf("fetching genre for artist %s: %v", t.Artists[0].ID, err)
		return nil
	}
	if len(artist.Genres) == 0 {
		return nil
	}

	genre := titleCase(strings.ReplaceAll(artist.Genres[0], "-", " "))
	return &genre
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
