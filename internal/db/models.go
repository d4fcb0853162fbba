package db

import (
	"time"

	"github.com/google/uuid"
)

// Song is one logged entry in a user's collection. Catalog-derived
// fields are nullable; a song can be logged before metadata exists.
type Song struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	CatalogID       *string   `json:"catalog_id"` // nullable - set once matched to the catalog
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	Album           *string   `json:"album"`
	Genre           *string   `json:"genre"`
	ReleaseYear     *int      `json:"release_year"`
	DurationSeconds *int      `json:"duration_seconds"`
	Rating          *int      `json:"rating"` // 1-5, nullable
	Notes           *string   `json:"notes"`
	PreviewURL      *string   `json:"preview_url"`
	AlbumArtURL     *string   `json:"album_art_url"`
	Popularity      *int      `json:"popularity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Playlist is a user-curated ordered set of songs.
type Playlist struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"` // nullable
	CreatedAt   time.Time `json:"created_at"`
}

// PlaylistSong is a song's membership in a playlist.
type PlaylistSong struct {
	PlaylistID uuid.UUID
	SongID     uuid.UUID
	Position   int
}

// SongTag is a free-form tag a user attached to a song.
type SongTag struct {
	SongID    uuid.UUID
	Tag       string
	CreatedAt time.Time
}

// TagCount is an aggregate of one tag across a user's collection.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
