// Package library implements the collection-tracking service: logging
// songs, rating and tagging them, and catching near-duplicate entries.
package library

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/validate"
)

const (
	maxNotesLen = 2000
	maxTags     = 20
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateError reports that an entry looks like songs already in the
// collection. Matches are ordered best first.
type DuplicateError struct {
	Matches []db.Song
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("entry matches %d existing song(s)", len(e.Matches))
}

// SongStore is the subset of the song repository the service needs.
type SongStore interface {
	Create(ctx context.Context, song *db.Song) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*db.Song, error)
	ListForUser(ctx context.Context, userID string) ([]db.Song, error)
	Update(ctx context.Context, song *db.Song) error
	UpdateRating(ctx context.Context, userID string, id uuid.UUID, rating *int) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// TagStore is the subset of the tag repository the service needs.
type TagStore interface {
	Add(ctx context.Context, songID uuid.UUID, tags []string) error
	Remove(ctx context.Context, songID uuid.UUID, tag string) error
	ForSong(ctx context.Context, songID uuid.UUID) ([]string, error)
}

// Service coordinates validation, duplicate detection, and storage.
type Service struct {
	songs SongStore
	tags  TagStore
}

// NewService creates a library service.
func NewService(songs SongStore, tags TagStore) *Service {
	return &Service{songs: songs, tags: tags}
}

// LogSongInput carries the raw form values for a new entry. Rating and
// Year arrive as strings so empty means "not given".
type LogSongInput struct {
	Title     string
	Artist    string
	Album     string
	Rating    string
	Year      string
	Notes     string
	CatalogID string
	Tags      []string

	// AllowDuplicate skips near-duplicate detection, for when the user
	// has confirmed the entry really is a different recording.
	AllowDuplicate bool
}

// LogSong validates and stores a new collection entry. Returns
// *ValidationError for rejected input and *DuplicateError when a
// similar entry already exists and AllowDuplicate is unset.
func (s *Service) LogSong(ctx context.Context, userID string, in LogSongInput) (*db.Song, error) {
	song := &db.Song{UserID: userID}
	if err := applyInput(song, in); err != nil {
		return nil, err
	}
	if in.CatalogID != "" {
		v := in.CatalogID
		song.CatalogID = &v
	}

	var tags []string
	if len(in.Tags) > 0 {
		tagList := validate.IDList(in.Tags, maxTags)
		if !tagList.Valid() {
			return nil, &ValidationError{Field: "tags", Message: tagList.Message()}
		}
		tags = tagList.Value()
	}

	if !in.AllowDuplicate {
		existing, err := s.songs.ListForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("listing songs for duplicate check: %w", err)
		}
		if matches := FindSimilar(song.Title, song.Artist, existing); len(matches) > 0 {
			return nil, &DuplicateError{Matches: matches}
		}
	}

	if err := s.songs.Create(ctx, song); err != nil {
		return nil, fmt.Errorf("creating song: %w", err)
	}
	if len(tags) > 0 {
		if err := s.tags.Add(ctx, song.ID, tags); err != nil {
			return nil, fmt.Errorf("tagging song: %w", err)
		}
	}
	return song, nil
}

// applyInput validates the user-editable fields and writes them onto song.
func applyInput(song *db.Song, in LogSongInput) error {
	title := validate.MusicTitle(in.Title)
	if !title.Valid() {
		return &ValidationError{Field: "title", Message: title.Message()}
	}
	artist := validate.ArtistName(in.Artist)
	if !artist.Valid() {
		return &ValidationError{Field: "artist", Message: artist.Message()}
	}
	rating := validate.Rating(in.Rating)
	if !rating.Valid() {
		return &ValidationError{Field: "rating", Message: rating.Message()}
	}
	notes := validate.FreeText(in.Notes, maxNotesLen)
	if !notes.Valid() {
		return &ValidationError{Field: "notes", Message: notes.Message()}
	}

	song.Title = title.Value()
	song.Artist = artist.Value()
	song.Rating = rating.Value()

	song.Album = nil
	if in.Album != "" {
		album := validate.MusicTitle(in.Album)
		if !album.Valid() {
			return &ValidationError{Field: "album", Message: album.Message()}
		}
		v := album.Value()
		song.Album = &v
	}
	song.ReleaseYear = nil
	if in.Year != "" {
		year := validate.Year(in.Year)
		if !year.Valid() {
			return &ValidationError{Field: "year", Message: year.Message()}
		}
		v := year.Value()
		song.ReleaseYear = &v
	}
	song.Notes = nil
	if n := notes.Value(); n != "" {
		song.Notes = &n
	}
	return nil
}

// UpdateSong rewrites a logged song's user-editable fields. The catalog
// match and enriched metadata are untouched.
func (s *Service) UpdateSong(ctx context.Context, userID string, songID uuid.UUID, in LogSongInput) (*db.Song, error) {
	song, err := s.songs.Get(ctx, userID, songID)
	if err != nil {
		return nil, fmt.Errorf("loading song: %w", err)
	}

	if err := applyInput(song, in); err != nil {
		return nil, err
	}

	if err := s.songs.Update(ctx, song); err != nil {
		return nil, fmt.Errorf("updating song: %w", err)
	}
	return song, nil
}

// RateSong validates and stores a rating. An empty rating clears it.
func (s *Service) RateSong(ctx context.Context, userID string, songID uuid.UUID, raw string) (*int, error) {
	rating := validate.Rating(raw)
	if !rating.Valid() {
		return nil, &ValidationError{Field: "rating", Message: rating.Message()}
	}
	if err := s.songs.UpdateRating(ctx, userID, songID, rating.Value()); err != nil {
		return nil, fmt.Errorf("updating rating: %w", err)
	}
	return rating.Value(), nil
}

// TagSong validates and attaches tags to a song the user owns.
func (s *Service) TagSong(ctx context.Context, userID string, songID uuid.UUID, rawTags []string) ([]string, error) {
	tagList := validate.IDList(rawTags, maxTags)
	if !tagList.Valid() {
		return nil, &ValidationError{Field: "tags", Message: tagList.Message()}
	}

	// Ownership check; tags have no user column of their own.
	if _, err := s.songs.Get(ctx, userID, songID); err != nil {
		return nil, fmt.Errorf("loading song: %w", err)
	}

	if err := s.tags.Add(ctx, songID, tagList.Value()); err != nil {
		return nil, fmt.Errorf("tagging song: %w", err)
	}
	return s.tags.ForSong(ctx, songID)
}

// UntagSong removes one tag from a song the user owns.
func (s *Service) UntagSong(ctx context.Context, userID string, songID uuid.UUID, tag string) error {
	if _, err := s.songs.Get(ctx, userID, songID); err != nil {
		return fmt.Errorf("loading song: %w", err)
	}
	if err := s.tags.Remove(ctx, songID, tag); err != nil {
		return fmt.Errorf("untagging song: %w", err)
	}
	return nil
}
