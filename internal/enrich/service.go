// Package enrich backfills catalog metadata onto logged songs.
package enrich

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tunelog/tunelog/internal/catalog"
	"github.com/tunelog/tunelog/internal/db"
)

// maxConcurrentLookups bounds parallel catalog calls per enrichment run.
const maxConcurrentLookups = 4

// Catalog is the subset of the catalog client the service needs.
type Catalog interface {
	GetTrack(ctx context.Context, id string) (*catalog.Track, error)
	GenreFromTrack(ctx context.Context, t catalog.Track) *string
}

// SongStore is the subset of the song repository the service needs.
type SongStore interface {
	ListMissingMetadata(ctx context.Context, userID string) ([]db.Song, error)
	UpdateCatalogMetadata(ctx context.Context, song *db.Song) error
}

// Report summarizes one enrichment run.
type Report struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// Service enriches songs that carry a catalog id but no metadata yet.
type Service struct {
	catalog Catalog
	songs   SongStore
	logger  *log.Logger
}

// NewService creates an enrichment service.
func NewService(cat Catalog, songs SongStore) *Service {
	return &Service{catalog: cat, songs: songs}
}

// EnrichUser backfills metadata for a user's backlog. Lookups run
// concurrently with a fixed limit; per-song failures are logged and
// counted, never fatal for the run.
func (s *Service) EnrichUser(ctx context.Context, userID string) (Report, error) {
	backlog, err := s.songs.ListMissingMetadata(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("listing enrichment backlog: %w", err)
	}

	var updated, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for i := range backlog {
		song := backlog[i]
		g.Go(func() error {
			if err := s.enrichSong(ctx, &song); err != nil {
				failed.Add(1)
				s.logf("enriching %q by %q: %v", song.Title, song.Artist, err)
				return nil
			}
			updated.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return Report{
		Processed: len(backlog),
		Updated:   int(updated.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

func (s *Service) enrichSong(ctx context.Context, song *db.Song) error {
	track, err := s.catalog.GetTrack(ctx, *song.CatalogID)
	if err != nil {
		return err
	}

	meta := catalog.ExtractTrackMetadata(*track)
	if meta.Album != "" {
		song.Album = &meta.Album
	}
	song.Genre = s.catalog.GenreFromTrack(ctx, *track)
	song.ReleaseYear = meta.ReleaseYear
	song.DurationSeconds = &meta.DurationSeconds
	song.PreviewURL = meta.PreviewURL
	song.AlbumArtURL = meta.AlbumArtURL
	song.Popularity = &meta.Popularity

	return s.songs.UpdateCatalogMetadata(ctx, song)
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
