package insights

import (
	"context"
	"fmt"

	"github.com/tunelog/tunelog/internal/db"
)

// SongStore loads the songs eras are computed over.
type SongStore interface {
	ListForUser(ctx context.Context, userID string) ([]db.Song, error)
}

// Service computes collection eras for a user's library.
type Service struct {
	songs SongStore
	cfg   Config
}

// NewService creates an insights service with the default configuration.
func NewService(songs SongStore) *Service {
	return &Service{songs: songs, cfg: DefaultConfig()}
}

// ErasForUser clusters the user's songs into eras. Outliers are songs that
// did not fit any era, including songs missing the attributes clustering needs.
func (s *Service) ErasForUser(ctx context.Context, userID string) ([]Era, []db.Song, error) {
	songs, err := s.songs.ListForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing songs: %w", err)
	}

	eras, outliers := DetectEras(songs, s.cfg)
	return eras, outliers, nil
}
