package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const songColumns = `id, user_id, catalog_id, title, artist, album, genre, release_year,
	duration_seconds, rating, notes, preview_url, album_art_url, popularity, created_at, updated_at`

// SongRepository handles song database operations.
type SongRepository struct {
	pool *pgxpool.Pool
}

func scanSong(row pgx.Row) (*Song, error) {
	var s Song
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.CatalogID,
		&s.Title,
		&s.Artist,
		&s.Album,
		&s.Genre,
		&s.ReleaseYear,
		&s.DurationSeconds,
		&s.Rating,
		&s.Notes,
		&s.PreviewURL,
		&s.AlbumArtURL,
		&s.Popularity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning song: %w", err)
	}
	return &s, nil
}

// Create inserts a new song.
func (r *SongRepository) Create(ctx context.Context, song *Song) error {
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	query := `
		INSERT INTO songs (id, user_id, catalog_id, title, artist, album, genre, release_year,
			duration_seconds, rating, notes, preview_url, album_art_url, popularity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		song.ID,
		song.UserID,
		song.CatalogID,
		song.Title,
		song.Artist,
		song.Album,
		song.Genre,
		song.ReleaseYear,
		song.DurationSeconds,
		song.Rating,
		song.Notes,
		song.PreviewURL,
		song.AlbumArtURL,
		song.Popularity,
	).Scan(&song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting song: %w", err)
	}
	return nil
}

// Get retrieves a song by ID, scoped to its owner.
func (r *SongRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = $1 AND user_id = $2`
	return scanSong(r.pool.QueryRow(ctx, query, id, userID))
}

// ListForUser retrieves all songs a user has logged, newest first.
func (r *SongRepository) ListForUser(ctx context.Context, userID string) ([]Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *s)
	}
	return songs, rows.Err()
}

// Update rewrites a song's user-editable fields.
func (r *SongRepository) Update(ctx context.Context, song *Song) error {
	query := `
		UPDATE songs SET
			title = $3,
			artist = $4,
			album = $5,
			release_year = $6,
			rating = $7,
			notes = $8,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		song.ID,
		song.UserID,
		song.Title,
		song.Artist,
		song.Album,
		song.ReleaseYear,
		song.Rating,
		song.Notes,
	)
	if err != nil {
		return fmt.Errorf("updating song: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRating sets (or clears) a song's rating.
func (r *SongRepository) UpdateRating(ctx context.Context, userID string, id uuid.UUID, rating *int) error {
	query := `UPDATE songs SET rating = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, id, userID, rating)
	if err != nil {
		return fmt.Errorf("updating song rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCatalogMetadata fills in catalog-derived fields after enrichment.
func (r *SongRepository) UpdateCatalogMetadata(ctx context.Context, song *Song) error {
	query := `
		UPDATE songs SET
			catalog_id = $3,
			album = COALESCE($4, album),
			genre = COALESCE($5, genre),
			release_year = COALESCE($6, release_year),
			duration_seconds = COALESCE($7, duration_seconds),
			preview_url = COALESCE($8, preview_url),
			album_art_url = COALESCE($9, album_art_url),
			popularity = COALESCE($10, popularity),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		song.ID,
		song.UserID,
		song.CatalogID,
		song.Album,
		song.Genre,
		song.ReleaseYear,
		song.DurationSeconds,
		song.PreviewURL,
		song.AlbumArtURL,
		song.Popularity,
	)
	if err != nil {
		return fmt.Errorf("updating song metadata: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMissingMetadata retrieves songs that have a catalog id but no
// genre yet, the enrichment backlog.
func (r *SongRepository) ListMissingMetadata(ctx context.Context, userID string) ([]Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE user_id = $1 AND catalog_id IS NOT NULL AND genre IS NULL
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying enrichment backlog: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *s)
	}
	return songs, rows.Err()
}

// Delete removes a song by ID, scoped to its owner.
func (r *SongRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
