package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new playlist with its initial song membership.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist, songIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO playlists (id, user_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`,
		playlist.ID,
		playlist.UserID,
		playlist.Name,
		playlist.Description,
	).Scan(&playlist.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}

	if len(songIDs) > 0 {
		if err := insertPlaylistSongs(ctx, tx, playlist.ID, songIDs, 0); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a playlist by ID, scoped to its owner.
func (r *PlaylistRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*Playlist, error) {
	query := `
		SELECT id, user_id, name, description, created_at
		FROM playlists
		WHERE id = $1 AND user_id = $2
	`
	var p Playlist
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &p, nil
}

// ListForUser retrieves all playlists for a user, newest first.
func (r *PlaylistRepository) ListForUser(ctx context.Context, userID string) ([]Playlist, error) {
	query := `
		SELECT id, user_id, name, description, created_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// Rename updates a playlist's name and description.
func (r *PlaylistRepository) Rename(ctx context.Context, userID string, id uuid.UUID, name string, description *string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE playlists SET name = $3, description = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, name, description,
	)
	if err != nil {
		return fmt.Errorf("renaming playlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSongs replaces a playlist's entire song membership in order.
func (r *PlaylistRepository) SetSongs(ctx context.Context, userID string, id uuid.UUID, songIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ownership check before touching membership.
	var owner string
	err = tx.QueryRow(ctx, `SELECT user_id FROM playlists WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying playlist owner: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM playlist_songs WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("clearing playlist songs: %w", err)
	}
	if len(songIDs) > 0 {
		if err := insertPlaylistSongs(ctx, tx, id, songIDs, 0); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Songs retrieves a playlist's songs in position order.
func (r *PlaylistRepository) Songs(ctx context.Context, playlistID uuid.UUID) ([]Song, error) {
	query := `
		SELECT s.id, s.user_id, s.catalog_id, s.title, s.artist, s.album, s.genre, s.release_year,
			s.duration_seconds, s.rating, s.notes, s.preview_url, s.album_art_url, s.popularity,
			s.created_at, s.updated_at
		FROM songs s
		JOIN playlist_songs ps ON s.id = ps.song_id
		WHERE ps.playlist_id = $1
		ORDER BY ps.position
	`
	rows, err := r.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying playlist songs: %w", err)
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

// Delete removes a playlist by ID, scoped to its owner. Membership
// rows go with it via ON DELETE CASCADE.
func (r *PlaylistRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertPlaylistSongs(ctx context.Context, tx pgx.Tx, playlistID uuid.UUID, songIDs []uuid.UUID, startPos int) error {
	positions := make([]int, len(songIDs))
	for i := range songIDs {
		positions[i] = startPos + i
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id, position)
		SELECT $1, unnest($2::uuid[]), unnest($3::int[])
	`, playlistID, songIDs, positions)
	if err != nil {
		return fmt.Errorf("inserting playlist songs: %w", err)
	}
	return nil
}
