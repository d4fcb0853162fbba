package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TagRepository handles song tag database operations.
type TagRepository struct {
	pool *pgxpool.Pool
}

// Add attaches tags to a song. Existing tags are left untouched.
func (r *TagRepository) Add(ctx context.Context, songID uuid.UUID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	query := `
		INSERT INTO song_tags (song_id, tag, created_at)
		SELECT $1, unnest($2::text[]), NOW()
		ON CONFLICT (song_id, tag) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, songID, tags); err != nil {
		return fmt.Errorf("inserting song tags: %w", err)
	}
	return nil
}

// Remove detaches a tag from a song.
func (r *TagRepository) Remove(ctx context.Context, songID uuid.UUID, tag string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM song_tags WHERE song_id = $1 AND tag = $2`,
		songID, tag,
	)
	if err != nil {
		return fmt.Errorf("deleting song tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ForSong retrieves all tags on a song, alphabetically.
func (r *TagRepository) ForSong(ctx context.Context, songID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tag FROM song_tags WHERE song_id = $1 ORDER BY tag`,
		songID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying song tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// CountsForUser aggregates tag usage across a user's collection,
// most used first.
func (r *TagRepository) CountsForUser(ctx context.Context, userID string) ([]TagCount, error) {
	query := `
		SELECT st.tag, COUNT(*)
		FROM song_tags st
		JOIN songs s ON s.id = st.song_id
		WHERE s.user_id = $1
		GROUP BY st.tag
		ORDER BY COUNT(*) DESC, st.tag
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying tag counts: %w", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
