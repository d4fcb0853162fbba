package library

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/tunelog/tunelog/internal/db"
)

// duplicateThreshold is the Jaro-Winkler similarity above which two
// entries are treated as the same recording.
const duplicateThreshold = 0.9

// matchKey normalizes a song for comparison. Bracketed suffixes such
// as "(Remastered 2009)" are dropped so reissues collapse onto the
// original entry.
func matchKey(title, artist string) string {
	if idx := strings.IndexAny(title, "(["); idx != -1 {
		title = strings.TrimSpace(title[:idx])
	}
	return strings.ToLower(strings.TrimSpace(artist) + " " + title)
}

// FindSimilar returns the existing songs whose normalized
// artist+title is similar enough to count as duplicates of the given
// entry, best match first.
func FindSimilar(title, artist string, existing []db.Song) []db.Song {
	query := matchKey(title, artist)
	jw := metrics.NewJaroWinkler()

	type scored struct {
		song  db.Song
		score float64
	}
	var matches []scored
	for _, s := range existing {
		score := strutil.Similarity(query, matchKey(s.Title, s.Artist), jw)
		if score >= duplicateThreshold {
			matches = append(matches, scored{song: s, score: score})
		}
	}

	// Insertion sort by descending score; duplicate lists are tiny.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].score > matches[j-1].score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	songs := make([]db.Song, len(matches))
	for i, m := range matches {
		songs[i] = m.song
	}
	return songs
}
