// Package insights derives collection eras from logged songs using k-means clustering.
package insights

import (
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/tunelog/tunelog/internal/db"
)

// Config holds era-detection clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum songs per era (smaller clusters become outliers)
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 3,
	}
}

// Era represents a cluster of songs with a similar profile.
type Era struct {
	Name      string             `json:"name"`
	Songs     []db.Song          `json:"songs"`
	Centroid  map[string]float64 `json:"centroid"`
	StartYear int                `json:"start_year"`
	EndYear   int                `json:"end_year"`
}

// songObservation wraps a Song to implement clusters.Observation.
type songObservation struct {
	song   *db.Song
	coords clusters.Coordinates
}

func (o songObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o songObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// featureNames defines the song attributes used for clustering.
var featureNames = []string{"release_year", "duration_seconds", "popularity"}

// DetectEras groups songs by release year, duration and popularity using
// k-means clustering. Returns detected eras and outlier songs that do not fit
// into any era. Songs missing any of the three attributes are treated as
// outliers.
func DetectEras(songs []db.Song, cfg Config) ([]Era, []db.Song) {
	if len(songs) == 0 {
		return nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultConfig().NumClusters
	}

	var validSongs []*db.Song
	var missingFeatures []db.Song

	for i := range songs {
		s := &songs[i]
		if hasEraFeatures(s) {
			validSongs = append(validSongs, s)
		} else {
			missingFeatures = append(missingFeatures, *s)
		}
	}

	// If fewer valid songs than clusters, everything is an outlier.
	if len(validSongs) < cfg.NumClusters {
		var outliers []db.Song
		for _, s := range validSongs {
			outliers = append(outliers, *s)
		}
		outliers = append(outliers, missingFeatures...)
		return nil, outliers
	}

	norm := fitNormalizer(validSongs)

	var obs clusters.Observations
	for _, s := range validSongs {
		obs = append(obs, songObservation{
			song:   s,
			coords: norm.coordinates(s),
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		// On error, treat all as outliers.
		var outliers []db.Song
		for _, s := range validSongs {
			outliers = append(outliers, *s)
		}
		outliers = append(outliers, missingFeatures...)
		return nil, outliers
	}

	var eras []Era
	var outliers []db.Song

	for _, cluster := range result {
		var clusterSongs []db.Song
		for _, o := range cluster.Observations {
			if so, ok := o.(songObservation); ok {
				clusterSongs = append(clusterSongs, *so.song)
			}
		}

		if len(clusterSongs) < cfg.MinClusterSize {
			outliers = append(outliers, clusterSongs...)
			continue
		}

		slices.SortFunc(clusterSongs, func(a, b db.Song) int {
			return *a.ReleaseYear - *b.ReleaseYear
		})

		// Centroid coordinates are normalized; report them in song units.
		centroid := make(map[string]float64)
		for i, name := range featureNames {
			centroid[name] = norm.denormalize(i, cluster.Center[i])
		}

		startYear := *clusterSongs[0].ReleaseYear
		endYear := *clusterSongs[len(clusterSongs)-1].ReleaseYear

		eras = append(eras, Era{
			Name:      formatEraName(generateEraName(centroid), startYear, endYear),
			Songs:     clusterSongs,
			Centroid:  centroid,
			StartYear: startYear,
			EndYear:   endYear,
		})
	}

	outliers = append(outliers, missingFeatures...)

	// Most recent era first.
	slices.SortFunc(eras, func(a, b Era) int {
		return b.StartYear - a.StartYear
	})

	return eras, outliers
}

// hasEraFeatures checks whether a song carries the attributes needed for clustering.
func hasEraFeatures(s *db.Song) bool {
	return s.ReleaseYear != nil &&
		s.DurationSeconds != nil &&
		s.Popularity != nil
}

// normalizer rescales each feature to [0, 1] so release years do not dominate
// the distance metric.
type normalizer struct {
	min [3]float64
	max [3]float64
}

func fitNormalizer(songs []*db.Song) normalizer {
	var n normalizer
	for i, s := range songs {
		raw := rawFeatures(s)
		for j, v := range raw {
			if i == 0 || v < n.min[j] {
				n.min[j] = v
			}
			if i == 0 || v > n.max[j] {
				n.max[j] = v
			}
		}
	}
	return n
}

func (n normalizer) coordinates(s *db.Song) clusters.Coordinates {
	raw := rawFeatures(s)
	coords := make(clusters.Coordinates, len(raw))
	for i, v := range raw {
		span := n.max[i] - n.min[i]
		if span == 0 {
			coords[i] = 0.5
			continue
		}
		coords[i] = (v - n.min[i]) / span
	}
	return coords
}

func (n normalizer) denormalize(i int, v float64) float64 {
	span := n.max[i] - n.min[i]
	if span == 0 {
		return n.min[i]
	}
	return n.min[i] + v*span
}

func rawFeatures(s *db.Song) [3]float64 {
	return [3]float64{
		float64(*s.ReleaseYear),
		float64(*s.DurationSeconds),
		float64(*s.Popularity),
	}
}

// formatEraName combines a profile name with the cluster's year range.
func formatEraName(profile string, startYear, endYear int) string {
	if startYear == endYear {
		return fmt.Sprintf("%s: %d", profile, startYear)
	}
	return fmt.Sprintf("%s: %d - %d", profile, startYear, endYear)
}
