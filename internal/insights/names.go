package insights

// generateEraName creates a descriptive name based on centroid values.
// Uses a 2x2 popularity/duration quadrant system.
//
// Quadrants:
//   - High popularity + long tracks  = "Epic Anthems"
//   - High popularity + short tracks = "Radio Hits"
//   - Low popularity  + long tracks  = "Deep Cut Journeys"
//   - Low popularity  + short tracks = "Hidden Gems"
func generateEraName(centroid map[string]float64) string {
	popularity := centroid["popularity"]
	duration := centroid["duration_seconds"]

	highPopularity := popularity > 60
	longTracks := duration > 300

	switch {
	case highPopularity && longTracks:
		return "Epic Anthems"
	case highPopularity && !longTracks:
		return "Radio Hits"
	case !highPopularity && longTracks:
		return "Deep Cut Journeys"
	default:
		return "Hidden Gems"
	}
}
