package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tunelog/tunelog/internal/validate"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// parseLimit reads an optional limit query parameter, clamped to the
// catalog's page size.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultSearchLimit, true
	}

	res := validate.IntRange(raw, 1, maxSearchLimit)
	if !res.Valid() {
		return 0, false
	}
	return res.Value(), true
}

// Search proxies a catalog search (GET /api/search).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := validate.SearchQuery(r.URL.Query().Get("q"))
	if !query.Valid() {
		respondError(w, http.StatusBadRequest, query.Message())
		return
	}

	types := []string{"track"}
	if raw := r.URL.Query().Get("type"); raw != "" {
		types = nil
		for _, t := range strings.Split(raw, ",") {
			switch t {
			case "track", "artist", "album":
				types = append(types, t)
			default:
				respondError(w, http.StatusBadRequest, "type must be track, artist or album")
				return
			}
		}
	}

	limit, ok := parseLimit(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxSearchLimit))
		return
	}

	result, err := h.catalog.Search(r.Context(), query.Value(), types, limit)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SearchPreview finds previewable tracks for a song and artist
// (GET /api/search/preview).
func (h *Handlers) SearchPreview(w http.ResponseWriter, r *http.Request) {
	song := validate.SearchQuery(r.URL.Query().Get("song"))
	if !song.Valid() {
		respondError(w, http.StatusBadRequest, song.Message())
		return
	}

	artist := ""
	if raw := r.URL.Query().Get("artist"); raw != "" {
		res := validate.SearchQuery(raw)
		if !res.Valid() {
			respondError(w, http.StatusBadRequest, res.Message())
			return
		}
		artist = res.Value()
	}

	limit, ok := parseLimit(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxSearchLimit))
		return
	}

	result := h.catalog.SearchWithPreview(r.Context(), song.Value(), artist, limit)
	respondJSON(w, http.StatusOK, result)
}

// Track looks up a catalog track by id (GET /api/tracks/{id}).
func (h *Handlers) Track(w http.ResponseWriter, r *http.Request) {
	track, err := h.catalog.GetTrack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// Artist looks up a catalog artist by id (GET /api/artists/{id}).
func (h *Handlers) Artist(w http.ResponseWriter, r *http.Request) {
	artist, err := h.catalog.GetArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, artist)
}

// Album looks up a catalog album by id (GET /api/albums/{id}).
func (h *Handlers) Album(w http.ResponseWriter, r *http.Request) {
	album, err := h.catalog.GetAlbum(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, album)
}

// AlbumTracks lists a catalog album's tracks (GET /api/albums/{id}/tracks).
func (h *Handlers) AlbumTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.GetAlbumTracks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": tracks})
}
