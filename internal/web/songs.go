package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/library"
)

// logSongRequest is the POST /api/songs request body.
type logSongRequest struct {
	Title          string   `json:"title"`
	Artist         string   `json:"artist"`
	Album          string   `json:"album"`
	Rating         string   `json:"rating"`
	Year           string   `json:"year"`
	Notes          string   `json:"notes"`
	CatalogID      string   `json:"catalog_id"`
	Tags           []string `json:"tags"`
	AllowDuplicate bool     `json:"allow_duplicate"`
}

// songResponse pairs a stored song with its tags.
type songResponse struct {
	Song *db.Song `json:"song"`
	Tags []string `json:"tags"`
}

// LogSong adds a song to the user's library (POST /api/songs).
func (h *Handlers) LogSong(w http.ResponseWriter, r *http.Request) {
	var req logSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song, err := h.library.LogSong(r.Context(), userID(r), library.LogSongInput{
		Title:          req.Title,
		Artist:         req.Artist,
		Album:          req.Album,
		Rating:         req.Rating,
		Year:           req.Year,
		Notes:          req.Notes,
		CatalogID:      req.CatalogID,
		Tags:           req.Tags,
		AllowDuplicate: req.AllowDuplicate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, song)
}

// UpdateSong rewrites a song's user-editable fields (PUT /api/songs/{id}).
func (h *Handlers) UpdateSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	var req logSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song, err := h.library.UpdateSong(r.Context(), userID(r), id, library.LogSongInput{
		Title:  req.Title,
		Artist: req.Artist,
		Album:  req.Album,
		Rating: req.Rating,
		Year:   req.Year,
		Notes:  req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, song)
}

// ListSongs lists the user's songs, newest first (GET /api/songs).
func (h *Handlers) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songs.ListForUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": songs})
}

// GetSong returns a single song with its tags (GET /api/songs/{id}).
func (h *Handlers) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.songs.Get(r.Context(), userID(r), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	tags, err := h.tags.ForSong(r.Context(), song.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}

	respondJSON(w, http.StatusOK, songResponse{Song: song, Tags: tags})
}

// DeleteSong removes a song from the library (DELETE /api/songs/{id}).
func (h *Handlers) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	if err := h.songs.Delete(r.Context(), userID(r), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RateSong sets or clears a song's rating (PUT /api/songs/{id}/rating).
func (h *Handlers) RateSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	var req struct {
		Rating string `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rating, err := h.library.RateSong(r.Context(), userID(r), id, req.Rating)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"rating": rating})
}

// TagSong adds tags to a song (POST /api/songs/{id}/tags).
func (h *Handlers) TagSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tags, err := h.library.TagSong(r.Context(), userID(r), id, req.Tags)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// UntagSong removes a tag from a song (DELETE /api/songs/{id}/tags/{tag}).
func (h *Handlers) UntagSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	if err := h.library.UntagSong(r.Context(), userID(r), id, chi.URLParam(r, "tag")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TagCounts lists the user's tags with usage counts (GET /api/tags).
func (h *Handlers) TagCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tags.CountsForUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": counts})
}
