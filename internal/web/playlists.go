package web

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/validate"
)

// maxPlaylistSongs caps how many songs one request may attach.
const maxPlaylistSongs = 500

// playlistRequest is the body for playlist create and rename requests.
type playlistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SongIDs     []string `json:"song_ids"`
}

// parseSongIDs validates and parses a song id list. An empty input is
// allowed; playlists may start empty.
func parseSongIDs(raw []string) ([]uuid.UUID, string) {
	if len(raw) == 0 {
		return nil, ""
	}

	res := validate.IDList(raw, maxPlaylistSongs)
	if !res.Valid() {
		return nil, res.Message()
	}

	ids := make([]uuid.UUID, 0, len(res.Value()))
	for _, s := range res.Value() {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, "song ids must be valid UUIDs"
		}
		ids = append(ids, id)
	}
	return ids, ""
}

// playlistFields validates the name and optional description.
func playlistFields(req playlistRequest) (string, *string, string) {
	name := validate.MusicTitle(req.Name)
	if !name.Valid() {
		return "", nil, name.Message()
	}

	var description *string
	if req.Description != "" {
		res := validate.FreeText(req.Description, 500)
		if !res.Valid() {
			return "", nil, res.Message()
		}
		d := res.Value()
		description = &d
	}

	return name.Value(), description, ""
}

// CreatePlaylist creates a playlist, optionally with songs
// (POST /api/playlists).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, description, msg := playlistFields(req)
	if msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	songIDs, msg := parseSongIDs(req.SongIDs)
	if msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	playlist := &db.Playlist{
		UserID:      userID(r),
		Name:        name,
		Description: description,
	}
	if err := h.playlists.Create(r.Context(), playlist, songIDs); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, playlist)
}

// ListPlaylists lists the user's playlists (GET /api/playlists).
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.ListForUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": playlists})
}

// GetPlaylist returns a playlist with its songs in order
// (GET /api/playlists/{id}).
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	playlist, err := h.playlists.Get(r.Context(), userID(r), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	songs, err := h.playlists.Songs(r.Context(), playlist.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if songs == nil {
		songs = []db.Song{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"playlist": playlist,
		"songs":    songs,
	})
}

// RenamePlaylist updates a playlist's name and description
// (PUT /api/playlists/{id}).
func (h *Handlers) RenamePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, description, msg := playlistFields(req)
	if msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := h.playlists.Rename(r.Context(), userID(r), id, name, description); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetPlaylistSongs replaces a playlist's songs (PUT /api/playlists/{id}/songs).
func (h *Handlers) SetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req struct {
		SongIDs []string `json:"song_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	songIDs, msg := parseSongIDs(req.SongIDs)
	if msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := h.playlists.SetSongs(r.Context(), userID(r), id, songIDs); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePlaylist removes a playlist (DELETE /api/playlists/{id}).
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	if err := h.playlists.Delete(r.Context(), userID(r), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
