package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tunelog/tunelog/internal/catalog"
	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/enrich"
	"github.com/tunelog/tunelog/internal/insights"
	"github.com/tunelog/tunelog/internal/library"
)

// defaultUser identifies requests that carry no user header. The tracker is
// single-user by default; the header exists so shared deployments can
// partition libraries.
const defaultUser = "local"

// userHeader names the request header carrying the library owner's id.
const userHeader = "X-User-ID"

// Catalog is the slice of the external catalog client the handlers use.
type Catalog interface {
	Search(ctx context.Context, query string, types []string, limit int) (*catalog.SearchResult, error)
	SearchWithPreview(ctx context.Context, song, artist string, limit int) *catalog.PreviewResult
	GetTrack(ctx context.Context, id string) (*catalog.Track, error)
	GetArtist(ctx context.Context, id string) (*catalog.Artist, error)
	GetAlbum(ctx context.Context, id string) (*catalog.Album, error)
	GetAlbumTracks(ctx context.Context, id string) ([]catalog.Track, error)
	TestConnection(ctx context.Context) bool
}

// LibraryService logs, rates and tags songs.
type LibraryService interface {
	LogSong(ctx context.Context, userID string, in library.LogSongInput) (*db.Song, error)
	UpdateSong(ctx context.Context, userID string, songID uuid.UUID, in library.LogSongInput) (*db.Song, error)
	RateSong(ctx context.Context, userID string, songID uuid.UUID, raw string) (*int, error)
	TagSong(ctx context.Context, userID string, songID uuid.UUID, rawTags []string) ([]string, error)
	UntagSong(ctx context.Context, userID string, songID uuid.UUID, tag string) error
}

// EnrichService backfills catalog metadata for logged songs.
type EnrichService interface {
	EnrichUser(ctx context.Context, userID string) (enrich.Report, error)
}

// InsightsService computes collection eras.
type InsightsService interface {
	ErasForUser(ctx context.Context, userID string) ([]insights.Era, []db.Song, error)
}

// SongStore reads and deletes stored songs.
type SongStore interface {
	Get(ctx context.Context, userID string, id uuid.UUID) (*db.Song, error)
	ListForUser(ctx context.Context, userID string) ([]db.Song, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// TagStore reads tag data.
type TagStore interface {
	ForSong(ctx context.Context, songID uuid.UUID) ([]string, error)
	CountsForUser(ctx context.Context, userID string) ([]db.TagCount, error)
}

// PlaylistStore manages stored playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist *db.Playlist, songIDs []uuid.UUID) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*db.Playlist, error)
	ListForUser(ctx context.Context, userID string) ([]db.Playlist, error)
	Rename(ctx context.Context, userID string, id uuid.UUID, name string, description *string) error
	SetSongs(ctx context.Context, userID string, id uuid.UUID, songIDs []uuid.UUID) error
	Songs(ctx context.Context, playlistID uuid.UUID) ([]db.Song, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Handlers contains HTTP handlers for the JSON API.
type Handlers struct {
	catalog   Catalog
	library   LibraryService
	enrich    EnrichService
	insights  InsightsService
	songs     SongStore
	tags      TagStore
	playlists PlaylistStore
}

// NewHandlers creates a new Handlers instance from the server configuration.
func NewHandlers(cfg ServerConfig) *Handlers {
	return &Handlers{
		catalog:   cfg.Catalog,
		library:   cfg.Library,
		enrich:    cfg.Enrich,
		insights:  cfg.Insights,
		songs:     cfg.Songs,
		tags:      cfg.Tags,
		playlists: cfg.Playlists,
	}
}

// userIdentity extracts the library owner's id for rate limiting.
func userIdentity(r *http.Request) string {
	return r.Header.Get(userHeader)
}

// userID resolves the library owner for a request.
func userID(r *http.Request) string {
	if id := r.Header.Get(userHeader); id != "" {
		return id
	}
	return defaultUser
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// respondError writes a JSON error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *library.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
		return
	}

	var derr *library.DuplicateError
	if errors.As(err, &derr) {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":   "similar songs already logged",
			"matches": derr.Matches,
		})
		return
	}

	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	log.Printf("request failed: %v", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// respondCatalogError maps catalog client errors onto HTTP statuses.
func respondCatalogError(w http.ResponseWriter, err error) {
	var aerr *catalog.APIError
	if errors.As(err, &aerr) {
		if aerr.Status == http.StatusNotFound {
			respondError(w, http.StatusNotFound, "not found in catalog")
			return
		}
		if aerr.Transient() {
			respondError(w, http.StatusBadGateway, "catalog temporarily unavailable")
			return
		}
	}

	var authErr *catalog.AuthError
	if errors.As(err, &authErr) {
		log.Printf("catalog auth failed: %v", err)
		respondError(w, http.StatusBadGateway, "catalog authentication failed")
		return
	}

	var terr *catalog.TransportError
	if errors.As(err, &terr) {
		respondError(w, http.StatusBadGateway, "catalog unreachable")
		return
	}

	log.Printf("catalog request failed: %v", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// pathID parses the {id} URL parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// Health reports whether the service and its catalog connection are up
// (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "catalog": true}

	if !h.catalog.TestConnection(r.Context()) {
		status["catalog"] = false
	}

	respondJSON(w, http.StatusOK, status)
}

// Eras returns the user's collection eras (GET /api/insights/eras).
func (h *Handlers) Eras(w http.ResponseWriter, r *http.Request) {
	eras, outliers, err := h.insights.ErasForUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if eras == nil {
		eras = []insights.Era{}
	}
	if outliers == nil {
		outliers = []db.Song{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"eras":     eras,
		"outliers": outliers,
	})
}

// Enrich backfills catalog metadata for the user's songs (POST /api/enrich).
func (h *Handlers) Enrich(w http.ResponseWriter, r *http.Request) {
	report, err := h.enrich.EnrichUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
