package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tunelog/tunelog/internal/catalog"
	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/enrich"
	"github.com/tunelog/tunelog/internal/insights"
	"github.com/tunelog/tunelog/internal/library"
	"github.com/tunelog/tunelog/internal/ratelimit"
)

type fakeCatalog struct {
	lastQuery  string
	lastTypes  []string
	lastSong   string
	lastArtist string
	trackErr   error
	connected  bool
}

func (f *fakeCatalog) Search(ctx context.Context, query string, types []string, limit int) (*catalog.SearchResult, error) {
	f.lastQuery = query
	f.lastTypes = types
	return &catalog.SearchResult{}, nil
}

func (f *fakeCatalog) SearchWithPreview(ctx context.Context, song, artist string, limit int) *catalog.PreviewResult {
	f.lastSong = song
	f.lastArtist = artist
	return &catalog.PreviewResult{Tracks: catalog.MetadataPage{Items: []catalog.TrackMetadata{}}}
}

func (f *fakeCatalog) GetTrack(ctx context.Context, id string) (*catalog.Track, error) {
	if f.trackErr != nil {
		return nil, f.trackErr
	}
	return &catalog.Track{ID: id, Name: "Karma Police"}, nil
}

func (f *fakeCatalog) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	return &catalog.Artist{ID: id, Name: "Radiohead"}, nil
}

func (f *fakeCatalog) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	return &catalog.Album{ID: id, Name: "OK Computer"}, nil
}

func (f *fakeCatalog) GetAlbumTracks(ctx context.Context, id string) ([]catalog.Track, error) {
	return []catalog.Track{{ID: "t1"}}, nil
}

func (f *fakeCatalog) TestConnection(ctx context.Context) bool {
	return f.connected
}

type fakeLibrary struct {
	logErr   error
	logged   *library.LogSongInput
	rated    *string
	tagged   []string
	untagErr error
}

func (f *fakeLibrary) LogSong(ctx context.Context, userID string, in library.LogSongInput) (*db.Song, error) {
	if f.logErr != nil {
		return nil, f.logErr
	}
	f.logged = &in
	return &db.Song{ID: uuid.New(), UserID: userID, Title: in.Title, Artist: in.Artist}, nil
}

func (f *fakeLibrary) UpdateSong(ctx context.Context, userID string, songID uuid.UUID, in library.LogSongInput) (*db.Song, error) {
	if f.logErr != nil {
		return nil, f.logErr
	}
	f.logged = &in
	return &db.Song{ID: songID, UserID: userID, Title: in.Title, Artist: in.Artist}, nil
}

func (f *fakeLibrary) RateSong(ctx context.Context, userID string, songID uuid.UUID, raw string) (*int, error) {
	f.rated = &raw
	if raw == "" {
		return nil, nil
	}
	n := 4
	return &n, nil
}

func (f *fakeLibrary) TagSong(ctx context.Context, userID string, songID uuid.UUID, rawTags []string) ([]string, error) {
	f.tagged = rawTags
	return rawTags, nil
}

func (f *fakeLibrary) UntagSong(ctx context.Context, userID string, songID uuid.UUID, tag string) error {
	return f.untagErr
}

type fakeSongStore struct {
	songs     map[uuid.UUID]db.Song
	deleteErr error
}

func (f *fakeSongStore) Get(ctx context.Context, userID string, id uuid.UUID) (*db.Song, error) {
	s, ok := f.songs[id]
	if !ok || s.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSongStore) ListForUser(ctx context.Context, userID string) ([]db.Song, error) {
	var out []db.Song
	for _, s := range f.songs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.songs[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.songs, id)
	return nil
}

type fakeTagStore struct {
	tags map[uuid.UUID][]string
}

func (f *fakeTagStore) ForSong(ctx context.Context, songID uuid.UUID) ([]string, error) {
	return f.tags[songID], nil
}

func (f *fakeTagStore) CountsForUser(ctx context.Context, userID string) ([]db.TagCount, error) {
	return []db.TagCount{{Tag: "favorites", Count: 3}}, nil
}

type fakePlaylistStore struct {
	playlists map[uuid.UUID]db.Playlist
	songs     map[uuid.UUID][]db.Song
	setIDs    []uuid.UUID
}

func (f *fakePlaylistStore) Create(ctx context.Context, playlist *db.Playlist, songIDs []uuid.UUID) error {
	playlist.ID = uuid.New()
	if f.playlists == nil {
		f.playlists = make(map[uuid.UUID]db.Playlist)
	}
	f.playlists[playlist.ID] = *playlist
	return nil
}

func (f *fakePlaylistStore) Get(ctx context.Context, userID string, id uuid.UUID) (*db.Playlist, error) {
	p, ok := f.playlists[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (f *fakePlaylistStore) ListForUser(ctx context.Context, userID string) ([]db.Playlist, error) {
	var out []db.Playlist
	for _, p := range f.playlists {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaylistStore) Rename(ctx context.Context, userID string, id uuid.UUID, name string, description *string) error {
	p, ok := f.playlists[id]
	if !ok || p.UserID != userID {
		return db.ErrNotFound
	}
	p.Name = name
	p.Description = description
	f.playlists[id] = p
	return nil
}

func (f *fakePlaylistStore) SetSongs(ctx context.Context, userID string, id uuid.UUID, songIDs []uuid.UUID) error {
	if _, ok := f.playlists[id]; !ok {
		return db.ErrNotFound
	}
	f.setIDs = songIDs
	return nil
}

func (f *fakePlaylistStore) Songs(ctx context.Context, playlistID uuid.UUID) ([]db.Song, error) {
	return f.songs[playlistID], nil
}

func (f *fakePlaylistStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if _, ok := f.playlists[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.playlists, id)
	return nil
}

type fakeEnrich struct {
	report enrich.Report
}

func (f *fakeEnrich) EnrichUser(ctx context.Context, userID string) (enrich.Report, error) {
	return f.report, nil
}

type fakeInsights struct {
	eras []insights.Era
}

func (f *fakeInsights) ErasForUser(ctx context.Context, userID string) ([]insights.Era, []db.Song, error) {
	return f.eras, nil, nil
}

type testDeps struct {
	catalog   *fakeCatalog
	library   *fakeLibrary
	songs     *fakeSongStore
	tags      *fakeTagStore
	playlists *fakePlaylistStore
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		catalog:   &fakeCatalog{connected: true},
		library:   &fakeLibrary{},
		songs:     &fakeSongStore{songs: make(map[uuid.UUID]db.Song)},
		tags:      &fakeTagStore{tags: make(map[uuid.UUID][]string)},
		playlists: &fakePlaylistStore{playlists: make(map[uuid.UUID]db.Playlist), songs: make(map[uuid.UUID][]db.Song)},
	}

	s, err := NewServer(ServerConfig{
		Addr:      "127.0.0.1:0",
		Catalog:   deps.catalog,
		Library:   deps.library,
		Enrich:    &fakeEnrich{report: enrich.Report{Processed: 2, Updated: 2}},
		Insights:  &fakeInsights{},
		Songs:     deps.songs,
		Tags:      deps.tags,
		Playlists: deps.playlists,
		Limiter:   ratelimit.New(ratelimit.NewMemoryStore()),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	return s, deps
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestSearchValidatesQuery(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/search?q=", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(s, http.MethodGet, "/api/search?q=karma+%3Cscript%3Epolice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.ContainsAny(deps.catalog.lastQuery, "<>") {
		t.Errorf("dangerous characters reached catalog: %q", deps.catalog.lastQuery)
	}
}

func TestSearchRejectsUnknownType(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/search?q=ok&type=podcast", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchPreviewForwardsParams(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/search/preview?song=Yesterday&artist=The+Beatles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if deps.catalog.lastSong != "Yesterday" || deps.catalog.lastArtist != "The Beatles" {
		t.Errorf("forwarded song=%q artist=%q", deps.catalog.lastSong, deps.catalog.lastArtist)
	}

	var body struct {
		Tracks struct {
			Items []catalog.TrackMetadata `json:"items"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Tracks.Items == nil {
		t.Error("items should be an empty array, not null")
	}
}

func TestTrackLookupMapsCatalogErrors(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/tracks/abc123", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	deps.catalog.trackErr = &catalog.APIError{Status: http.StatusNotFound, Message: "non existing id"}
	rec = doRequest(s, http.MethodGet, "/api/tracks/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("not found: status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	deps.catalog.trackErr = &catalog.APIError{Status: http.StatusServiceUnavailable, Message: "down"}
	rec = doRequest(s, http.MethodGet, "/api/tracks/abc123", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("transient: status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestLogSong(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/songs", `{"title":"Yesterday","artist":"The Beatles","rating":"5"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if deps.library.logged == nil || deps.library.logged.Title != "Yesterday" {
		t.Errorf("input not forwarded: %+v", deps.library.logged)
	}
}

func TestUpdateSong(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/songs/"+uuid.NewString(), `{"title":"Let It Be","artist":"The Beatles"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if deps.library.logged == nil || deps.library.logged.Title != "Let It Be" {
		t.Errorf("input not forwarded: %+v", deps.library.logged)
	}
}

func TestLogSongValidationError(t *testing.T) {
	s, deps := newTestServer(t)
	deps.library.logErr = &library.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}

	rec := doRequest(s, http.MethodPost, "/api/songs", `{"title":"x","artist":"y","rating":"9"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["field"] != "rating" {
		t.Errorf("field = %q, want %q", body["field"], "rating")
	}
}

func TestLogSongDuplicateConflict(t *testing.T) {
	s, deps := newTestServer(t)
	deps.library.logErr = &library.DuplicateError{Matches: []db.Song{{Title: "Yesterday"}}}

	rec := doRequest(s, http.MethodPost, "/api/songs", `{"title":"Yesterday","artist":"The Beatles"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestGetSongWithTags(t *testing.T) {
	s, deps := newTestServer(t)

	id := uuid.New()
	deps.songs.songs[id] = db.Song{ID: id, UserID: defaultUser, Title: "Yesterday", Artist: "The Beatles"}
	deps.tags.tags[id] = []string{"favorites"}

	rec := doRequest(s, http.MethodGet, "/api/songs/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Tags) != 1 || body.Tags[0] != "favorites" {
		t.Errorf("tags = %v, want [favorites]", body.Tags)
	}
}

func TestGetSongInvalidID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/songs/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteSong(t *testing.T) {
	s, deps := newTestServer(t)

	id := uuid.New()
	deps.songs.songs[id] = db.Song{ID: id, UserID: defaultUser}

	rec := doRequest(s, http.MethodDelete, "/api/songs/"+id.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doRequest(s, http.MethodDelete, "/api/songs/"+id.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRateSong(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/songs/"+uuid.NewString()+"/rating", `{"rating":"4"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Rating *int `json:"rating"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Rating == nil || *body.Rating != 4 {
		t.Errorf("rating = %v, want 4", body.Rating)
	}
}

func TestCreatePlaylistValidatesName(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/playlists", `{"name":""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	rec = doRequest(s, http.MethodPost, "/api/playlists", `{"name":"Rainy Days"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestSetPlaylistSongsRejectsBadIDs(t *testing.T) {
	s, deps := newTestServer(t)

	id := uuid.New()
	deps.playlists.playlists[id] = db.Playlist{ID: id, UserID: defaultUser, Name: "Rainy Days"}

	rec := doRequest(s, http.MethodPut, "/api/playlists/"+id.String()+"/songs", `{"song_ids":["nope"]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	good := uuid.NewString()
	rec = doRequest(s, http.MethodPut, "/api/playlists/"+id.String()+"/songs", `{"song_ids":["`+good+`","`+good+`"]}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(deps.playlists.setIDs) != 1 {
		t.Errorf("duplicate ids should collapse, got %d", len(deps.playlists.setIDs))
	}
}

func TestUserHeaderScopesLibrary(t *testing.T) {
	s, deps := newTestServer(t)

	mine := uuid.New()
	theirs := uuid.New()
	deps.songs.songs[mine] = db.Song{ID: mine, UserID: "alice"}
	deps.songs.songs[theirs] = db.Song{ID: theirs, UserID: "bob"}

	req := httptest.NewRequest(http.MethodGet, "/api/songs/"+theirs.String(), nil)
	req.Header.Set(userHeader, "alice")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user access: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealth(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	deps.catalog.connected = false
	rec = doRequest(s, http.MethodGet, "/healthz", "")

	var body struct {
		Catalog bool `json:"catalog"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Catalog {
		t.Error("catalog should report down")
	}
}

func TestSearchRateLimitHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/search?q=ok", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header")
	}
}
