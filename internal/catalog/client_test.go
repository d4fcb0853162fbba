package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient builds a client pointed at the given fake servers.
func newTestClient(apiURL, tokenURL string, httpClient *http.Client) *Client {
	return &Client{
		clientID:     "test-id",
		clientSecret: "test-secret",
		httpClient:   httpClient,
		baseURL:      apiURL,
		tokenURL:     tokenURL,
		now:          time.Now,
	}
}

func tokenHandler(exchanges *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}
}

func TestAuthenticateCachesCredential(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(tokenHandler(&exchanges))
	defer server.Close()

	client := newTestClient("", server.URL, server.Client())

	first, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if first.Token != "test-token" {
		t.Errorf("Authenticate() token = %q, want %q", first.Token, "test-token")
	}

	second, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() second call error = %v", err)
	}
	if second.Token != first.Token {
		t.Errorf("second credential = %q, want cached %q", second.Token, first.Token)
	}
	if got := exchanges.Load(); got != 1 {
		t.Errorf("token exchanges = %d, want 1", got)
	}
}

func TestAuthenticateRefreshesExpiredCredential(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(tokenHandler(&exchanges))
	defer server.Close()

	client := newTestClient("", server.URL, server.Client())

	now := time.Now()
	client.now = func() time.Time { return now }

	if _, err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	// Within the refresh skew of expiry the credential counts as unusable.
	now = now.Add(3600*time.Second - 30*time.Second)
	if _, err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() after expiry error = %v", err)
	}

	if got := exchanges.Load(); got != 2 {
		t.Errorf("token exchanges = %d, want 2", got)
	}
}

func TestAuthenticateErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_client",
			"error_description": "Invalid client secret",
		})
	}))
	defer server.Close()

	client := newTestClient("", server.URL, server.Client())

	_, err := client.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Authenticate() error = %T, want *AuthError", err)
	}
	if authErr.Code != "invalid_client" {
		t.Errorf("AuthError.Code = %q, want %q", authErr.Code, "invalid_client")
	}
	if authErr.Description != "Invalid client secret" {
		t.Errorf("AuthError.Description = %q", authErr.Description)
	}
}

func TestGetMapsAPIError(t *testing.T) {
	var exchanges atomic.Int64
	tokenServer := httptest.NewServer(tokenHandler(&exchanges))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"status": 404, "message": "non existing id"},
		})
	}))
	defer apiServer.Close()

	client := newTestClient(apiServer.URL, tokenServer.URL, apiServer.Client())

	_, err := client.GetTrack(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetTrack() error = %T (%v), want *APIError", err, err)
	}
	if apiErr.Status != 404 || apiErr.Message != "non existing id" {
		t.Errorf("APIError = %+v, want status 404 / 'non existing id'", apiErr)
	}
	if apiErr.Transient() {
		t.Error("Transient() = true for 404, want false")
	}
}

func TestGetMapsTransportError(t *testing.T) {
	var exchanges atomic.Int64
	tokenServer := httptest.NewServer(tokenHandler(&exchanges))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	apiURL := apiServer.URL
	apiServer.Close() // connection refused from here on

	client := newTestClient(apiURL, tokenServer.URL, &http.Client{Timeout: time.Second})

	_, err := client.GetTrack(context.Background(), "abc")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("GetTrack() error = %T (%v), want *TransportError", err, err)
	}
}

func TestGetAttachesBearerToken(t *testing.T) {
	var exchanges atomic.Int64
	tokenServer := httptest.NewServer(tokenHandler(&exchanges))
	defer tokenServer.Close()

	var gotAuth string
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Track{ID: "abc", Name: "Song"})
	}))
	defer apiServer.Close()

	client := newTestClient(apiServer.URL, tokenServer.URL, apiServer.Client())

	track, err := client.GetTrack(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer test-token")
	}
	if track.ID != "abc" {
		t.Errorf("track ID = %q, want %q", track.ID, "abc")
	}
}
