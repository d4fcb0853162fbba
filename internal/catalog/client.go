// Package catalog provides read-only access to the Spotify catalog
// using app-level client credentials.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	requestTimeout  = 30 * time.Second

	// refreshSkew is subtracted from the token expiry so a token is
	// never used when it could expire mid-request.
	refreshSkew = time.Minute
)

// Credential is a cached bearer token. It lives only in process memory
// and is discarded on restart.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// usable reports whether the credential can still be attached to a request.
func (c Credential) usable(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt.Add(-refreshSkew))
}

// Client is a catalog API client. It caches its bearer credential and
// throttles outbound requests; it performs no automatic retry beyond
// refreshing an expired token.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	limiter      *rate.Limiter
	logger       *log.Logger
	now          func() time.Time

	mu   sync.Mutex
	cred Credential
}

// New creates a catalog client from an app client id/secret pair.
func New(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
		limiter:  rate.NewLimiter(rate.Every(time.Second/10), 5),
		now:      time.Now,
	}
}

// Authenticate exchanges the client credentials for a bearer token,
// returning the cached credential if it is still usable. Calling it
// twice within the validity window performs exactly one exchange.
func (c *Client) Authenticate(ctx context.Context) (Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred.usable(c.now()) {
		return c.cred, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &AuthError{Err: err}
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int    `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Credential{}, &AuthError{Err: fmt.Errorf("parsing token response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK || payload.Error != "" {
		return Credential{}, &AuthError{
			Code:        payload.Error,
			Description: payload.ErrorDescription,
		}
	}

	c.cred = Credential{
		Token:     payload.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	return c.cred, nil
}

// get issues an authenticated GET to baseURL+path and decodes the JSON
// response into v, refreshing the credential first if it has expired.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	cred, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Err: err}
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	// The catalog wraps errors in an {"error":{status,message}} envelope.
	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Status != 0 {
		return &APIError{Status: envelope.Error.Status, Message: envelope.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing catalog response: %w", err)
	}
	return nil
}

// GetTrack fetches a single track by catalog id.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	var t Track
	if err := c.get(ctx, "/tracks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, fmt.Errorf("fetching track: %w", err)
	}
	return &t, nil
}

// GetArtist fetches a single artist by catalog id.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var a Artist
	if err := c.get(ctx, "/artists/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, fmt.Errorf("fetching artist: %w", err)
	}
	return &a, nil
}

// GetAlbum fetches a single album by catalog id.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var a Album
	if err := c.get(ctx, "/albums/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, fmt.Errorf("fetching album: %w", err)
	}
	return &a, nil
}

// GetAlbumTracks fetches the tracks of an album.
func (c *Client) GetAlbumTracks(ctx context.Context, id string) ([]Track, error) {
	var page TrackPage
	if err := c.get(ctx, "/albums/"+url.PathEscape(id)+"/tracks", nil, &page); err != nil {
		return nil, fmt.Errorf("fetching album tracks: %w", err)
	}
	return page.Items, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
