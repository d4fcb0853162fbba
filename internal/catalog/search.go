package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// maxSearchLimit is the largest page size the catalog accepts.
const maxSearchLimit = 50

// previewMarkets are the regional markets consulted, in order, when the
// global search comes up short on previewable tracks.
var previewMarkets = []string{"US", "GB"}

// Search issues a plain catalog search for the given entity types.
func (c *Client) Search(ctx context.Context, query string, types []string, limit int) (*SearchResult, error) {
	params := url.Values{
		"q":     {query},
		"type":  {strings.Join(types, ",")},
		"limit": {strconv.Itoa(limit)},
	}
	var res SearchResult
	if err := c.get(ctx, "/search", params, &res); err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	return &res, nil
}

// searchTracks runs a track search, optionally scoped to a market.
func (c *Client) searchTracks(ctx context.Context, query string, limit int, market string) ([]Track, error) {
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}
	if market != "" {
		params.Set("market", market)
	}
	var res SearchResult
	if err := c.get(ctx, "/search", params, &res); err != nil {
		return nil, err
	}
	return res.Tracks.Items, nil
}

// SearchWithPreview searches for tracks that carry a playable preview
// clip. Catalog search frequently returns entries without one, so
// results are gathered in three tiers, each filtering for preview
// presence and de-duplicating by catalog id:
//
//  1. the combined "{song} artist:{artist}" query, over-fetching up to
//     twice the requested limit (capped at 50);
//  2. the same query scoped to each preview market in order, until the
//     limit is reached;
//  3. only if nothing at all was found and an artist was given, the
//     title-only query.
//
// Per-tier failures are logged and swallowed; when every tier fails the
// result is an empty envelope, never an error.
func (c *Client) SearchWithPreview(ctx context.Context, song, artist string, limit int) *PreviewResult {
	if limit <= 0 {
		limit = 10
	}

	query := song
	if artist != "" {
		query = fmt.Sprintf("%s artist:%s", song, artist)
	}

	fetch := limit * 2
	if fetch > maxSearchLimit {
		fetch = maxSearchLimit
	}

	seen := make(map[string]bool)
	items := make([]TrackMetadata, 0, limit)

	collect := func(tracks []Track) {
		for _, t := range tracks {
			if len(items) >= limit {
				return
			}
			if t.PreviewURL == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			items = append(items, ExtractTrackMetadata(t))
		}
	}

	// Tier 1: global search.
	if tracks, err := c.searchTracks(ctx, query, fetch, ""); err != nil {
		c.logf("preview search: global query failed: %v", err)
	} else {
		collect(tracks)
	}

	// Tier 2: market-scoped searches.
	for _, market := range previewMarkets {
		if len(items) >= limit {
			break
		}
		tracks, err := c.searchTracks(ctx, query, fetch, market)
		if err != nil {
			c.logf("preview search: market %s query failed: %v", market, err)
			continue
		}
		collect(tracks)
	}

	// Tier 3: drop the artist constraint if nothing was found at all.
	if len(items) == 0 && artist != "" {
		if tracks, err := c.searchTracks(ctx, song, fetch, ""); err != nil {
			c.logf("preview search: title-only query failed: %v", err)
		} else {
			collect(tracks)
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}

	return &PreviewResult{
		Tracks: MetadataPage{
			Items:  items,
			Total:  len(items),
			Limit:  limit,
			Offset: 0,
		},
	}
}

// TestConnection reports whether the catalog is reachable with the
// configured credentials. All errors are swallowed.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.Search(ctx, "test", []string{"track"}, 1)
	return err == nil
}
