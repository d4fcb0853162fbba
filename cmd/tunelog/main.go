// Command tunelog runs the personal music collection tracker.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tunelog/tunelog/internal/catalog"
	"github.com/tunelog/tunelog/internal/config"
	"github.com/tunelog/tunelog/internal/db"
	"github.com/tunelog/tunelog/internal/enrich"
	"github.com/tunelog/tunelog/internal/insights"
	"github.com/tunelog/tunelog/internal/library"
	"github.com/tunelog/tunelog/internal/ratelimit"
	"github.com/tunelog/tunelog/internal/web"
)

// sweepInterval is how often stale rate-limit windows are cleaned up.
const sweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	cat := catalog.New(cfg.ClientID, cfg.ClientSecret)

	limiter := ratelimit.New(ratelimit.NewPGStore(database.Pool()))
	go sweepLoop(ctx, limiter)

	songs := database.Songs()
	tags := database.Tags()

	server, err := web.NewServer(web.ServerConfig{
		Addr:      cfg.Addr,
		Catalog:   cat,
		Library:   library.NewService(songs, tags),
		Enrich:    enrich.NewService(cat, songs),
		Insights:  insights.NewService(songs),
		Songs:     songs,
		Tags:      tags,
		Playlists: database.Playlists(),
		Limiter:   limiter,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// sweepLoop periodically removes rate-limit windows that have seen no
// traffic for a day.
func sweepLoop(ctx context.Context, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(ctx, ratelimit.SweepMaxAge)
			log.Println("rate limit windows swept")
		}
	}
}
