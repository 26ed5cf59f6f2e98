package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jordank1977/mimirr/internal/adapter"
	"github.com/jordank1977/mimirr/internal/config"
	"github.com/jordank1977/mimirr/internal/core"
	"github.com/jordank1977/mimirr/pkg/http_client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := adapter.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	library := adapter.NewReadarrClient(cfg,
		http_client.CreateHTTPClient(cfg.LibraryTimeout),
		cfg.LibraryRetry, cfg.LibraryRPS, logger)

	svc := core.NewService(
		adapter.NewRequestRepo(db),
		adapter.NewCatalogRepo(db),
		library,
		adapter.NewLogNotifier(logger),
		cfg,
		core.NewBookListCache(cfg.BookListTTL),
		logger,
	)

	// Poll cadence belongs to the caller, not the engine; zero interval
	// means on-demand only via POST /api/v1/poll.
	if cfg.PollInterval > 0 {
		go pollLoop(svc, cfg.PollInterval, logger)
	}

	h := adapter.NewHandler(svc, logger)

	log.Printf("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, h.Routes()); err != nil {
		log.Fatal(err)
	}
}

func pollLoop(svc *core.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := svc.PollAll(context.Background()); err != nil {
			logger.Error("scheduled poll failed", "error", err)
		}
	}
}
