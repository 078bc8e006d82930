package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/urfave/cli/v2"

	"github.com/fulltobrim/fuelfinder/internal/snapshot"
	"github.com/fulltobrim/fuelfinder/pkg/engine"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the closest-cheapest HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP server port",
				Value: 8080,
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "Serve from a snapshot file instead of the database",
				EnvVars: []string{"FUELFINDER_DATA"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database file",
				Value: "fuel_prices.db",
			},
		},
		Action: serveAction,
	}
}

// recordSource yields the normalized records a query should run against.
type recordSource interface {
	Records(ctx context.Context) ([]engine.Record, error)
}

// fileSource serves a single snapshot file loaded at startup.
type fileSource struct {
	records []engine.Record
}

func newFileSource(path string) (*fileSource, error) {
	doc, err := snapshot.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{records: engine.Normalize(doc)}, nil
}

func (f *fileSource) Records(ctx context.Context) ([]engine.Record, error) {
	return f.records, nil
}

// storageSource serves whatever the latest stored snapshot is. The
// storage layer caches the decoded document, so normalizing per request
// keeps queries on fresh data without re-reading the database each time.
type storageSource struct {
	storage *snapshot.Storage
}

func (s *storageSource) Records(ctx context.Context) ([]engine.Record, error) {
	doc, err := s.storage.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Normalize(doc), nil
}

type server struct {
	source  recordSource
	storage *snapshot.Storage // nil when serving from a file
	log     *httplog.Logger
}

func serveAction(c *cli.Context) error {
	logger := httplog.NewLogger("fuelfinder", httplog.Options{
		JSON:            false,
		LogLevel:        slog.LevelDebug,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	srv := &server{log: logger}

	if dataPath := c.String("data"); dataPath != "" {
		source, err := newFileSource(dataPath)
		if err != nil {
			return fmt.Errorf("error loading snapshot file: %w", err)
		}
		srv.source = source
		logger.Info("Serving from snapshot file", "path", dataPath)
	} else {
		storage, err := snapshot.NewStorage(c.Context, c.String("db"), logger.Logger)
		if err != nil {
			return fmt.Errorf("error initializing storage: %w", err)
		}
		defer storage.Close()
		srv.storage = storage
		srv.source = &storageSource{storage: storage}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(20, time.Minute))

	r.Get("/health", srv.handleHealth)
	r.Get("/closest-cheapest", srv.handleClosestCheapest)

	addr := fmt.Sprintf("127.0.0.1:%d", c.Int("port"))
	logger.Debug("Starting server on", "addr", addr)
	log.Fatal(http.ListenAndServe(addr, r))

	return nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *server) handleClosestCheapest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	latStr := query.Get("lat")
	lonStr := query.Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, http.StatusBadRequest, "missing required lat/lon parameters")
		return
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	limit := engine.DefaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid query parameters")
			return
		}
		limit = parsed
	}

	fuel := query.Get("fuel")

	records, err := s.source.Records(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			writeError(w, http.StatusInternalServerError, "snapshot contains no records")
			return
		}
		s.log.Error("Error loading snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "error loading snapshot")
		return
	}

	results, err := engine.ClosestCheapest(records, engine.LatLon{Lat: lat, Lon: lon}, fuel, limit)
	if err != nil {
		if errors.Is(err, engine.ErrEmptySnapshot) {
			writeError(w, http.StatusInternalServerError, "snapshot contains no records")
			return
		}
		s.log.Error("Error running query", "error", err)
		writeError(w, http.StatusInternalServerError, "error running query")
		return
	}

	if s.storage != nil {
		if err := s.storage.LogSearchLocation(r.Context(), lat, lon); err != nil {
			s.log.Warn("Error logging search location", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"limit":   limit,
		"fuel":    fuel,
		"results": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
