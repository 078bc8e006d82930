// Package snapshot persists aggregated fuel price snapshots and loads
// them back as decoded JSON documents ready for normalization.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"
)

const (
	cacheDefaultExpiry = 5 * time.Minute
	cacheCleanupTime   = 10 * time.Minute

	latestCacheKey = "latest_snapshot"

	// Query locations are rounded before logging so the log clusters
	// nearby searches instead of storing precise user positions.
	locationLogDecimalPlaces = 2

	defaultCacheSize = -1024 * 1024 // negative value for pages
	defaultPageSize  = 4096
)

// ErrNoSnapshot reports that the store holds no snapshot at all. Callers
// use it to distinguish a missing data set from a query with no matches.
var ErrNoSnapshot = errors.New("no snapshot available")

// Storage keeps dated snapshot blobs in sqlite, with the decoded latest
// snapshot cached in memory.
type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configurePragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &Storage{
		db:    db,
		cache: cache.New(cacheDefaultExpiry, cacheCleanupTime),
		log:   logger,
	}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE NOT NULL,
		data BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(date);

	CREATE TABLE IF NOT EXISTS location_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 1,
		last_search TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_location_logs_coordinates ON location_logs (latitude, longitude);
	`

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func configurePragmas(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", defaultCacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize)); err != nil {
		return fmt.Errorf("error setting page size: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// SaveSnapshot stores the raw snapshot JSON under the given date,
// replacing any snapshot already saved for that date.
func (s *Storage) SaveSnapshot(ctx context.Context, date time.Time, data []byte) error {
	dateStr := date.Format("2006-01-02")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Warn("rollback error", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO snapshots (date, data) VALUES (?, ?)", dateStr, data)
	if err != nil {
		return fmt.Errorf("error inserting data: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	// Drop the cached snapshot so the next query sees the new data.
	s.cache.Delete(latestCacheKey)

	return nil
}

// LatestSnapshot returns the most recent snapshot decoded as a generic
// JSON value. The decoded value is cached; callers must treat it as
// immutable.
func (s *Storage) LatestSnapshot(ctx context.Context) (any, error) {
	if cached, found := s.cache.Get(latestCacheKey); found {
		s.log.Debug("Using cached snapshot", "key", latestCacheKey)
		return cached, nil
	}

	var jsonData []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots ORDER BY date DESC LIMIT 1").Scan(&jsonData)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("error querying database: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("error unmarshaling snapshot: %w", err)
	}

	s.cache.Set(latestCacheKey, doc, cache.DefaultExpiration)

	return doc, nil
}

// LatestDate returns the date of the most recent snapshot, or nil when
// the store is empty.
func (s *Storage) LatestDate(ctx context.Context) (*time.Time, error) {
	var dateStr string
	err := s.db.QueryRowContext(ctx, "SELECT date FROM snapshots ORDER BY date DESC LIMIT 1").Scan(&dateStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying latest date: %w", err)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing date %s: %w", dateStr, err)
	}
	return &date, nil
}

// HasDate reports whether a snapshot exists for the given date.
func (s *Storage) HasDate(ctx context.Context, date time.Time) (bool, error) {
	dateStr := date.Format("2006-01-02")
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE date = ?", dateStr).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking date existence: %w", err)
	}
	return count > 0, nil
}

// AllDates returns all snapshot dates, sorted ascending.
func (s *Storage) AllDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date FROM snapshots ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("error scanning date: %w", err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error: %w", err)
	}
	return dates, nil
}

// DeleteOldSnapshots removes snapshots older than daysOld days.
func (s *Storage) DeleteOldSnapshots(ctx context.Context, daysOld int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -daysOld).Format("2006-01-02")

	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE date < ?", cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("error deleting old snapshots: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted snapshots: %w", err)
	}

	s.cache.Delete(latestCacheKey)
	s.log.Info("Completed snapshot cleanup", "cutoff_date", cutoffDate, "deleted_count", deleted)

	return deleted, nil
}

// LogSearchLocation records a query location, with coordinates reduced to
// a coarse precision first.
func (s *Storage) LogSearchLocation(ctx context.Context, latitude, longitude float64) error {
	lat, lng := reduceLocationPrecision(latitude, longitude, locationLogDecimalPlaces)

	var id int64
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, search_count FROM location_logs
		WHERE latitude = ? AND longitude = ?
		LIMIT 1
	`, lat, lng).Scan(&id, &count)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("error checking for existing location: %w", err)
	}

	if err == sql.ErrNoRows {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO location_logs (latitude, longitude) VALUES (?, ?)
		`, lat, lng)
		if err != nil {
			return fmt.Errorf("error logging search location: %w", err)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE location_logs
		SET search_count = search_count + 1, last_search = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("error updating search location: %w", err)
	}
	return nil
}

// PopularLocation is one logged query area and its search count.
type PopularLocation struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	SearchCount int64   `json:"count"`
}

// PopularLocations returns the most searched locations, most popular
// first.
func (s *Storage) PopularLocations(ctx context.Context, limit int) ([]PopularLocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude, search_count
		FROM location_logs
		ORDER BY search_count DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying popular locations: %w", err)
	}
	defer rows.Close()

	var locations []PopularLocation
	for rows.Next() {
		var loc PopularLocation
		if err := rows.Scan(&loc.Latitude, &loc.Longitude, &loc.SearchCount); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return locations, nil
}

func reduceLocationPrecision(lat, lng float64, decimalPlaces int) (roundedLat, roundedLng float64) {
	factor := math.Pow(10, float64(decimalPlaces))
	roundedLat = math.Round(lat*factor) / factor
	roundedLng = math.Round(lng*factor) / factor
	return
}
