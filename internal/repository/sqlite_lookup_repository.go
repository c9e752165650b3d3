package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/mediakit/internal/domain"
)

// SQLiteLookupRepository implements LookupRepository on a SQLite database.
// Only the newest maxEntries lookups are kept.
type SQLiteLookupRepository struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteLookupRepository opens (creating if needed) the database at path.
func NewSQLiteLookupRepository(path string, maxEntries int) (*SQLiteLookupRepository, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS lookups (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			platform TEXT NOT NULL,
			external_id TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			format_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_lookups_platform ON lookups(platform);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteLookupRepository{db: db, maxEntries: maxEntries}, nil
}

// Record stores a lookup and prunes entries beyond the retention limit.
func (r *SQLiteLookupRepository) Record(ctx context.Context, lookup *domain.Lookup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lookups (id, platform, external_id, url, title, format_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		string(lookup.ID),
		string(lookup.Platform),
		lookup.ExternalID,
		lookup.URL,
		lookup.Title,
		lookup.FormatCount,
		lookup.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert lookup: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM lookups WHERE seq <= (SELECT MAX(seq) FROM lookups) - ?
	`, r.maxEntries)
	if err != nil {
		return fmt.Errorf("prune lookups: %w", err)
	}

	return tx.Commit()
}

// Get retrieves a lookup by ID.
func (r *SQLiteLookupRepository) Get(ctx context.Context, id domain.LookupID) (*domain.Lookup, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, platform, external_id, url, title, format_count, created_at
		FROM lookups WHERE id = ?
	`, string(id))

	lookup, err := scanLookup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLookupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lookup: %w", err)
	}
	return lookup, nil
}

// Recent returns up to limit lookups, newest first.
func (r *SQLiteLookupRepository) Recent(ctx context.Context, limit int) ([]*domain.Lookup, error) {
	if limit <= 0 {
		limit = r.maxEntries
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, platform, external_id, url, title, format_count, created_at
		FROM lookups ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer rows.Close()

	var result []*domain.Lookup
	for rows.Next() {
		lookup, err := scanLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		result = append(result, lookup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}

	return result, nil
}

// Stats returns lookup counts.
func (r *SQLiteLookupRepository) Stats(ctx context.Context) (*LookupStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT platform, COUNT(*) FROM lookups GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := &LookupStats{ByPlatform: make(map[domain.Platform]int)}
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByPlatform[domain.Platform(platform)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	return stats, nil
}

// Ping checks the database connection.
func (r *SQLiteLookupRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *SQLiteLookupRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLookup(row rowScanner) (*domain.Lookup, error) {
	var (
		lookup    domain.Lookup
		id        string
		platform  string
		title     sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &platform, &lookup.ExternalID, &lookup.URL, &title, &lookup.FormatCount, &createdAt); err != nil {
		return nil, err
	}
	lookup.ID = domain.LookupID(id)
	lookup.Platform = domain.Platform(platform)
	lookup.Title = title.String
	lookup.CreatedAt = time.Unix(0, createdAt).UTC()
	return &lookup, nil
}
