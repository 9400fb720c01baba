package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// migration is one versioned schema change.
type migration struct {
	version int
	name    string
	up      string
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key  TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	hit_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_api_cache_expires ON api_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_api_cache_source ON api_cache(source);
`

const dataSchema = `
CREATE TABLE IF NOT EXISTS places (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL,
	city           TEXT NOT NULL,
	latitude       REAL NOT NULL DEFAULT 0,
	longitude      REAL NOT NULL DEFAULT 0,
	rating         REAL NOT NULL DEFAULT 0,
	price_estimate REAL NOT NULL DEFAULT 0,
	metadata       TEXT,
	updated_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_places_city ON places(city);
CREATE INDEX IF NOT EXISTS idx_places_city_category ON places(city, category);

CREATE TABLE IF NOT EXISTS travel_plans (
	id           TEXT PRIMARY KEY,
	destination  TEXT NOT NULL,
	days         INTEGER NOT NULL,
	travelers    INTEGER NOT NULL,
	payload      TEXT NOT NULL,
	generated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_travel_plans_destination
	ON travel_plans(destination, generated_at DESC);

CREATE TABLE IF NOT EXISTS analytics_results (
	id                 TEXT PRIMARY KEY,
	plan_id            TEXT NOT NULL REFERENCES travel_plans(id),
	diversity_score    REAL NOT NULL,
	budget_utilization REAL NOT NULL,
	places_analyzed    INTEGER NOT NULL,
	insights           TEXT,
	generated_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analytics_plan ON analytics_results(plan_id);
`

func cacheMigrations() []migration {
	return []migration{
		{version: 1, name: "api_cache", up: cacheSchema},
	}
}

func dataMigrations() []migration {
	return []migration{
		{version: 1, name: "places_plans_analytics", up: dataSchema},
	}
}

// OpenCache opens and migrates the cache database. Its contents are
// disposable; dropping the file loses nothing that cannot be refetched.
func OpenCache(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.migrate(context.Background(), cacheMigrations()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenData opens and migrates the data database holding durable place
// records, travel plans, and analytics results.
func OpenData(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.migrate(context.Background(), dataMigrations()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrate applies pending migrations in version order, each inside its own
// transaction. Applied versions are tracked in schema_migrations.
func (db *DB) migrate(ctx context.Context, migrations []migration) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`)
	if err != nil {
		return types.WrapError(types.DB_MIGRATION_FAILED, "failed to create migrations table", err)
	}

	current, err := db.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
				m.version, m.name)
			return err
		})
		if err != nil {
			return types.WrapError(types.DB_MIGRATION_FAILED,
				fmt.Sprintf("migration %d (%s) failed", m.version, m.name), err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied migration version, 0 when none.
func (db *DB) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, types.WrapError(types.DB_MIGRATION_FAILED, "failed to read schema version", err)
	}
	return int(version.Int64), nil
}
