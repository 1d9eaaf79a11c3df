package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// Schema of the properties table
const Schema = `CREATE TABLE IF NOT EXISTS properties (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated TIMESTAMP NOT NULL
)`

type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB keeps properties in postgresql
type DB struct {
	pool dbPool
}

// NewDB creates properties store, pool is usually *pgxpool.Pool
func NewDB(pool dbPool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &DB{pool: pool}, nil
}

// Get loads property value
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var res string
	err := db.pool.QueryRow(ctx, `SELECT value FROM properties WHERE key = $1`, key).Scan(&res)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", properties.ErrNotFound
		}
		return "", fmt.Errorf("can't load property: %w", err)
	}
	return res, nil
}

// Set inserts or updates property
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO properties(key, value, updated) VALUES($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated = EXCLUDED.updated`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("can't save property: %w", err)
	}
	return nil
}

// List returns all keys
func (db *DB) List(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT key FROM properties ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("can't select keys: %w", err)
	}
	defer rows.Close()

	res := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("can't retrieve keys: %w", err)
		}
		res = append(res, key)
	}
	return res, rows.Err()
}

// Delete removes property, no error if it does not exist
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM properties WHERE key = $1`, key); err != nil {
		return fmt.Errorf("can't delete property: %w", err)
	}
	return nil
}

// Init creates the table if missing
func (db *DB) Init(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'properties')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
