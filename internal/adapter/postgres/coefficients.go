// Package postgres stores fitted GRA coefficients in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"

	"github.com/couchcryptid/radar-composite/internal/gra"
)

// Schema creates the coefficient table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS gra_coefficients (
	valid_at    TIMESTAMPTZ PRIMARY KEY,
	a           DOUBLE PRECISION,
	b           DOUBLE PRECISION,
	c           DOUBLE PRECISION,
	samples     INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const latestQuery = `
	SELECT a, b, c
	FROM gra_coefficients
	WHERE valid_at <= $1
	ORDER BY valid_at DESC
	LIMIT 1`

const upsertQuery = `
	INSERT INTO gra_coefficients (valid_at, a, b, c, samples)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (valid_at) DO UPDATE
	SET a = EXCLUDED.a, b = EXCLUDED.b, c = EXCLUDED.c, samples = EXCLUDED.samples`

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return db, nil
}

// CoefficientStore implements gra.CoefficientStore.
type CoefficientStore struct {
	db *sql.DB
}

// NewCoefficientStore wraps an open pool.
func NewCoefficientStore(db *sql.DB) *CoefficientStore {
	return &CoefficientStore{db: db}
}

// EnsureSchema creates the coefficient table when missing.
func (s *CoefficientStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create gra_coefficients: %w", err)
	}
	return nil
}

// Coefficients returns the newest coefficients valid at or before at. NULL
// columns come back as NaN so that callers can reject them.
func (s *CoefficientStore) Coefficients(ctx context.Context, at time.Time) (gra.Coefficients, bool, error) {
	var a, b, c sql.NullFloat64
	err := s.db.QueryRowContext(ctx, latestQuery, at.UTC()).Scan(&a, &b, &c)
	if errors.Is(err, sql.ErrNoRows) {
		return gra.Coefficients{}, false, nil
	}
	if err != nil {
		return gra.Coefficients{}, false, fmt.Errorf("query gra coefficients: %w", err)
	}
	return gra.Coefficients{A: orNaN(a), B: orNaN(b), C: orNaN(c)}, true, nil
}

// Save stores coefficients fitted from samples observations, replacing any
// row for the same time.
func (s *CoefficientStore) Save(ctx context.Context, at time.Time, c gra.Coefficients, samples int) error {
	if _, err := s.db.ExecContext(ctx, upsertQuery, at.UTC(), c.A, c.B, c.C, samples); err != nil {
		return fmt.Errorf("save gra coefficients: %w", err)
	}
	return nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
