package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platescan"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a NutritionDatabase backed by a shared Postgres table of the same shape as the SQLite one.
type PostgresStore struct {
	q     querier
	close func()
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{q: pool, close: pool.Close}, nil
}

func (s *PostgresStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func (s *PostgresStore) Lookup(ctx context.Context, name string) (platescan.NutritionFacts, error) {
	var f platescan.NutritionFacts
	err := s.q.QueryRow(ctx,
		`SELECT calories_kcal, protein_g, carbs_g, fat_g, basis_grams FROM nutrition WHERE name = $1`,
		key(name),
	).Scan(&f.CaloriesKcal, &f.ProteinG, &f.CarbsG, &f.FatG, &f.BasisGrams)
	if errors.Is(err, pgx.ErrNoRows) {
		return platescan.NutritionFacts{}, platescan.ErrNotFound
	}
	if err != nil {
		return platescan.NutritionFacts{}, fmt.Errorf("failed to query nutrition: %w", err)
	}
	return f, nil
}
