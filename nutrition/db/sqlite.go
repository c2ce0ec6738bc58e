package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"platescan"
)

// SQLiteStore is a NutritionDatabase backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLiteStoreFromDB wraps an already-open handle. The schema is assumed to exist.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS nutrition (
        name TEXT PRIMARY KEY,
        calories_kcal REAL NOT NULL,
        protein_g REAL NOT NULL,
        carbs_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        basis_grams REAL NOT NULL DEFAULT 100
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Seed upserts entries in one transaction.
func (s *SQLiteStore) Seed(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
    INSERT INTO nutrition (name, calories_kcal, protein_g, carbs_g, fat_g, basis_grams)
    VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT(name) DO UPDATE SET
        calories_kcal = excluded.calories_kcal,
        protein_g = excluded.protein_g,
        carbs_g = excluded.carbs_g,
        fat_g = excluded.fat_g,
        basis_grams = excluded.basis_grams
    `
	for _, e := range entries {
		f := e.Facts
		if _, err := tx.ExecContext(ctx, query, key(e.Name), f.CaloriesKcal, f.ProteinG, f.CarbsG, f.FatG, f.BasisGrams); err != nil {
			return fmt.Errorf("failed to seed %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Lookup(ctx context.Context, name string) (platescan.NutritionFacts, error) {
	var f platescan.NutritionFacts
	err := s.db.QueryRowContext(ctx,
		`SELECT calories_kcal, protein_g, carbs_g, fat_g, basis_grams FROM nutrition WHERE name = ?`,
		key(name),
	).Scan(&f.CaloriesKcal, &f.ProteinG, &f.CarbsG, &f.FatG, &f.BasisGrams)
	if errors.Is(err, sql.ErrNoRows) {
		return platescan.NutritionFacts{}, platescan.ErrNotFound
	}
	if err != nil {
		return platescan.NutritionFacts{}, fmt.Errorf("failed to query nutrition: %w", err)
	}
	return f, nil
}
