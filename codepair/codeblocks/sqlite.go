package codeblocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// opens (creating if needed) the sqlite catalog at path
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// a single writer avoids SQLITE_BUSY on concurrent rating updates
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteCreateTable); err != nil {
		db.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("failed to create code_blocks table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// inserts seeds that are not present yet
func (r *SQLiteRepository) Seed(ctx context.Context, seeds []Seed) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, s := range seeds {
		if _, err := tx.ExecContext(ctx, sqliteInsertSeed, SeedID(s.Name), s.Name, s.InitialCode, s.Solution); err != nil {
			return fmt.Errorf("failed to seed code block %q: %w", s.Name, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) List(ctx context.Context) ([]CodeBlock, error) {
	rows, err := r.db.QueryContext(ctx, sqliteList)
	if err != nil {
		return nil, fmt.Errorf("failed to list code blocks: %w", err)
	}
	defer rows.Close()

	blocks := []CodeBlock{}

	for rows.Next() {
		var b CodeBlock
		if err := rows.Scan(&b.ID, &b.Name, &b.InitialCode, &b.Solution, &b.TotalRating, &b.NumRatings); err != nil {
			return nil, fmt.Errorf("failed to scan code block: %w", err)
		}

		blocks = append(blocks, b)
	}

	return blocks, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*CodeBlock, error) {
	var b CodeBlock

	err := r.db.QueryRowContext(ctx, sqliteGet, id).Scan(
		&b.ID, &b.Name, &b.InitialCode, &b.Solution, &b.TotalRating, &b.NumRatings,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeBlockNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get code block: %w", err)
	}

	return &b, nil
}

func (r *SQLiteRepository) AddRating(ctx context.Context, id string, value int) (int, int, error) {
	var total, count int

	err := r.db.QueryRowContext(ctx, sqliteAddRating, value, id).Scan(&total, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrCodeBlockNotFound
	}

	if err != nil {
		return 0, 0, fmt.Errorf("failed to add rating: %w", err)
	}

	return total, count, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
