package codeblocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apierrors "codeberg.org/codepair/server/internal/errors"
)

var (
	ErrCodeBlockNotFound = fmt.Errorf("code block %w", apierrors.ErrNotFound)
)

// namespace for deterministic seed ids, so re-seeding is idempotent
var seedNamespace = uuid.MustParse("6f1c2a0e-8a43-4b8e-9a4f-3c5d2b7e1f90")

// exercises installed into an empty catalog
var DefaultSeeds = []Seed{
	{
		Name:        "Async case",
		InitialCode: "// fetch the user and log their name\nasync function showUser(id) {\n\n}",
		Solution:    "async function showUser(id) {\n  const user = await fetchUser(id);\n  console.log(user.name);\n}",
	},
	{
		Name:        "Closures",
		InitialCode: "// return a function that counts how many times it was called\nfunction makeCounter() {\n\n}",
		Solution:    "function makeCounter() {\n  let count = 0;\n  return () => ++count;\n}",
	},
	{
		Name:        "Promises",
		InitialCode: "// resolve with 'done' after ms milliseconds\nfunction wait(ms) {\n\n}",
		Solution:    "function wait(ms) {\n  return new Promise((resolve) => setTimeout(() => resolve('done'), ms));\n}",
	},
	{
		Name:        "Array methods",
		InitialCode: "// return the squares of the even numbers\nfunction evenSquares(nums) {\n\n}",
		Solution:    "function evenSquares(nums) {\n  return nums.filter((n) => n % 2 === 0).map((n) => n * n);\n}",
	},
}

// returns the stable id for a seed name
func SeedID(name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

// connects to postgres and makes sure the schema exists
func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// simple protocol keeps us compatible with pgbouncer in transaction mode
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(ctx, pgCreateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create code_blocks table: %w", err)
	}

	return &Repository{db: db}, nil
}

// inserts seeds that are not present yet
func (r *Repository) Seed(ctx context.Context, seeds []Seed) error {
	batch := &pgx.Batch{}

	for _, s := range seeds {
		batch.Queue(pgInsertSeed, SeedID(s.Name), s.Name, s.InitialCode, s.Solution)
	}

	br := r.db.SendBatch(ctx, batch)

	for i := range seeds {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck,gosec // already failing
			return fmt.Errorf("failed to seed code block %d: %w", i, err)
		}
	}

	return br.Close()
}

func (r *Repository) List(ctx context.Context) ([]CodeBlock, error) {
	rows, err := r.db.Query(ctx, pgList)
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

func (r *Repository) Get(ctx context.Context, id string) (*CodeBlock, error) {
	var b CodeBlock

	err := r.db.QueryRow(ctx, pgGet, id).Scan(
		&b.ID, &b.Name, &b.InitialCode, &b.Solution, &b.TotalRating, &b.NumRatings,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCodeBlockNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get code block: %w", err)
	}

	return &b, nil
}

func (r *Repository) AddRating(ctx context.Context, id string, value int) (int, int, error) {
	var total, count int

	err := r.db.QueryRow(ctx, pgAddRating, id, value).Scan(&total, &count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrCodeBlockNotFound
	}

	if err != nil {
		return 0, 0, fmt.Errorf("failed to add rating: %w", err)
	}

	return total, count, nil
}

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}
