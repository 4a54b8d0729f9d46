package codeblocks

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// a coding exercise: starting code, reference solution and its rating totals
type CodeBlock struct {
	ID          string `json:"_id"`
	Name        string `json:"codeBlockName"`
	InitialCode string `json:"initialCode"`
	Solution    string `json:"solution"`
	TotalRating int    `json:"totalRating"`
	NumRatings  int    `json:"numRatings"`
}

// mean of count ratings summing to total, 0 when unrated
func Average(total, count int) float64 {
	if count <= 0 {
		return 0
	}

	return float64(total) / float64(count)
}

// read access to code block definitions plus the atomic rating counter
// that lives on the same row
type Store interface {
	List(ctx context.Context) ([]CodeBlock, error)
	Get(ctx context.Context, id string) (*CodeBlock, error)

	// adds value to the total and bumps the count in one step, returning
	// the new totals
	AddRating(ctx context.Context, id string, value int) (total, count int, err error)

	Close() error
}

// postgres-backed store
type Repository struct {
	db *pgxpool.Pool
}

// sqlite-backed store, used when no postgres connection string is configured
type SQLiteRepository struct {
	db *sql.DB
}

// definition used to seed an empty catalog
type Seed struct {
	Name        string
	InitialCode string
	Solution    string
}
