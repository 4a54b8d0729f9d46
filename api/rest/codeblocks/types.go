package codeblocks

import (
	"context"

	"codeberg.org/codepair/server/codepair/codeblocks"
)

// read side of the code block catalog the handlers need
type Catalog interface {
	List(ctx context.Context) ([]codeblocks.CodeBlock, error)
	Get(ctx context.Context, id string) (*codeblocks.CodeBlock, error)
}

// lobby entry
type CodeBlockSummary struct {
	ID          string `json:"_id"`
	Name        string `json:"codeBlockName"`
	TotalRating int    `json:"totalRating"`
	NumRatings  int    `json:"numRatings"`
}

type CodeBlockResponse struct {
	ID          string `json:"_id"`
	Name        string `json:"codeBlockName"`
	InitialCode string `json:"initialCode"`
	Solution    string `json:"solution"`
}

type SubmitRatingRequest struct {
	// pointer so a missing field is told apart from zero
	Rating *int `json:"rating" binding:"required"`
}

type RatingResponse struct {
	AverageRating float64 `json:"averageRating"`
}
