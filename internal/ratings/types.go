package ratings

import (
	"context"
	"fmt"

	"codeberg.org/codepair/server/codepair/codeblocks"
	apierrors "codeberg.org/codepair/server/internal/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidRating = fmt.Errorf("%w: rating must be an integer between %d and %d", apierrors.ErrValidation, MinRating, MaxRating)
)

// running sum and count for one code block
type Totals struct {
	Sum   int `json:"totalRating"`
	Count int `json:"numRatings"`
}

// returns Sum/Count, 0 when nothing has been rated
func (t Totals) Average() float64 {
	return codeblocks.Average(t.Sum, t.Count)
}

// persists rating totals. Add must apply sum and count together.
type Store interface {
	Add(ctx context.Context, codeBlockID string, value int) (Totals, error)
	Totals(ctx context.Context, codeBlockID string) (Totals, error)
}

// validates submissions and computes averages over a Store
type Aggregator struct {
	store Store
}
