package ratings

import (
	"context"
	"fmt"
)

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// records one rating and returns the new average. there is no per-user
// dedup here: every accepted request counts once.
func (a *Aggregator) Submit(ctx context.Context, codeBlockID string, value int) (float64, error) {
	if value < MinRating || value > MaxRating {
		return 0, ErrInvalidRating
	}

	totals, err := a.store.Add(ctx, codeBlockID, value)
	if err != nil {
		return 0, fmt.Errorf("failed to record rating: %w", err)
	}

	return totals.Average(), nil
}

func (a *Aggregator) Average(ctx context.Context, codeBlockID string) (float64, error) {
	totals, err := a.Totals(ctx, codeBlockID)
	if err != nil {
		return 0, err
	}

	return totals.Average(), nil
}

func (a *Aggregator) Totals(ctx context.Context, codeBlockID string) (Totals, error) {
	totals, err := a.store.Totals(ctx, codeBlockID)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to read rating totals: %w", err)
	}

	return totals, nil
}
