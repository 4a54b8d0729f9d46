package ratings

import (
	"context"

	"codeberg.org/codepair/server/codepair/codeblocks"
)

// keeps totals on the code block row itself
type CatalogStore struct {
	catalog codeblocks.Store
}

func NewCatalogStore(catalog codeblocks.Store) *CatalogStore {
	return &CatalogStore{catalog: catalog}
}

func (s *CatalogStore) Add(ctx context.Context, codeBlockID string, value int) (Totals, error) {
	sum, count, err := s.catalog.AddRating(ctx, codeBlockID, value)
	if err != nil {
		return Totals{}, err
	}

	return Totals{Sum: sum, Count: count}, nil
}

func (s *CatalogStore) Totals(ctx context.Context, codeBlockID string) (Totals, error) {
	b, err := s.catalog.Get(ctx, codeBlockID)
	if err != nil {
		return Totals{}, err
	}

	return Totals{Sum: b.TotalRating, Count: b.NumRatings}, nil
}
