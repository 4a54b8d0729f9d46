package codeblocks

import (
	"context"
	"sync"
)

// in-memory store, for tests and throwaway local runs
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[string]*CodeBlock
	order  []string
}

func NewMemoryStore(blocks ...CodeBlock) *MemoryStore {
	s := &MemoryStore{
		blocks: make(map[string]*CodeBlock, len(blocks)),
	}

	for _, b := range blocks {
		s.Put(b)
	}

	return s
}

// inserts or replaces a code block
func (s *MemoryStore) Put(b CodeBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocks[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}

	s.blocks[b.ID] = &b
}

// inserts seeds that are not present yet
func (s *MemoryStore) Seed(_ context.Context, seeds []Seed) error {
	for _, seed := range seeds {
		id := SeedID(seed.Name)

		s.mu.RLock()
		_, exists := s.blocks[id]
		s.mu.RUnlock()

		if !exists {
			s.Put(CodeBlock{ID: id, Name: seed.Name, InitialCode: seed.InitialCode, Solution: seed.Solution})
		}
	}

	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]CodeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]CodeBlock, 0, len(s.order))
	for _, id := range s.order {
		blocks = append(blocks, *s.blocks[id])
	}

	return blocks, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*CodeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blocks[id]
	if !ok {
		return nil, ErrCodeBlockNotFound
	}

	cp := *b
	return &cp, nil
}

func (s *MemoryStore) AddRating(_ context.Context, id string, value int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blocks[id]
	if !ok {
		return 0, 0, ErrCodeBlockNotFound
	}

	b.TotalRating += value
	b.NumRatings++

	return b.TotalRating, b.NumRatings, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
