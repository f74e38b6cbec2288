package vectorstore

import (
	"context"

	"anayasa/internal/domain"
)

// Storage holds unit vectors and supports similarity search.
// Search results are ordered by descending score; equal scores keep
// document order.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, units []domain.Unit, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}
