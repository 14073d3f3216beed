package repo

import (
	"context"
	"sort"
	"sync"

	"videogen/internal/domain"
)

// GenerationRepositoryMemory keeps records in process, newest first.
type GenerationRepositoryMemory struct {
	mu      sync.RWMutex
	records []domain.GenerationRecord
}

func NewGenerationMemoryRepository() *GenerationRepositoryMemory {
	return &GenerationRepositoryMemory{}
}

// Save inserts the record at its CreatedAt position. Records with equal
// timestamps keep insertion order, latest first.
func (r *GenerationRepositoryMemory) Save(ctx context.Context, record *domain.GenerationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := sort.Search(len(r.records), func(i int) bool {
		return !r.records[i].CreatedAt.After(record.CreatedAt)
	})
	r.records = append(r.records, domain.GenerationRecord{})
	copy(r.records[idx+1:], r.records[idx:])
	r.records[idx] = *record
	return nil
}

func (r *GenerationRepositoryMemory) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]domain.GenerationRecord, limit)
	copy(out, r.records[:limit])
	return out, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryMemory)(nil)
