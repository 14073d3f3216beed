package repo

import (
	"context"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository using PostgreSQL.
type GenerationRepositoryPG struct {
	db infra.SQLExecutor
}

// NewGenerationRepository creates a new generation repo.
func NewGenerationRepository(db infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

// EnsureSchema creates the generations table when missing.
func (r *GenerationRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, sqlinline.QEnsureGenerationsSchema)
	return err
}

// Save inserts a completed generation.
func (r *GenerationRepositoryPG) Save(ctx context.Context, record *domain.GenerationRecord) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertGeneration,
		record.ID,
		record.Prompt,
		record.VideoURL,
		record.DurationSeconds,
		record.HasAudio,
		record.AudioSource,
		record.CreatedAt,
	)
	return err
}

// ListRecent returns recent generations limited by the input value.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRecentGenerations, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GenerationRecord, 0)
	for rows.Next() {
		var record domain.GenerationRecord
		if err := rows.Scan(
			&record.ID,
			&record.Prompt,
			&record.VideoURL,
			&record.DurationSeconds,
			&record.HasAudio,
			&record.AudioSource,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultListLimit
	}
	return limit
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
