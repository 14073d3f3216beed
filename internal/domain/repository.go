package domain

import "context"

// DefaultListLimit caps history listings when the caller does not ask for one.
const DefaultListLimit = 10

// GenerationRepository persists completed generations. Save appends;
// ListRecent returns newest first by CreatedAt.
type GenerationRepository interface {
	Save(ctx context.Context, record *GenerationRecord) error
	ListRecent(ctx context.Context, limit int) ([]GenerationRecord, error)
}
