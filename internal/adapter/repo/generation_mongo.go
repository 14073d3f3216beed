package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"videogen/internal/domain"
)

// GenerationsCollection is the collection completed generations live in.
const GenerationsCollection = "generations"

// GenerationRepositoryMongo implements domain.GenerationRepository on MongoDB.
type GenerationRepositoryMongo struct {
	coll *mongo.Collection
}

func NewGenerationMongoRepository(db *mongo.Database) *GenerationRepositoryMongo {
	return &GenerationRepositoryMongo{coll: db.Collection(GenerationsCollection)}
}

// EnsureIndexes creates the created_at index used by ListRecent.
func (r *GenerationRepositoryMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: recentSort(),
	})
	if err != nil {
		return fmt.Errorf("create generations index: %w", err)
	}
	return nil
}

func (r *GenerationRepositoryMongo) Save(ctx context.Context, record *domain.GenerationRecord) error {
	_, err := r.coll.InsertOne(ctx, record)
	return err
}

func (r *GenerationRepositoryMongo) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, recentFindOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]domain.GenerationRecord, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func recentSort() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}

func recentFindOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(recentSort()).
		SetLimit(int64(normalizeLimit(limit)))
}

var _ domain.GenerationRepository = (*GenerationRepositoryMongo)(nil)
