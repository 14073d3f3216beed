package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"videogen/internal/domain"
)

func TestGenerationRepositoryMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := mtest.TestDb + "." + GenerationsCollection

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewGenerationMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(context.Background()))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "createIndexes", evt.CommandName)
		key := evt.Command.Lookup("indexes").Array().Index(0).Value().Document().Lookup("key").Document()
		assertSortKeys(mt, key)
	})

	mt.Run("save", func(mt *mtest.T) {
		repo := NewGenerationMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		record := &domain.GenerationRecord{
			ID:              "gen-1",
			Prompt:          "a lighthouse in fog",
			VideoURL:        "/videos/req-1.mp4",
			DurationSeconds: 10,
			CreatedAt:       time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
			HasAudio:        true,
			AudioSource:     "freesound",
		}
		require.NoError(mt, repo.Save(context.Background(), record))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
		assert.Equal(mt, GenerationsCollection, evt.Command.Lookup("insert").StringValue())
		doc := evt.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "gen-1", doc.Lookup("_id").StringValue())
		assert.Equal(mt, "/videos/req-1.mp4", doc.Lookup("video_url").StringValue())
		assert.True(mt, doc.Lookup("has_audio").Boolean())
	})

	mt.Run("list recent sends sort and limit", func(mt *mtest.T) {
		repo := NewGenerationMongoRepository(mt.DB)
		newer := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "b"}, {Key: "prompt", Value: "second"}, {Key: "video_url", Value: "/videos/b.mp4"}, {Key: "duration_seconds", Value: 8}, {Key: "created_at", Value: newer}},
			bson.D{{Key: "_id", Value: "a"}, {Key: "prompt", Value: "first"}, {Key: "video_url", Value: "/videos/a.mp4"}, {Key: "duration_seconds", Value: 5}, {Key: "created_at", Value: older}, {Key: "has_audio", Value: true}},
		))

		items, err := repo.ListRecent(context.Background(), 2)
		require.NoError(mt, err)
		require.Len(mt, items, 2)
		assert.Equal(mt, "b", items[0].ID)
		assert.True(mt, items[0].CreatedAt.Equal(newer))
		assert.Equal(mt, "a", items[1].ID)
		assert.True(mt, items[1].HasAudio)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assertSortKeys(mt, evt.Command.Lookup("sort").Document())
		assert.EqualValues(mt, 2, evt.Command.Lookup("limit").AsInt64())
	})

	mt.Run("list recent empty", func(mt *mtest.T) {
		repo := NewGenerationMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		items, err := repo.ListRecent(context.Background(), 0)
		require.NoError(mt, err)
		assert.NotNil(mt, items)
		assert.Empty(mt, items)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.EqualValues(mt, domain.DefaultListLimit, evt.Command.Lookup("limit").AsInt64())
	})

	mt.Run("list recent error", func(mt *mtest.T) {
		repo := NewGenerationMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		_, err := repo.ListRecent(context.Background(), 5)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "not authorized")
	})
}

func assertSortKeys(t require.TestingT, doc bson.Raw) {
	elems, err := doc.Elements()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.Equal(t, "created_at", elems[0].Key())
	assert.EqualValues(t, -1, elems[0].Value().AsInt64())
	assert.Equal(t, "_id", elems[1].Key())
	assert.EqualValues(t, -1, elems[1].Value().AsInt64())
}
