package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoBackend(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("missing key is absent", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		b, err := NewMongoBackend(mt.Coll, StoreSite).Get(ctx, "menus.json")
		require.NoError(mt, err)
		assert.Nil(mt, b)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, StoreSite, evt.Command.Lookup("filter", "store").StringValue())
		assert.Equal(mt, "menus.json", evt.Command.Lookup("filter", "key").StringValue())
	})

	mt.Run("get returns the stored value", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "store", Value: StoreSite},
			{Key: "key", Value: "menus.json"},
			{Key: "value", Value: []byte(`{"main":[]}`)},
		}))

		b, err := NewMongoBackend(mt.Coll, StoreSite).Get(ctx, "menus.json")
		require.NoError(mt, err)
		assert.Equal(mt, `{"main":[]}`, string(b))
	})

	mt.Run("set upserts within the store", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		require.NoError(mt, NewMongoBackend(mt.Coll, StoreComments).Set(ctx, "c1", []byte("{}")))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		assert.Equal(mt, StoreComments, evt.Command.Lookup("updates", "0", "q", "store").StringValue())
		assert.Equal(mt, "c1", evt.Command.Lookup("updates", "0", "q", "key").StringValue())
		assert.True(mt, evt.Command.Lookup("updates", "0", "upsert").Boolean())
	})

	mt.Run("delete reports whether the key existed", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		m := NewMongoBackend(mt.Coll, StoreSite)

		ok, err := m.Delete(ctx, "k")
		require.NoError(mt, err)
		assert.True(mt, ok)
		ok, err = m.Delete(ctx, "k")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("keys are scoped to the store", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "key", Value: "a"}},
			bson.D{{Key: "key", Value: "b"}},
		))

		keys, err := NewMongoBackend(mt.Coll, StoreAnalytics).Keys(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"a", "b"}, keys)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, StoreAnalytics, evt.Command.Lookup("filter", "store").StringValue())
	})
}
